package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/response"
	"github.com/Pallavikumarimdb/VexonAI/internal/service"
)

type IngestHandler struct {
	ingest   *service.IngestService
	projects *service.ProjectService
}

func NewIngestHandler(ingest *service.IngestService, projects *service.ProjectService) *IngestHandler {
	return &IngestHandler{ingest: ingest, projects: projects}
}

type ingestRequest struct {
	GithubToken string `json:"github_token"`
}

// Ingest runs the full pipeline synchronously; for a large repository this
// request is long-lived by design (the pipeline paces itself).
func (h *IngestHandler) Ingest(c *gin.Context) {
	projectID := c.Param("id")
	var req ingestRequest
	_ = c.ShouldBindJSON(&req)

	project, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		handleError(c, err)
		return
	}
	token := req.GithubToken
	if token == "" {
		token = project.GithubToken
	}
	stats, err := h.ingest.Ingest(c.Request.Context(), project.ID, project.GithubURL, token)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
