package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/response"
	"github.com/Pallavikumarimdb/VexonAI/internal/service"
)

type CommitHandler struct {
	commits *service.CommitService
}

func NewCommitHandler(commits *service.CommitService) *CommitHandler {
	return &CommitHandler{commits: commits}
}

type commitSyncRequest struct {
	GithubToken string `json:"github_token"`
}

func (h *CommitHandler) Sync(c *gin.Context) {
	var req commitSyncRequest
	_ = c.ShouldBindJSON(&req)
	inserted, err := h.commits.Sync(c.Request.Context(), c.Param("id"), req.GithubToken)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"inserted": inserted})
}

func (h *CommitHandler) List(c *gin.Context) {
	commits, err := h.commits.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"commits": commits})
}
