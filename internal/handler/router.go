package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Projects  *ProjectHandler
	Ingest    *IngestHandler
	Commits   *CommitHandler
	Questions *QuestionHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/projects", deps.Projects.Create)
	api.GET("/projects", deps.Projects.List)
	api.GET("/projects/:id", deps.Projects.Get)

	api.POST("/projects/:id/ingest", deps.Ingest.Ingest)

	api.POST("/projects/:id/commits/sync", deps.Commits.Sync)
	api.GET("/projects/:id/commits", deps.Commits.List)

	api.POST("/projects/:id/questions", deps.Questions.Ask)
	api.POST("/projects/:id/questions/save", deps.Questions.Save)
	api.GET("/projects/:id/questions", deps.Questions.List)
	api.GET("/questions/:id", deps.Questions.Get)
}
