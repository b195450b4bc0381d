package service

import (
	"context"
	"strings"
	"time"

	"github.com/Pallavikumarimdb/VexonAI/internal/github"
	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
)

type projectWriter interface {
	projectStore
	Create(ctx context.Context, project *model.Project) error
}

type ProjectService struct {
	projects projectWriter
}

func NewProjectService(projects projectWriter) *ProjectService {
	return &ProjectService{projects: projects}
}

type ProjectCreateInput struct {
	Name        string `json:"name"`
	GithubURL   string `json:"github_url"`
	GithubToken string `json:"github_token"`
}

func (s *ProjectService) Create(ctx context.Context, input ProjectCreateInput) (*model.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	if _, _, err := github.ParseRepoURL(input.GithubURL); err != nil {
		return nil, appErr.ErrInvalid
	}
	project := &model.Project{
		ID:          newID(),
		Name:        name,
		GithubURL:   strings.TrimSuffix(strings.TrimSpace(input.GithubURL), "/"),
		GithubToken: strings.TrimSpace(input.GithubToken),
		Ctime:       time.Now().UnixMilli(),
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID string) (*model.Project, error) {
	return s.projects.Get(ctx, projectID)
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.projects.List(ctx)
}
