package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
)

type stubProjectWriter struct {
	stubProjects
}

func (s *stubProjectWriter) Create(ctx context.Context, project *model.Project) error {
	s.projects[project.ID] = project
	return nil
}

func TestProjectCreateValidatesInput(t *testing.T) {
	svc := NewProjectService(&stubProjectWriter{stubProjects{projects: map[string]*model.Project{}}})

	_, err := svc.Create(context.Background(), ProjectCreateInput{Name: " ", GithubURL: "https://github.com/acme/widgets"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Create(context.Background(), ProjectCreateInput{Name: "widgets", GithubURL: "https://github.com/acme"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestProjectCreateNormalizesURL(t *testing.T) {
	store := &stubProjectWriter{stubProjects{projects: map[string]*model.Project{}}}
	svc := NewProjectService(store)

	project, err := svc.Create(context.Background(), ProjectCreateInput{
		Name:        "widgets",
		GithubURL:   "https://github.com/acme/widgets/",
		GithubToken: " tok ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, project.ID)
	require.Equal(t, "https://github.com/acme/widgets", project.GithubURL)
	require.Equal(t, "tok", project.GithubToken)

	got, err := svc.Get(context.Background(), project.ID)
	require.NoError(t, err)
	require.Equal(t, "widgets", got.Name)
}
