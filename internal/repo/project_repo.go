package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/dbutil"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, project *model.Project) error {
	data := map[string]interface{}{
		"id":           project.ID,
		"name":         project.Name,
		"github_url":   project.GithubURL,
		"github_token": project.GithubToken,
		"ctime":        project.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("projects", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, projectID string) (*model.Project, error) {
	where := map[string]interface{}{"id": projectID}
	sqlStr, args, err := builder.BuildSelect("projects", where, []string{"id", "name", "github_url", "github_token", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var project model.Project
	if err := rows.Scan(&project.ID, &project.Name, &project.GithubURL, &project.GithubToken, &project.Ctime); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	where := map[string]interface{}{"_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("projects", where, []string{"id", "name", "github_url", "github_token", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var projects []model.Project
	for rows.Next() {
		var project model.Project
		if err := rows.Scan(&project.ID, &project.Name, &project.GithubURL, &project.GithubToken, &project.Ctime); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
