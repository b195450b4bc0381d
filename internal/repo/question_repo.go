package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/dbutil"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
)

type QuestionRepo struct {
	db *sql.DB
}

func NewQuestionRepo(db *sql.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) Insert(ctx context.Context, question *model.Question) error {
	refs, err := json.Marshal(question.FileReferences)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":              question.ID,
		"project_id":      question.ProjectID,
		"user_id":         question.UserID,
		"question":        question.Question,
		"answer":          question.Answer,
		"file_references": refs,
		"ctime":           question.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("questions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *QuestionRepo) Get(ctx context.Context, questionID string) (*model.Question, error) {
	where := map[string]interface{}{"id": questionID}
	sqlStr, args, err := builder.BuildSelect("questions", where,
		[]string{"id", "project_id", "user_id", "question", "answer", "file_references", "ctime"})
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
	return scanQuestion(rows)
}

func (r *QuestionRepo) ListByProject(ctx context.Context, projectID string) ([]model.Question, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("questions", where,
		[]string{"id", "project_id", "user_id", "question", "answer", "file_references", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var questions []model.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}
	return questions, rows.Err()
}

func scanQuestion(rows *sql.Rows) (*model.Question, error) {
	var question model.Question
	var refs []byte
	if err := rows.Scan(&question.ID, &question.ProjectID, &question.UserID,
		&question.Question, &question.Answer, &refs, &question.Ctime); err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &question.FileReferences); err != nil {
			return nil, err
		}
	}
	return &question, nil
}
