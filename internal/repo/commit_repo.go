package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	"github.com/Pallavikumarimdb/VexonAI/internal/pkg/dbutil"
)

type CommitRepo struct {
	db *sql.DB
}

func NewCommitRepo(db *sql.DB) *CommitRepo {
	return &CommitRepo{db: db}
}

// ListHashes returns the set of commit hashes already persisted for the
// project. This is the dedup source for incremental synchronization.
func (r *CommitRepo) ListHashes(ctx context.Context, projectID string) (map[string]struct{}, error) {
	const query = `SELECT commit_hash FROM commits WHERE project_id = $1`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	hashes := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes[hash] = struct{}{}
	}
	return hashes, rows.Err()
}

// InsertBatch writes all rows in one statement. The unique constraint on
// (project_id, commit_hash) is the final arbiter under concurrent syncs:
// conflicting rows are silently dropped, not errors.
func (r *CommitRepo) InsertBatch(ctx context.Context, commits []model.Commit) error {
	if len(commits) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(commits))
	args := make([]interface{}, 0, len(commits)*9)
	for i, commit := range commits {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args,
			commit.ID,
			commit.ProjectID,
			commit.CommitHash,
			commit.Message,
			commit.AuthorName,
			commit.AuthorAvatar,
			commit.CommitDate,
			commit.Summary,
			commit.Ctime,
		)
	}
	query := `
		INSERT INTO commits (id, project_id, commit_hash, message, author_name, author_avatar, commit_date, summary, ctime)
		VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT (project_id, commit_hash) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbutil.IsConflict(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *CommitRepo) List(ctx context.Context, projectID string) ([]model.Commit, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "commit_date desc",
	}
	sqlStr, args, err := builder.BuildSelect("commits", where,
		[]string{"id", "project_id", "commit_hash", "message", "author_name", "author_avatar", "commit_date", "summary", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var commits []model.Commit
	for rows.Next() {
		var commit model.Commit
		if err := rows.Scan(&commit.ID, &commit.ProjectID, &commit.CommitHash, &commit.Message,
			&commit.AuthorName, &commit.AuthorAvatar, &commit.CommitDate, &commit.Summary, &commit.Ctime); err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}
	return commits, rows.Err()
}
