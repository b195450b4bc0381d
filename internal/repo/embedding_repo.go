package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
)

type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Create persists the text columns of an embedding record. The vector is
// written separately via SetVector once embedding generation settles, which
// mirrors the two-step create-then-update write order of the pipeline.
func (r *EmbeddingRepo) Create(ctx context.Context, emb *model.SourceCodeEmbedding) error {
	const query = `
		INSERT INTO source_code_embeddings (id, project_id, file_name, source_code, summary, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		emb.ID,
		emb.ProjectID,
		emb.FileName,
		emb.SourceCode,
		emb.Summary,
		emb.Ctime,
	)
	return err
}

func (r *EmbeddingRepo) SetVector(ctx context.Context, id string, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	const query = `UPDATE source_code_embeddings SET summary_embedding = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(vector), id)
	return err
}

// QuerySimilar runs a cosine similarity search over the project's stored
// summary embeddings, keeping rows strictly above the threshold, best first.
func (r *EmbeddingRepo) QuerySimilar(ctx context.Context, projectID string, queryVector []float32, threshold float64, limit int) ([]model.FileReference, error) {
	const query = `
		SELECT file_name, source_code, summary,
		       1 - (summary_embedding <=> $1) AS similarity
		FROM source_code_embeddings
		WHERE project_id = $2
		  AND summary_embedding IS NOT NULL
		  AND 1 - (summary_embedding <=> $1) > $3
		ORDER BY similarity DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(queryVector), projectID, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var refs []model.FileReference
	for rows.Next() {
		var ref model.FileReference
		if err := rows.Scan(&ref.FileName, &ref.SourceCode, &ref.Summary, &ref.Similarity); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *EmbeddingRepo) CountByProject(ctx context.Context, projectID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM source_code_embeddings WHERE project_id = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
