package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
)

const truncationMarker = "\n...[truncated]"

type documentLoader interface {
	Load(ctx context.Context, repoURL, token string) ([]model.Document, error)
}

type fileSummarizer interface {
	SummarizeFile(ctx context.Context, filePath, content string) (string, error)
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

type embeddingStore interface {
	Create(ctx context.Context, emb *model.SourceCodeEmbedding) error
	SetVector(ctx context.Context, id string, vector []float32) error
}

type IngestConfig struct {
	MaxChunkChars int
	MaxRetries    int
	HostDelay     time.Duration
	BackoffUnit   time.Duration
}

// IngestStats breaks the run down per document: Embedded rows were
// persisted, Skipped documents exhausted their retries, Failed documents
// summarized fine but could not be persisted.
type IngestStats struct {
	Total    int `json:"total"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// IngestService drives the document pipeline: load the repository tree,
// then strictly one document at a time summarize, embed and persist.
// A document that keeps failing is dropped without aborting its siblings.
type IngestService struct {
	loader     documentLoader
	ai         fileSummarizer
	limiter    *ratelimit.WindowLimiter
	embeddings embeddingStore
	cfg        IngestConfig

	sleep func(ctx context.Context, d time.Duration) error
}

func NewIngestService(loader documentLoader, ai fileSummarizer, limiter *ratelimit.WindowLimiter, embeddings embeddingStore, cfg IngestConfig) *IngestService {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = 75000
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = 2 * time.Second
	}
	return &IngestService{
		loader:     loader,
		ai:         ai,
		limiter:    limiter,
		embeddings: embeddings,
		cfg:        cfg,
		sleep:      sleepCtx,
	}
}

// Ingest loads and embeds every eligible document of the repository. An
// empty repository is a successful no-op. Each successful document is its
// own persistence unit: a crash mid-run leaves a valid prefix behind.
func (s *IngestService) Ingest(ctx context.Context, projectID, repoURL, token string) (IngestStats, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID), zap.String("repo", repoURL))

	docs, err := s.loader.Load(ctx, repoURL, token)
	if err != nil {
		return IngestStats{}, err
	}
	stats := IngestStats{Total: len(docs)}
	if len(docs) == 0 {
		logger.Info("no documents to ingest")
		return stats, nil
	}

	for i, doc := range docs {
		logger.Info("processing document", zap.Int("index", i+1), zap.Int("total", len(docs)), zap.String("file", doc.FileName))
		result := s.process(ctx, doc)
		if result == nil {
			stats.Skipped++
			continue
		}
		if err := s.persist(ctx, projectID, result); err != nil {
			logger.Error("persist embedding failed", zap.String("file", doc.FileName), zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Embedded++
		// smooth total load even though this loop holds no host connection
		if i < len(docs)-1 {
			if err := s.sleep(ctx, s.cfg.HostDelay); err != nil {
				return stats, err
			}
		}
	}
	logger.Info("ingestion completed",
		zap.Int("embedded", stats.Embedded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("total", stats.Total),
	)
	return stats, nil
}

type processedDocument struct {
	fileName   string
	sourceCode string
	summary    string
	embedding  []float32
}

// process runs the truncate-summarize-embed sequence with bounded retries
// and linear backoff. Returns nil when every attempt failed.
func (s *IngestService) process(ctx context.Context, doc model.Document) *processedDocument {
	logger := logutil.GetLogger(ctx).With(zap.String("file", doc.FileName))
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries+1; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * s.cfg.BackoffUnit
			logger.Warn("retrying document", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(lastErr))
			if err := s.sleep(ctx, backoff); err != nil {
				return nil
			}
		}
		result, err := s.attempt(ctx, doc)
		if err == nil {
			return result
		}
		lastErr = err
	}
	logger.Error("document abandoned", zap.Error(lastErr))
	return nil
}

func (s *IngestService) attempt(ctx context.Context, doc model.Document) (*processedDocument, error) {
	content := truncate(doc.PageContent, s.cfg.MaxChunkChars)

	var summary string
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		summary, err = s.ai.SummarizeFile(ctx, doc.FileName, content)
		return err
	})
	if err != nil {
		return nil, err
	}

	// embedding is best effort: a summary-only record still serves the
	// question corpus, it just never matches a similarity query
	var embedding []float32
	embedErr := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		embedding, err = s.ai.Embed(ctx, summary, "RETRIEVAL_DOCUMENT")
		return err
	})
	if embedErr != nil {
		logutil.GetLogger(ctx).Warn("embedding failed, storing empty vector", zap.String("file", doc.FileName), zap.Error(embedErr))
		embedding = nil
	}

	return &processedDocument{
		fileName:   doc.FileName,
		sourceCode: content,
		summary:    summary,
		embedding:  embedding,
	}, nil
}

func (s *IngestService) persist(ctx context.Context, projectID string, result *processedDocument) error {
	record := &model.SourceCodeEmbedding{
		ID:         newID(),
		ProjectID:  projectID,
		FileName:   result.fileName,
		SourceCode: result.sourceCode,
		Summary:    result.summary,
		Ctime:      time.Now().UnixMilli(),
	}
	if err := s.embeddings.Create(ctx, record); err != nil {
		return err
	}
	return s.embeddings.SetVector(ctx, record.ID, result.embedding)
}

// truncate cuts content at the limit without splitting a multi-byte rune:
// the result must stay valid UTF-8 or postgres rejects the row outright.
func truncate(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
