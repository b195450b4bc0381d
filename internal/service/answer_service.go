package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Pallavikumarimdb/VexonAI/internal/model"
	appErr "github.com/Pallavikumarimdb/VexonAI/internal/pkg/errors"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
)

const (
	similarityFloor = 0.5
	maxContextRows  = 10
)

type answerGenerator interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	StreamAnswer(ctx context.Context, contextBlock, question string) (<-chan string, error)
}

type similaritySearcher interface {
	QuerySimilar(ctx context.Context, projectID string, queryVector []float32, threshold float64, limit int) ([]model.FileReference, error)
}

type questionStore interface {
	Insert(ctx context.Context, question *model.Question) error
	Get(ctx context.Context, questionID string) (*model.Question, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Question, error)
}

// AnswerService embeds an incoming question, retrieves the most similar
// stored summaries and drives one streaming generation over them.
type AnswerService struct {
	ai         answerGenerator
	limiter    *ratelimit.WindowLimiter
	embeddings similaritySearcher
	questions  questionStore
	queryCache *expirable.LRU[string, []float32]
}

func NewAnswerService(ai answerGenerator, limiter *ratelimit.WindowLimiter, embeddings similaritySearcher, questions questionStore) *AnswerService {
	cache := expirable.NewLRU[string, []float32](2048, nil, 2*time.Hour)
	return &AnswerService{
		ai:         ai,
		limiter:    limiter,
		embeddings: embeddings,
		questions:  questions,
		queryCache: cache,
	}
}

// Ask returns the answer chunk stream and the ranked references backing it.
// The caller consumes the stream; persisting the settled answer is a
// separate Save call.
func (s *AnswerService) Ask(ctx context.Context, projectID, question string) (<-chan string, []model.FileReference, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID))

	queryVector, err := s.embedQuestion(ctx, question)
	if err != nil {
		logger.Error("question embedding failed", zap.Error(err))
		return nil, nil, err
	}

	refs, err := s.embeddings.QuerySimilar(ctx, projectID, queryVector, similarityFloor, maxContextRows)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("context retrieved", zap.Int("references", len(refs)))

	var contextBlock strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&contextBlock, "source: %s\ncode content: %s\nsummary of file: %s\n\n", ref.FileName, ref.SourceCode, ref.Summary)
	}

	stream, err := s.ai.StreamAnswer(ctx, contextBlock.String(), question)
	if err != nil {
		return nil, nil, err
	}
	return stream, refs, nil
}

func (s *AnswerService) Save(ctx context.Context, projectID, userID, question, answer string, refs []model.FileReference) (*model.Question, error) {
	if strings.TrimSpace(question) == "" {
		return nil, appErr.ErrInvalid
	}
	record := &model.Question{
		ID:             newID(),
		ProjectID:      projectID,
		UserID:         userID,
		Question:       question,
		Answer:         answer,
		FileReferences: refs,
		Ctime:          time.Now().UnixMilli(),
	}
	if err := s.questions.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *AnswerService) Get(ctx context.Context, questionID string) (*model.Question, error) {
	return s.questions.Get(ctx, questionID)
}

func (s *AnswerService) List(ctx context.Context, projectID string) ([]model.Question, error) {
	return s.questions.ListByProject(ctx, projectID)
}

func (s *AnswerService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	key := cacheKey(question)
	if vector, ok := s.queryCache.Get(key); ok {
		return vector, nil
	}
	var vector []float32
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		vector, err = s.ai.Embed(ctx, question, "RETRIEVAL_QUERY")
		return err
	})
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(key, vector)
	return vector, nil
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
