package handler_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/Pallavikumarimdb/VexonAI/internal/ai"
	"github.com/Pallavikumarimdb/VexonAI/internal/github"
	"github.com/Pallavikumarimdb/VexonAI/internal/handler"
	"github.com/Pallavikumarimdb/VexonAI/internal/loader"
	"github.com/Pallavikumarimdb/VexonAI/internal/middleware"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
	"github.com/Pallavikumarimdb/VexonAI/internal/repo"
	"github.com/Pallavikumarimdb/VexonAI/internal/service"
	"github.com/Pallavikumarimdb/VexonAI/test/testutil"
)

// scriptedProvider answers every generation with a canned summary and
// streams a fixed two-chunk answer. Embeddings always point down axis 0 so
// every stored summary matches every question.
type scriptedProvider struct{}

func (scriptedProvider) Name() string { return "scripted" }

func (scriptedProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	return "scripted summary", nil
}

func (scriptedProvider) Embed(ctx context.Context, model, text, taskType string) ([]float32, error) {
	vec := make([]float32, 768)
	vec[0] = 1
	return vec, nil
}

func (scriptedProvider) GenerateStream(ctx context.Context, model, prompt string) (<-chan string, error) {
	out := make(chan string, 2)
	out <- "Hello "
	out <- "world"
	close(out)
	return out, nil
}

// fakeGithub serves the minimal REST surface the pipeline touches: one
// repository with a single Go file and two commits.
func fakeGithub() *httptest.Server {
	const fileContent = "package main\n\nfunc main() {}\n"
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/repos/acme/widgets/git/trees/main"):
			fmt.Fprint(w, `{"tree":[{"path":"main.go","type":"blob","sha":"blob1","size":30}]}`)
		case r.URL.Path == "/repos/acme/widgets/git/blobs/blob1":
			fmt.Fprintf(w, `{"content":%q,"encoding":"base64"}`, base64.StdEncoding.EncodeToString([]byte(fileContent)))
		case r.URL.Path == "/repos/acme/widgets/commits":
			fmt.Fprint(w, `[
				{"sha":"c1","commit":{"message":"fix bug","author":{"name":"Ada","date":"2024-03-02T10:00:00Z"}},"author":{"avatar_url":"https://img/ada"}},
				{"sha":"c2","commit":{"message":"initial","author":{"name":"Bob","date":"2024-03-01T10:00:00Z"}},"author":null}
			]`)
		case strings.HasSuffix(r.URL.Path, ".diff"):
			fmt.Fprint(w, "diff --git a/main.go b/main.go\n+func main() {}\n")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	ghSrv := fakeGithub()

	projectRepo := repo.NewProjectRepo(db)
	embeddingRepo := repo.NewEmbeddingRepo(db)
	commitRepo := repo.NewCommitRepo(db)
	questionRepo := repo.NewQuestionRepo(db)

	manager := ai.NewManager(scriptedProvider{}, ai.ManagerConfig{Model: "m", EmbedModel: "e"})
	limiter := ratelimit.NewWindowLimiter(1000, time.Minute, 0)
	host := ratelimit.NewHostQueue(0)

	ghClient := github.NewClient(github.WithBaseURLs(ghSrv.URL, ghSrv.URL))
	repoLoader := loader.NewRepoLoader(ghClient, host, 100*1024)

	projectService := service.NewProjectService(projectRepo)
	ingestService := service.NewIngestService(repoLoader, manager, limiter, embeddingRepo, service.IngestConfig{})
	commitService := service.NewCommitService(ghClient, host, manager, limiter, projectRepo, commitRepo)
	answerService := service.NewAnswerService(manager, limiter, embeddingRepo, questionRepo)

	deps := handler.RouterDeps{
		Projects:  handler.NewProjectHandler(projectService),
		Ingest:    handler.NewIngestHandler(ingestService, projectService),
		Commits:   handler.NewCommitHandler(commitService),
		Questions: handler.NewQuestionHandler(answerService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, func() {
		host.Close()
		ghSrv.Close()
		cleanup()
	}
}
