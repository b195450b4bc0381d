package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/Pallavikumarimdb/VexonAI/internal/ai"
	"github.com/Pallavikumarimdb/VexonAI/internal/config"
	"github.com/Pallavikumarimdb/VexonAI/internal/db"
	"github.com/Pallavikumarimdb/VexonAI/internal/github"
	"github.com/Pallavikumarimdb/VexonAI/internal/handler"
	"github.com/Pallavikumarimdb/VexonAI/internal/job"
	"github.com/Pallavikumarimdb/VexonAI/internal/loader"
	"github.com/Pallavikumarimdb/VexonAI/internal/middleware"
	"github.com/Pallavikumarimdb/VexonAI/internal/ratelimit"
	"github.com/Pallavikumarimdb/VexonAI/internal/repo"
	"github.com/Pallavikumarimdb/VexonAI/internal/schedule"
	"github.com/Pallavikumarimdb/VexonAI/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "vexonai",
		Short: "vexonai backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run vexonai server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	projectRepo := repo.NewProjectRepo(conn)
	embeddingRepo := repo.NewEmbeddingRepo(conn)
	commitRepo := repo.NewCommitRepo(conn)
	questionRepo := repo.NewQuestionRepo(conn)

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = map[string]interface{}{}
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	manager := ai.NewManager(provider, ai.ManagerConfig{
		Model:      cfg.AI.Model,
		EmbedModel: cfg.AI.EmbedModel,
		Timeout:    cfg.AI.TimeoutSec,
	})

	limiter := ratelimit.NewWindowLimiter(
		cfg.AI.MaxCalls,
		time.Duration(cfg.AI.WindowSec)*time.Second,
		time.Duration(cfg.AI.CooldownMS)*time.Millisecond,
	)
	hostQueue := ratelimit.NewHostQueue(time.Duration(cfg.Ingest.HostDelayMS) * time.Millisecond)
	defer hostQueue.Close()

	ghClient := github.NewClient()
	repoLoader := loader.NewRepoLoader(ghClient, hostQueue, cfg.Ingest.MaxFileSize)

	projectService := service.NewProjectService(projectRepo)
	ingestService := service.NewIngestService(repoLoader, manager, limiter, embeddingRepo, service.IngestConfig{
		MaxChunkChars: cfg.Ingest.MaxChunkChars,
		MaxRetries:    cfg.Ingest.MaxRetries,
		HostDelay:     time.Duration(cfg.Ingest.HostDelayMS) * time.Millisecond,
	})
	commitService := service.NewCommitService(ghClient, hostQueue, manager, limiter, projectRepo, commitRepo)
	answerService := service.NewAnswerService(manager, limiter, embeddingRepo, questionRepo)

	deps := handler.RouterDeps{
		Projects:  handler.NewProjectHandler(projectService),
		Ingest:    handler.NewIngestHandler(ingestService, projectService),
		Commits:   handler.NewCommitHandler(commitService),
		Questions: handler.NewQuestionHandler(answerService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.CommitSync.Enabled {
		if err := scheduler.AddJob(job.NewCommitSyncJob(commitService), cfg.CommitSync.Spec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
