package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/archive"
	"github.com/grantstream/patentrag/internal/config"
	"github.com/grantstream/patentrag/internal/index"
	idxmemory "github.com/grantstream/patentrag/internal/index/memory"
	idxredis "github.com/grantstream/patentrag/internal/index/redis"
	logpkg "github.com/grantstream/patentrag/internal/logger"
	"github.com/grantstream/patentrag/internal/metrics"
	"github.com/grantstream/patentrag/internal/pipeline"
	"github.com/grantstream/patentrag/internal/transport/httpapi"
	openaitr "github.com/grantstream/patentrag/internal/transport/openai"
	ingestuc "github.com/grantstream/patentrag/internal/usecase/ingest"
	queryuc "github.com/grantstream/patentrag/internal/usecase/query"
	"github.com/grantstream/patentrag/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting patentrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()
	metrics.RegisterEmbeddingMetrics()

	store := buildStore(cfg, logger)
	defer store.Close()

	embedder := openaitr.NewEmbedder(&openaitr.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	// Rerank and answer synthesis are optional stages: unset models
	// leave them out of the chain.
	var reranker queryuc.Reranker
	if cfg.Rerank.Model != "" {
		reranker = openaitr.NewReranker(&openaitr.RerankerConfig{
			APIKey:  cfg.Rerank.APIKey,
			BaseURL: cfg.Rerank.BaseURL,
			Model:   cfg.Rerank.Model,
		})
		logger.Info("Reranker enabled", zap.String("model", cfg.Rerank.Model))
	}
	var summarizer queryuc.Summarizer
	if cfg.Chat.Model != "" {
		summarizer = openaitr.NewSummarizer(&openaitr.SummarizerConfig{
			APIKey:  cfg.Chat.APIKey,
			BaseURL: cfg.Chat.BaseURL,
			Model:   cfg.Chat.Model,
		})
		logger.Info("Answer synthesis enabled", zap.String("model", cfg.Chat.Model))
	}

	searchSvc := queryuc.New(embedder, store, reranker, summarizer, queryuc.Config{
		TopN:    cfg.Rerank.TopN,
		MaxDocs: cfg.Chat.MaxDocs,
	}, logger)

	loader := &archiveLoader{cfg: cfg, store: store, embedder: embedder, logger: logger}
	server := httpapi.NewServer(searchSvc, loader, store, logger)
	router := server.Router(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// archiveLoader runs the full archive-to-index load for the ingest
// endpoint, reusing the server's store and embedder.
type archiveLoader struct {
	cfg      config.Config
	store    index.Store
	embedder *openaitr.Embedder
	logger   *zap.Logger
}

func (l *archiveLoader) LoadArchive(ctx context.Context, locator string, maxRecords int) (ingestuc.Report, error) {
	src := archive.New(locator,
		time.Duration(l.cfg.Archive.DownloadTimeout)*time.Second, l.logger)
	lines, err := src.Open(ctx)
	if err != nil {
		return ingestuc.Report{}, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = lines.Close() }()

	pipe := pipeline.New(lines, pipeline.Config{
		ExcludeDoctype: l.cfg.Archive.ExcludeDoctype,
		Logger:         l.logger,
	})
	if maxRecords > 0 {
		pipe.Take(maxRecords)
	}

	svc := ingestuc.New(l.embedder, l.store, l.cfg.Archive.BatchSize, l.logger)
	return svc.Run(ctx, pipe)
}

// buildStore creates the vector index backend selected by the config.
func buildStore(cfg config.Config, logger *zap.Logger) index.Store {
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory vector index")
		return idxmemory.NewStore(cfg.Embedding.Dimensions)
	case "redis":
		store, err := idxredis.NewStore(idxredis.Config{
			Addrs:      cfg.Database.Addrs,
			Password:   cfg.Database.Password,
			KeyPrefix:  cfg.Database.KeyPrefix,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), timeout); err != nil {
			logger.Fatal("Index backend not ready", zap.Error(err))
		}
		logger.Info("Connected to redis index")
		return store
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
		return nil
	}
}
