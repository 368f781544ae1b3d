// patentrag-loader streams a patent grant archive through the
// extraction pipeline and loads the records into the vector index.
package main

import (
	"context"
	"errors"
	"flag"
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
	openaitr "github.com/grantstream/patentrag/internal/transport/openai"
	ingestuc "github.com/grantstream/patentrag/internal/usecase/ingest"
	"github.com/grantstream/patentrag/internal/version"
)

func main() {
	var (
		archiveFlag = flag.String("archive", "", "zip archive URL or path (overrides config)")
		maxRecords  = flag.Int("max-records", -1, "stop after this many records, 0 = none (overrides config)")
		batchSize   = flag.Int("batch-size", 0, "records per embedding batch (overrides config)")
		exclude     = flag.String("exclude-doctype", "", "doctype substring to drop (overrides config)")
		dryRun      = flag.Bool("dry-run", false, "extract and count records without embedding or indexing")
	)
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if *archiveFlag != "" {
		cfg.Archive.Locator = *archiveFlag
	}
	if *maxRecords >= 0 {
		cfg.Archive.MaxRecords = *maxRecords
	}
	if *batchSize > 0 {
		cfg.Archive.BatchSize = *batchSize
	}
	if *exclude != "" {
		cfg.Archive.ExcludeDoctype = *exclude
	}
	if cfg.Archive.Locator == "" {
		logger.Fatal("No archive given: set -archive or archive.locator in config")
	}

	logger.Info("Starting patentrag loader",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("archive", cfg.Archive.Locator),
		zap.Int("max_records", cfg.Archive.MaxRecords),
		zap.Bool("dry_run", *dryRun),
	)

	metrics.RegisterPipelineMetrics()
	metrics.RegisterEmbeddingMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := archive.New(cfg.Archive.Locator,
		time.Duration(cfg.Archive.DownloadTimeout)*time.Second, logger)
	lines, err := src.Open(ctx)
	if err != nil {
		logger.Fatal("Failed to open archive", zap.Error(err))
	}
	defer func() { _ = lines.Close() }()

	pipe := pipeline.New(lines, pipeline.Config{
		ExcludeDoctype: cfg.Archive.ExcludeDoctype,
		Logger:         logger,
	})
	if cfg.Archive.MaxRecords > 0 {
		pipe.Take(cfg.Archive.MaxRecords)
	}

	start := time.Now()
	var stats pipeline.Stats
	if *dryRun {
		_, stats, err = pipe.Collect(ctx)
	} else {
		stats, err = load(ctx, cfg, pipe, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Load failed", zap.Error(err))
	}

	logger.Info("Done",
		zap.Int("records", stats.Records),
		zap.Int("documents_seen", stats.DocumentsSeen),
		zap.Int("documents_excluded", stats.DocumentsExcluded),
		zap.Int("documents_failed", stats.DocumentsFailed),
		zap.Int("candidates", stats.Candidates()),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
}

func load(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline, logger *zap.Logger) (pipeline.Stats, error) {
	store := buildStore(cfg, logger)
	defer store.Close()

	embedder := openaitr.NewEmbedder(&openaitr.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	svc := ingestuc.New(embedder, store, cfg.Archive.BatchSize, logger)
	report, err := svc.Run(ctx, pipe)
	return report.Stats, err
}

// buildStore creates the vector index backend selected by the config.
func buildStore(cfg config.Config, logger *zap.Logger) index.Store {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory vector index: loaded records are lost on exit")
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
