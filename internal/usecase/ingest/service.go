// Package ingest drains the extraction pipeline into the vector index:
// records are embedded in batches and upserted with their payload.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/domain/patent"
	"github.com/grantstream/patentrag/internal/index"
	"github.com/grantstream/patentrag/internal/metrics"
	"github.com/grantstream/patentrag/internal/pipeline"
)

const defaultBatchSize = 64

// Report summarizes one ingest run.
type Report struct {
	Indexed int // records embedded and upserted
	Batches int // embed+upsert round trips
	Stats   pipeline.Stats
}

// Service embeds and indexes extracted records.
type Service struct {
	embed     Embedder
	idx       Indexer
	batchSize int
	logger    *zap.Logger
}

// New creates an ingest service. batchSize <= 0 falls back to the default.
func New(embed Embedder, idx Indexer, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, idx: idx, batchSize: batchSize, logger: logger}
}

// Run drains src into the index. The source stays lazy: at most one
// batch of records is held in memory. A partial report is returned
// alongside any error.
func (s *Service) Run(ctx context.Context, src RecordSource) (Report, error) {
	var report Report

	if err := s.idx.Ensure(ctx); err != nil {
		return report, fmt.Errorf("ensure index: %w", err)
	}

	batch := make([]patent.Record, 0, s.batchSize)
	for {
		if err := ctx.Err(); err != nil {
			report.Stats = src.Stats()
			return report, fmt.Errorf("ingest: %w", err)
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Stats = src.Stats()
			return report, fmt.Errorf("read record: %w", err)
		}

		batch = append(batch, rec)
		if len(batch) >= s.batchSize {
			if err := s.flush(ctx, batch, &report); err != nil {
				report.Stats = src.Stats()
				return report, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.flush(ctx, batch, &report); err != nil {
			report.Stats = src.Stats()
			return report, err
		}
	}

	report.Stats = src.Stats()
	s.logger.Info("ingest finished",
		zap.Int("indexed", report.Indexed),
		zap.Int("batches", report.Batches),
		zap.Int("documents_seen", report.Stats.DocumentsSeen),
		zap.Int("documents_excluded", report.Stats.DocumentsExcluded),
		zap.Int("documents_failed", report.Stats.DocumentsFailed),
	)
	return report, nil
}

func (s *Service) flush(ctx context.Context, batch []patent.Record, report *Report) error {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.DerivedText()
	}

	vectors, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(batch))
	}

	entries := make([]index.Entry, len(batch))
	for i, rec := range batch {
		entries[i] = index.Entry{
			ID:         rec.ID(),
			Vector:     vectors[i],
			Title:      rec.Title(),
			PatentType: rec.PatentType(),
			Text:       rec.DerivedText(),
		}
	}

	if err := s.idx.Upsert(ctx, entries); err != nil {
		metrics.IndexUpsertsTotal.WithLabelValues("error").Add(float64(len(entries)))
		return fmt.Errorf("upsert batch: %w", err)
	}
	metrics.IndexUpsertsTotal.WithLabelValues("success").Add(float64(len(entries)))

	report.Indexed += len(entries)
	report.Batches++
	s.logger.Debug("batch indexed",
		zap.Int("size", len(entries)),
		zap.Int("total", report.Indexed),
	)
	return nil
}
