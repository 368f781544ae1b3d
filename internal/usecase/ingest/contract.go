package ingest

import (
	"context"

	"github.com/grantstream/patentrag/internal/domain/patent"
	"github.com/grantstream/patentrag/internal/index"
	"github.com/grantstream/patentrag/internal/pipeline"
)

// RecordSource supplies extracted patent records one at a time.
// Next returns io.EOF once the stream is exhausted.
type RecordSource interface {
	Next() (patent.Record, error)
	Stats() pipeline.Stats
}

// Embedder vectorizes a batch of texts, one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer persists embedded records for nearest-neighbor retrieval.
type Indexer interface {
	Ensure(ctx context.Context) error
	Upsert(ctx context.Context, entries []index.Entry) error
}
