package query

import (
	"context"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
)

// Embedder vectorizes a batch of texts, one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher runs nearest-neighbor retrieval against the vector index.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]index.Hit, error)
}

// Reranker reorders candidate documents by relevance to the query.
// Results reference input documents by index, most relevant first.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankedDoc, error)
}

// Summarizer answers the query grounded on the retrieved documents.
type Summarizer interface {
	Summarize(ctx context.Context, query string, docs []string) (string, error)
}
