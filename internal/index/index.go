// Package index defines the nearest-neighbor index contract consumed
// by the ingest and query services. Backends live in subpackages.
package index

import "context"

// Entry is one indexed patent record with its embedding.
type Entry struct {
	ID         string
	Vector     []float32
	Title      string
	PatentType string
	Text       string // derived text handed back to rerank/summarize
}

// Hit is one nearest-neighbor match, best first.
type Hit struct {
	ID         string
	Score      float64
	Title      string
	PatentType string
	Text       string
}

// Store builds and queries a vector index.
type Store interface {
	// Ensure creates the index if it does not exist yet.
	Ensure(ctx context.Context) error
	// Upsert writes entries with their vectors.
	Upsert(ctx context.Context, entries []Entry) error
	// Query returns up to k nearest entries for the vector.
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)
	// Count returns the number of indexed entries.
	Count(ctx context.Context) (int, error)
	// Close releases backend resources.
	Close()
}
