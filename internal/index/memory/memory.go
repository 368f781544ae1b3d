// Package memory is a brute-force cosine-similarity index for local
// runs and tests. No persistence, no external services.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
)

// Store keeps all entries in memory and scans them on every query.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]index.Entry
}

var _ index.Store = (*Store)(nil)

// NewStore creates an in-memory index expecting vectors of the given
// dimensionality.
func NewStore(dimensions int) *Store {
	return &Store{
		dimensions: dimensions,
		entries:    make(map[string]index.Entry),
	}
}

// Ensure is a no-op for the in-memory backend.
func (s *Store) Ensure(_ context.Context) error { return nil }

// Upsert stores entries keyed by ID, replacing existing ones.
func (s *Store) Upsert(_ context.Context, entries []index.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) != s.dimensions {
			return fmt.Errorf("entry %s: got %d dimensions, want %d: %w",
				e.ID, len(e.Vector), s.dimensions, domain.ErrVectorDimMismatch)
		}
		s.entries[e.ID] = e
	}
	return nil
}

// Query scans all entries and returns the k most cosine-similar.
func (s *Store) Query(_ context.Context, vector []float32, k int) ([]index.Hit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("got %d dimensions, want %d: %w",
			len(vector), s.dimensions, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]index.Hit, 0, len(s.entries))
	for _, e := range s.entries {
		hits = append(hits, index.Hit{
			ID:         e.ID,
			Score:      cosine(vector, e.Vector),
			Title:      e.Title,
			PatentType: e.PatentType,
			Text:       e.Text,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID // stable order for equal scores
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() {}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
