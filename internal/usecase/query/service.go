// Package query answers search requests: embed the query, retrieve
// nearest patents, optionally rerank, optionally synthesize an answer.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
)

const (
	defaultTopK    = 20
	defaultTopN    = 5
	defaultMaxDocs = 5
)

// Config bounds retrieval depth per stage.
type Config struct {
	TopK    int // candidates pulled from the index
	TopN    int // survivors after reranking
	MaxDocs int // documents handed to the summarizer
}

// Answer is one resolved search request. Summary is empty when answer
// synthesis was not requested or no summarizer is configured.
type Answer struct {
	Hits    []index.Hit
	Summary string
}

// Service resolves search requests. Reranker and Summarizer are
// optional; a nil stage is skipped.
type Service struct {
	embed     Embedder
	idx       Searcher
	rerank    Reranker
	summarize Summarizer
	topK      int
	topN      int
	maxDocs   int
	logger    *zap.Logger
}

// New creates a query service.
func New(embed Embedder, idx Searcher, rerank Reranker, summarize Summarizer, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.MaxDocs <= 0 {
		cfg.MaxDocs = defaultMaxDocs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:     embed,
		idx:       idx,
		rerank:    rerank,
		summarize: summarize,
		topK:      cfg.TopK,
		topN:      cfg.TopN,
		maxDocs:   cfg.MaxDocs,
		logger:    logger,
	}
}

// Search retrieves patents relevant to query. topK <= 0 uses the
// configured default. withAnswer asks for a synthesized answer over
// the top hits.
func (s *Service) Search(ctx context.Context, query string, topK int, withAnswer bool) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{}, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.topK
	}

	vectors, err := s.embed.Embed(ctx, []string{query})
	if err != nil {
		return Answer{}, fmt.Errorf("vectorize query: %w", err)
	}
	if len(vectors) != 1 {
		return Answer{}, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	hits, err := s.idx.Query(ctx, vectors[0], topK)
	if err != nil {
		return Answer{}, fmt.Errorf("index query: %w", err)
	}
	if len(hits) == 0 {
		return Answer{}, nil
	}

	if s.rerank != nil {
		hits, err = s.rerankHits(ctx, query, hits)
		if err != nil {
			return Answer{}, err
		}
	}

	answer := Answer{Hits: hits}
	if withAnswer && s.summarize != nil {
		answer.Summary, err = s.summarizeHits(ctx, query, hits)
		if err != nil {
			return Answer{}, err
		}
	}
	return answer, nil
}

// rerankHits reorders hits by provider relevance and keeps the best
// topN. Rerank scores replace the index similarity scores.
func (s *Service) rerankHits(ctx context.Context, query string, hits []index.Hit) ([]index.Hit, error) {
	docs := make([]string, len(hits))
	for i, hit := range hits {
		docs[i] = hit.Text
	}

	ranked, err := s.rerank.Rerank(ctx, query, docs, s.topN)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	reordered := make([]index.Hit, 0, len(ranked))
	for _, r := range ranked {
		hit := hits[r.Index]
		hit.Score = r.Score
		reordered = append(reordered, hit)
	}
	return reordered, nil
}

func (s *Service) summarizeHits(ctx context.Context, query string, hits []index.Hit) (string, error) {
	n := len(hits)
	if n > s.maxDocs {
		n = s.maxDocs
	}
	docs := make([]string, n)
	for i := 0; i < n; i++ {
		docs[i] = fmt.Sprintf("Patent %s: %s", hits[i].ID, hits[i].Text)
	}

	summary, err := s.summarize.Summarize(ctx, query, docs)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}
