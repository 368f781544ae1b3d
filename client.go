// Package patentrag is the embedded entry point: load a patent grant
// archive into a vector index and search it, all in-process.
package patentrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/archive"
	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
	idxmemory "github.com/grantstream/patentrag/internal/index/memory"
	idxredis "github.com/grantstream/patentrag/internal/index/redis"
	"github.com/grantstream/patentrag/internal/pipeline"
	ingestuc "github.com/grantstream/patentrag/internal/usecase/ingest"
	queryuc "github.com/grantstream/patentrag/internal/usecase/query"
)

const (
	defaultDimensions       = 1536
	defaultExcludeDoctype   = "sequence-cwu"
	defaultDownloadTimeout  = 30 * time.Minute
	defaultReadinessTimeout = 10 * time.Second
)

// Report summarizes one archive load.
type Report struct {
	Indexed           int // records embedded and upserted
	Batches           int // embed+upsert round trips
	DocumentsSeen     int
	DocumentsExcluded int
	DocumentsFailed   int
}

// Hit is one retrieved patent, best first.
type Hit struct {
	ID         string
	Score      float64
	Title      string
	PatentType string
	Text       string
}

// Answer is a search result with a synthesized answer.
type Answer struct {
	Hits    []Hit
	Summary string
}

// Client is the patentrag SDK entry point.
type Client struct {
	store  index.Store
	ingest *ingestuc.Service
	search *queryuc.Service
	cfg    *clientConfig
}

// New creates a Client. Default is an in-memory index; loading and
// semantic search require an embedder (WithEmbedder or
// WithOpenAIEmbedder).
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:          "memory",
		dimensions:      defaultDimensions,
		excludeDoctype:  defaultExcludeDoctype,
		downloadTimeout: defaultDownloadTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	var embedder Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		embedder = cfg.embedder
	}

	var reranker queryuc.Reranker
	if cfg.reranker != nil {
		reranker = &rerankerBridge{inner: cfg.reranker}
	}
	var summarizer queryuc.Summarizer
	if cfg.summarizer != nil {
		summarizer = cfg.summarizer
	}

	return &Client{
		store:  store,
		ingest: ingestuc.New(embedder, store, cfg.batchSize, cfg.logger),
		search: queryuc.New(embedder, store, reranker, summarizer, queryuc.Config{
			TopN:    cfg.topN,
			MaxDocs: cfg.maxDocs,
		}, cfg.logger),
		cfg: cfg,
	}, nil
}

func createStore(cfg *clientConfig) (index.Store, error) {
	switch cfg.driver {
	case "memory":
		return idxmemory.NewStore(cfg.dimensions), nil
	case "redis":
		if len(cfg.addrs) == 0 {
			return nil, errors.New("patentrag: redis address required")
		}
		store, err := idxredis.NewStore(idxredis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			KeyPrefix:  cfg.keyPrefix,
			Dimensions: cfg.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("patentrag: create redis store: %w", err)
		}
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("patentrag: index backend not ready: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("patentrag: unknown driver %q", cfg.driver)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// LoadArchive streams the grant archive at locator (zip URL or local
// path) through the extraction pipeline into the index.
func (c *Client) LoadArchive(ctx context.Context, locator string) (Report, error) {
	src := archive.New(locator, c.cfg.downloadTimeout, c.cfg.logger)
	lines, err := src.Open(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = lines.Close() }()

	pipe := pipeline.New(lines, pipeline.Config{
		ExcludeDoctype: c.cfg.excludeDoctype,
		Logger:         c.cfg.logger,
	})
	if c.cfg.maxRecords > 0 {
		pipe.Take(c.cfg.maxRecords)
	}

	report, err := c.ingest.Run(ctx, pipe)
	return Report{
		Indexed:           report.Indexed,
		Batches:           report.Batches,
		DocumentsSeen:     report.Stats.DocumentsSeen,
		DocumentsExcluded: report.Stats.DocumentsExcluded,
		DocumentsFailed:   report.Stats.DocumentsFailed,
	}, err
}

// Search retrieves the topK patents most relevant to query.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	answer, err := c.search.Search(ctx, query, topK, false)
	if err != nil {
		return nil, err
	}
	return hitsFromIndex(answer.Hits), nil
}

// Ask retrieves relevant patents and synthesizes an answer over them.
// Requires a summarizer (WithSummarizer or WithOpenAISummarizer).
func (c *Client) Ask(ctx context.Context, query string, topK int) (Answer, error) {
	if c.cfg.summarizer == nil {
		return Answer{}, errors.New("patentrag: summarizer not configured (use WithOpenAISummarizer)")
	}
	answer, err := c.search.Search(ctx, query, topK, true)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Hits: hitsFromIndex(answer.Hits), Summary: answer.Summary}, nil
}

// Count returns the number of indexed records.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}

func hitsFromIndex(in []index.Hit) []Hit {
	hits := make([]Hit, len(in))
	for i, h := range in {
		hits[i] = Hit{
			ID:         h.ID,
			Score:      h.Score,
			Title:      h.Title,
			PatentType: h.PatentType,
			Text:       h.Text,
		}
	}
	return hits
}

// rerankerBridge adapts the public Reranker to the query service contract.
type rerankerBridge struct {
	inner Reranker
}

func (b *rerankerBridge) Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankedDoc, error) {
	ranked, err := b.inner.Rerank(ctx, query, docs, topN)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RerankedDoc, len(ranked))
	for i, r := range ranked {
		out[i] = domain.RerankedDoc{Index: r.Index, Score: r.Score}
	}
	return out, nil
}

// rerankerAdapter exposes the OpenAI-compatible transport through the
// public Reranker interface.
type rerankerAdapter struct {
	inner interface {
		Rerank(ctx context.Context, query string, docs []string, topN int) ([]domain.RerankedDoc, error)
	}
}

func (a *rerankerAdapter) Rerank(ctx context.Context, query string, docs []string, topN int) ([]RankedDoc, error) {
	ranked, err := a.inner.Rerank(ctx, query, docs, topN)
	if err != nil {
		return nil, err
	}
	out := make([]RankedDoc, len(ranked))
	for i, r := range ranked {
		out[i] = RankedDoc{Index: r.Index, Score: r.Score}
	}
	return out, nil
}

// noopEmbedder errors on use (no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("patentrag: embedder not configured (use WithOpenAIEmbedder)")
}
