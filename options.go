package patentrag

import (
	"context"
	"time"

	"go.uber.org/zap"

	openaitr "github.com/grantstream/patentrag/internal/transport/openai"
)

// Embedder vectorizes a batch of texts, one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RankedDoc references an input document by its position in the rerank
// request, with the provider relevance score.
type RankedDoc struct {
	Index int
	Score float64
}

// Reranker reorders candidate documents by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]RankedDoc, error)
}

// Summarizer answers the query grounded on the retrieved documents.
type Summarizer interface {
	Summarize(ctx context.Context, query string, docs []string) (string, error)
}

type clientConfig struct {
	driver          string
	addrs           []string
	password        string
	keyPrefix       string
	dimensions      int
	batchSize       int
	excludeDoctype  string
	maxRecords      int
	downloadTimeout time.Duration
	topN            int
	maxDocs         int
	embedder        Embedder
	reranker        Reranker
	summarizer      Summarizer
	logger          *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis stores the index in Redis/Valkey with RediSearch.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = addrs
		c.password = password
	}
}

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithDimensions sets the embedding vector width.
func WithDimensions(d int) Option {
	return func(c *clientConfig) { c.dimensions = d }
}

// WithEmbedder plugs in a custom embedding provider.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithOpenAIEmbedder uses an OpenAI-compatible embedding API.
func WithOpenAIEmbedder(apiKey, baseURL, model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.dimensions = dimensions
		c.embedder = openaitr.NewEmbedder(&openaitr.EmbedderConfig{
			APIKey:     apiKey,
			BaseURL:    baseURL,
			Model:      model,
			Dimensions: dimensions,
		})
	}
}

// WithReranker plugs in a custom rerank provider.
func WithReranker(r Reranker) Option {
	return func(c *clientConfig) { c.reranker = r }
}

// WithOpenAIReranker uses an OpenAI-compatible /rerank API.
func WithOpenAIReranker(apiKey, baseURL, model string) Option {
	return func(c *clientConfig) {
		c.reranker = &rerankerAdapter{inner: openaitr.NewReranker(&openaitr.RerankerConfig{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   model,
		})}
	}
}

// WithSummarizer plugs in a custom answer synthesis provider.
func WithSummarizer(s Summarizer) Option {
	return func(c *clientConfig) { c.summarizer = s }
}

// WithOpenAISummarizer uses an OpenAI-compatible chat completion API.
func WithOpenAISummarizer(apiKey, baseURL, model string) Option {
	return func(c *clientConfig) {
		c.summarizer = openaitr.NewSummarizer(&openaitr.SummarizerConfig{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   model,
		})
	}
}

// WithBatchSize sets records per embedding batch during loading.
func WithBatchSize(n int) Option {
	return func(c *clientConfig) { c.batchSize = n }
}

// WithExcludeDoctype overrides the doctype substring that drops a
// document during loading. Empty disables filtering.
func WithExcludeDoctype(substr string) Option {
	return func(c *clientConfig) { c.excludeDoctype = substr }
}

// WithMaxRecords bounds a load to the first n records.
func WithMaxRecords(n int) Option {
	return func(c *clientConfig) { c.maxRecords = n }
}

// WithDownloadTimeout bounds archive downloads.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.downloadTimeout = d }
}

// WithTopN sets how many results survive reranking.
func WithTopN(n int) Option {
	return func(c *clientConfig) { c.topN = n }
}

// WithMaxDocs sets how many documents are handed to the summarizer.
func WithMaxDocs(n int) Option {
	return func(c *clientConfig) { c.maxDocs = n }
}

// WithLogger attaches a zap logger. Default is no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
