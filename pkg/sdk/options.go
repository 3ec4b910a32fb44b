package paperdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder  Embedder
	generator Generator

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	chunkSize int
	overlap   int
	maxChunks int
	workers   int

	arxivBaseURL string
	arxivTimeout time.Duration

	queryCacheTTL time.Duration
	embedCacheTTL time.Duration

	maxTokens    int
	contextWords int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding provider.
// Required for ingestion and for vector/hybrid search.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the answer synthesis provider. Required for Ask.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithVectorDimensions sets the embedding dimension. Defaults to 384.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index build parameters.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithChunking overrides the sliding-window chunking parameters.
// Defaults: 500-word windows, 50-word overlap, 50 chunks per paper.
func WithChunking(chunkSize, overlap, maxChunks int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = chunkSize
		c.overlap = overlap
		c.maxChunks = maxChunks
	})
}

// WithWorkers sets the ingestion worker pool size. Default: 4.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithArxiv overrides the metadata source endpoint and request timeout.
func WithArxiv(baseURL string, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.arxivBaseURL = baseURL
		c.arxivTimeout = timeout
	})
}

// WithQueryCacheTTL overrides the cached answer lifetime. Default: 1 hour.
func WithQueryCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryCacheTTL = ttl
	})
}

// WithEmbeddingCacheTTL overrides the embedding cache lifetime. Default: 24 hours.
func WithEmbeddingCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedCacheTTL = ttl
	})
}

// WithGenerationLimits sets the completion token budget and the context word
// budget for prompts. Defaults: 1024 tokens, 3000 words.
func WithGenerationLimits(maxTokens, contextWords int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTokens = maxTokens
		c.contextWords = contextWords
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
