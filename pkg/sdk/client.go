package paperdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/cache"
	"github.com/kailas-cloud/paperdex/internal/chunker"
	"github.com/kailas-cloud/paperdex/internal/db"
	dbRedis "github.com/kailas-cloud/paperdex/internal/db/redis"
	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/metrics"
	chunkindexrepo "github.com/kailas-cloud/paperdex/internal/repository/chunkindex"
	"github.com/kailas-cloud/paperdex/internal/repository/embcache"
	paperrepo "github.com/kailas-cloud/paperdex/internal/repository/paper"
	"github.com/kailas-cloud/paperdex/internal/transport/arxiv"
	answeruc "github.com/kailas-cloud/paperdex/internal/usecase/answer"
	ingestuc "github.com/kailas-cloud/paperdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/paperdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Default chunking parameters, matching the API server defaults.
const (
	defaultChunkSize  = 500
	defaultOverlap    = 50
	defaultMaxChunks  = 50
	defaultDimensions = 384
)

// Internal use case contracts, substitutable in tests.
type searchUseCase interface {
	Search(ctx context.Context, req searchuc.Request) (searchuc.Response, error)
}

type answerUseCase interface {
	Ask(ctx context.Context, question string, topK int) (domain.AnswerRecord, error)
}

type ingestUseCase interface {
	Run(ctx context.Context, req ingestuc.Request) (ingestuc.Report, error)
	Stats(ctx context.Context) (ingestuc.Stats, error)
}

// Client is the paperdex SDK entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	answerSvc answerUseCase
	ingestSvc ingestUseCase
	obs       *observer
}

// New creates a paperdex Client, connects to the database and bootstraps the
// chunk index. The provided context covers the readiness check and the index
// bootstrap.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultDimensions,
		chunkSize:        defaultChunkSize,
		overlap:          defaultOverlap,
		maxChunks:        defaultMaxChunks,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("paperdex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("paperdex: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("paperdex: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	nop := zap.NewNop()

	chunks := chunkindexrepo.New(store, cfg.vectorDimensions)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		chunks = chunks.WithHNSW(chunkindexrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	if err := chunks.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("paperdex: bootstrap chunk index: %w", err)
	}
	papers := paperrepo.New(store)

	var embedder domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		cached := embcache.New(
			&embedderAdapter{inner: cfg.embedder},
			store, metrics.EmbeddingCacheTotal, nop,
		)
		if cfg.embedCacheTTL > 0 {
			cached = cached.WithTTL(cfg.embedCacheTTL)
		}
		embedder = cached
	}

	var generator domain.Generator = noopGenerator{}
	if cfg.generator != nil {
		generator = &generatorAdapter{inner: cfg.generator}
	}

	gate := cache.NewGate(store, metrics.QueryCacheTotal, nop)
	if cfg.queryCacheTTL > 0 {
		gate = gate.WithTTL(cfg.queryCacheTTL)
	}

	splitter, err := chunker.New(cfg.chunkSize, cfg.overlap, cfg.maxChunks)
	if err != nil {
		return nil, fmt.Errorf("paperdex: chunking parameters: %w", err)
	}

	fetcher := arxiv.New(&arxiv.Config{
		BaseURL: cfg.arxivBaseURL,
		Timeout: cfg.arxivTimeout,
		Logger:  nop,
	})

	searchSvc := searchuc.New(chunks, embedder).WithGate(gate)
	answerSvc := answeruc.New(searchSvc, generator, gate, nop)
	if cfg.maxTokens > 0 || cfg.contextWords > 0 {
		answerSvc = answerSvc.WithLimits(cfg.maxTokens, cfg.contextWords)
	}
	ingestSvc := ingestuc.New(fetcher, papers, chunks, splitter, embedder, gate, nop)
	if cfg.workers > 0 {
		ingestSvc = ingestSvc.WithWorkers(cfg.workers)
	}

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		answerSvc: answerSvc,
		ingestSvc: ingestSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, CompletionRequest{
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return domain.CompletionResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
	}, nil
}

// noopEmbedder errors on use (no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchEmbeddingResult{}, fmt.Errorf(
		"paperdex: embedder not configured (use WithEmbedder): %w", domain.ErrEmbeddingProvider)
}

// noopGenerator errors on use (no generator configured).
type noopGenerator struct{}

func (noopGenerator) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	return domain.CompletionResult{}, fmt.Errorf(
		"paperdex: generator not configured (use WithGenerator): %w", domain.ErrGenerationFailed)
}
