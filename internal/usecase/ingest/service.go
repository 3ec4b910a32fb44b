// Package ingest implements the paper ingestion pipeline: fetch metadata,
// store it, chunk, embed, and index. Papers in a batch are processed by a
// bounded worker pool; one paper's failure never aborts the batch.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/paperdex/internal/domain"
	domingest "github.com/kailas-cloud/paperdex/internal/domain/ingest"
	"github.com/kailas-cloud/paperdex/internal/metrics"
)

// DefaultWorkers bounds concurrent per-paper pipelines.
const DefaultWorkers = 4

// Request describes one ingestion batch: either explicit arXiv IDs or a
// category to pull recent papers from.
type Request struct {
	IDs        []string
	Category   string
	MaxResults int
	Force      bool
}

// Report is the outcome of one batch.
type Report struct {
	Statuses            []domingest.Status
	Indexed             int
	Skipped             int
	Failed              int
	ChunksWritten       int
	CacheEntriesDropped int
}

// Stats is the corpus snapshot served by the stats endpoint.
type Stats struct {
	PapersTotal   int
	PapersIndexed int
	ChunksTotal   int
}

// Service runs ingestion batches.
type Service struct {
	fetcher Fetcher
	papers  PaperRepo
	index   ChunkIndex
	chunker Chunker
	embed   Embedder
	cache   Invalidator
	locks   *keyedLocks
	workers int
	logger  *zap.Logger
}

// New creates an ingestion service.
func New(
	fetcher Fetcher,
	papers PaperRepo,
	index ChunkIndex,
	chunker Chunker,
	embed Embedder,
	cache Invalidator,
	logger *zap.Logger,
) *Service {
	return &Service{
		fetcher: fetcher,
		papers:  papers,
		index:   index,
		chunker: chunker,
		embed:   embed,
		cache:   cache,
		locks:   newKeyedLocks(),
		workers: DefaultWorkers,
		logger:  logger,
	}
}

// WithWorkers overrides the worker pool size.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Run executes one ingestion batch. Returns a per-paper status report; the
// error return covers batch-level failures only (bad request, fetch failure).
// When at least one paper was indexed, all cached query results are dropped.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	papers, missing, err := s.fetch(ctx, req)
	if err != nil {
		return Report{}, err
	}

	statuses := make([]domingest.Status, len(papers)+len(missing))
	for i, id := range missing {
		statuses[len(papers)+i] = domingest.NewError(
			id, domingest.StageFetched, fmt.Errorf("%s: %w", id, domain.ErrPaperNotFound))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range papers {
		i := i
		g.Go(func() error {
			statuses[i] = s.ingestOne(gctx, &papers[i], req.Force)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Statuses: statuses}
	for _, st := range statuses {
		switch st.Outcome() {
		case domingest.OutcomeOK:
			report.Indexed++
			report.ChunksWritten += st.Chunks()
		case domingest.OutcomeSkipped:
			report.Skipped++
		case domingest.OutcomeError:
			report.Failed++
		}
		metrics.IngestPapersTotal.WithLabelValues(string(st.Outcome())).Inc()
	}
	metrics.IngestChunksTotal.Add(float64(report.ChunksWritten))

	if report.Indexed > 0 {
		dropped, err := s.cache.InvalidateSearches(ctx)
		if err != nil {
			s.logger.Warn("Query cache invalidation failed", zap.Error(err))
		}
		report.CacheEntriesDropped = dropped
	}

	s.logger.Info("Ingestion batch finished",
		zap.Int("indexed", report.Indexed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("chunks", report.ChunksWritten))

	return report, nil
}

// fetch resolves the batch request to papers. For an ID request, IDs absent
// from the response are reported so each gets a per-paper error status.
func (s *Service) fetch(ctx context.Context, req Request) ([]domain.Paper, []string, error) {
	switch {
	case len(req.IDs) > 0:
		ids := dedupe(req.IDs)
		papers, err := s.fetcher.FetchByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch by ids: %w", err)
		}
		got := make(map[string]bool, len(papers))
		for i := range papers {
			got[papers[i].ArxivID] = true
		}
		var missing []string
		for _, id := range ids {
			if !got[id] {
				missing = append(missing, id)
			}
		}
		return papers, missing, nil

	case req.Category != "":
		papers, err := s.fetcher.FetchByCategory(ctx, req.Category, req.MaxResults)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch by category: %w", err)
		}
		return papers, nil, nil

	default:
		return nil, nil, fmt.Errorf("ids or category required: %w", domain.ErrInvalidArgument)
	}
}

// ingestOne runs the full pipeline for a single paper under its keyed lock.
// Already-indexed papers are skipped unless force is set; a forced or
// unindexed ingest fully replaces the paper's chunk set.
func (s *Service) ingestOne(ctx context.Context, p *domain.Paper, force bool) domingest.Status {
	unlock := s.locks.lock(p.ArxivID)
	defer unlock()

	start := time.Now()
	defer func() {
		metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	if !force {
		existing, err := s.papers.Get(ctx, p.ArxivID)
		if err == nil && existing.Indexed {
			return domingest.NewSkipped(p.ArxivID)
		}
	}

	if err := s.papers.Upsert(ctx, p); err != nil {
		return domingest.NewError(p.ArxivID, domingest.StageFetched, err)
	}

	chunks, err := s.chunker.Split(p.ArxivID, p.FullText(), domain.SectionAbstract)
	if err != nil {
		return domingest.NewError(p.ArxivID, domingest.StageMetadataStored, err)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	embRes, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return domingest.NewError(p.ArxivID, domingest.StageChunked, err)
	}
	if len(embRes.Embeddings) != len(chunks) {
		return domingest.NewError(p.ArxivID, domingest.StageChunked, fmt.Errorf(
			"%d embeddings for %d chunks: %w",
			len(embRes.Embeddings), len(chunks), domain.ErrEmbeddingProvider))
	}
	for i := range chunks {
		chunks[i].Vector = embRes.Embeddings[i]
	}

	if err := s.index.Replace(ctx, p, chunks); err != nil {
		return domingest.NewError(p.ArxivID, domingest.StageEmbedded, err)
	}

	// the indexed flag flips only after the index acknowledged the full set
	if err := s.papers.MarkIndexed(ctx, p.ArxivID, time.Now().UTC()); err != nil {
		return domingest.NewError(p.ArxivID, domingest.StageIndexed, err)
	}

	return domingest.NewOK(p.ArxivID, len(chunks))
}

// Stats reports corpus totals for the stats endpoint.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, indexed, err := s.papers.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("paper stats: %w", err)
	}
	chunks, err := s.index.CountChunks(ctx, "")
	if err != nil {
		return Stats{}, fmt.Errorf("chunk stats: %w", err)
	}
	return Stats{PapersTotal: total, PapersIndexed: indexed, ChunksTotal: chunks}, nil
}

// dedupe drops repeated IDs, preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
