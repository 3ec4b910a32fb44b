package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/chunker"
	"github.com/kailas-cloud/paperdex/internal/domain"
	domingest "github.com/kailas-cloud/paperdex/internal/domain/ingest"
	"github.com/kailas-cloud/paperdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type fakeFetcher struct {
	papers  map[string]domain.Paper
	byCat   []domain.Paper
	err     error
	idCalls int
}

func (f *fakeFetcher) FetchByIDs(_ context.Context, ids []string) ([]domain.Paper, error) {
	f.idCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Paper
	for _, id := range ids {
		if p, ok := f.papers[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeFetcher) FetchByCategory(_ context.Context, _ string, maxResults int) ([]domain.Paper, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.byCat) > maxResults {
		return f.byCat[:maxResults], nil
	}
	return f.byCat, nil
}

type fakePapers struct {
	mu        sync.Mutex
	stored    map[string]domain.Paper
	upsertErr error
	markErr   error
}

func newFakePapers() *fakePapers {
	return &fakePapers{stored: map[string]domain.Paper{}}
}

func (f *fakePapers) Upsert(_ context.Context, p *domain.Paper) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[p.ArxivID] = *p
	return nil
}

func (f *fakePapers) Get(_ context.Context, arxivID string) (domain.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.stored[arxivID]
	if !ok {
		return domain.Paper{}, domain.ErrPaperNotFound
	}
	return p, nil
}

func (f *fakePapers) MarkIndexed(_ context.Context, arxivID string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.stored[arxivID]
	p.Indexed = true
	p.IndexedAt = at
	f.stored[arxivID] = p
	return nil
}

func (f *fakePapers) Stats(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, indexed := 0, 0
	for _, p := range f.stored {
		total++
		if p.Indexed {
			indexed++
		}
	}
	return total, indexed, nil
}

type fakeIndex struct {
	mu         sync.Mutex
	chunks     map[string][]domain.Chunk
	replaceErr error
	replaces   int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{chunks: map[string][]domain.Chunk{}}
}

func (f *fakeIndex) Replace(_ context.Context, p *domain.Paper, chunks []domain.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaces++
	f.chunks[p.ArxivID] = chunks
	return nil
}

func (f *fakeIndex) CountChunks(_ context.Context, arxivID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if arxivID != "" {
		return len(f.chunks[arxivID]), nil
	}
	n := 0
	for _, c := range f.chunks {
		n += len(c)
	}
	return n, nil
}

type fakeBatchEmbedder struct {
	mu       sync.Mutex
	calls    int
	err      error
	dim      int
	honorCtx bool
}

func (f *fakeBatchEmbedder) Embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.honorCtx {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
	}
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, f.dim)
		out[i][0] = 1
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
	n     int
}

func (f *fakeInvalidator) InvalidateSearches(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.n, nil
}

func paper(id string, words int) domain.Paper {
	return domain.Paper{
		ArxivID:    id,
		Title:      "Paper " + id,
		Abstract:   strings.TrimSpace(strings.Repeat("word ", words)),
		Categories: []string{"cs.CL"},
	}
}

func newService(f *fakeFetcher, papers *fakePapers, idx *fakeIndex, inv *fakeInvalidator) *Service {
	ch, _ := chunker.New(0, 0, 0)
	return New(f, papers, idx, ch, &fakeBatchEmbedder{dim: 4}, inv, zap.NewNop())
}

func TestRun_FullPipeline(t *testing.T) {
	// title (2 words) + 1200-word abstract: 1202 words -> chunks of 500
	// with 50-word overlap -> windows starting at 0, 450, 900 -> 3 chunks
	fetcher := &fakeFetcher{papers: map[string]domain.Paper{
		"X001": paper("X001", 1200),
	}}
	papers := newFakePapers()
	idx := newFakeIndex()
	inv := &fakeInvalidator{n: 7}
	svc := newService(fetcher, papers, idx, inv)

	report, err := svc.Run(context.Background(), Request{IDs: []string{"X001"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Indexed != 1 || report.Failed != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.ChunksWritten != 3 {
		t.Errorf("expected 3 chunks, got %d", report.ChunksWritten)
	}

	st := report.Statuses[0]
	if st.Outcome() != domingest.OutcomeOK || st.Stage() != domingest.StageIndexed {
		t.Errorf("unexpected status %v/%v", st.Outcome(), st.Stage())
	}

	stored, err := papers.Get(context.Background(), "X001")
	if err != nil {
		t.Fatalf("paper not stored: %v", err)
	}
	if !stored.Indexed || stored.IndexedAt.IsZero() {
		t.Error("indexed flag must be set after index ack")
	}

	chunks := idx.chunks["X001"]
	if len(chunks) != 3 {
		t.Fatalf("expected 3 indexed chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if len(c.Vector) != 4 {
			t.Errorf("chunk %d missing vector", i)
		}
	}

	if inv.calls != 1 {
		t.Errorf("query cache must be invalidated once, got %d calls", inv.calls)
	}
	if report.CacheEntriesDropped != 7 {
		t.Errorf("expected 7 dropped entries, got %d", report.CacheEntriesDropped)
	}
}

func TestRun_SkipsIndexedUnlessForced(t *testing.T) {
	fetcher := &fakeFetcher{papers: map[string]domain.Paper{
		"X001": paper("X001", 100),
	}}
	papers := newFakePapers()
	idx := newFakeIndex()
	inv := &fakeInvalidator{}
	svc := newService(fetcher, papers, idx, inv)

	if _, err := svc.Run(context.Background(), Request{IDs: []string{"X001"}}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := svc.Run(context.Background(), Request{IDs: []string{"X001"}})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Skipped != 1 || report.Indexed != 0 {
		t.Fatalf("re-ingest must skip indexed papers: %+v", report)
	}
	if idx.replaces != 1 {
		t.Errorf("skipped paper must not rewrite chunks: %d replaces", idx.replaces)
	}
	if inv.calls != 1 {
		t.Errorf("skip-only batch must not invalidate the cache: %d calls", inv.calls)
	}

	forced, err := svc.Run(context.Background(), Request{IDs: []string{"X001"}, Force: true})
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if forced.Indexed != 1 {
		t.Fatalf("force must re-index: %+v", forced)
	}
	if idx.replaces != 2 {
		t.Errorf("force must replace chunks: %d replaces", idx.replaces)
	}
}

func TestRun_MissingIDReportedPerPaper(t *testing.T) {
	fetcher := &fakeFetcher{papers: map[string]domain.Paper{
		"X001": paper("X001", 100),
	}}
	svc := newService(fetcher, newFakePapers(), newFakeIndex(), &fakeInvalidator{})

	report, err := svc.Run(context.Background(), Request{IDs: []string{"X001", "GONE"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Indexed != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	var errStatus *domingest.Status
	for i := range report.Statuses {
		if report.Statuses[i].Outcome() == domingest.OutcomeError {
			errStatus = &report.Statuses[i]
		}
	}
	if errStatus == nil {
		t.Fatal("missing ID must produce an error status")
	}
	if errStatus.ArxivID() != "GONE" || !errors.Is(errStatus.Err(), domain.ErrPaperNotFound) {
		t.Errorf("unexpected error status: %s %v", errStatus.ArxivID(), errStatus.Err())
	}
}

func TestRun_EmbedFailureIsolatedPerPaper(t *testing.T) {
	fetcher := &fakeFetcher{papers: map[string]domain.Paper{
		"X001": paper("X001", 100),
	}}
	papers := newFakePapers()
	idx := newFakeIndex()
	inv := &fakeInvalidator{}
	ch, _ := chunker.New(0, 0, 0)
	svc := New(fetcher, papers, idx, ch,
		&fakeBatchEmbedder{dim: 4, err: domain.ErrEmbeddingProvider}, inv, zap.NewNop())

	report, err := svc.Run(context.Background(), Request{IDs: []string{"X001"}})
	if err != nil {
		t.Fatalf("batch must not fail for one paper: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	st := report.Statuses[0]
	if st.Stage() != domingest.StageChunked {
		t.Errorf("embed failure must record chunked as last stage, got %v", st.Stage())
	}
	if !errors.Is(st.Err(), domain.ErrEmbeddingProvider) {
		t.Errorf("unexpected error %v", st.Err())
	}
	if inv.calls != 0 {
		t.Error("failed batch must not invalidate the cache")
	}

	// metadata survives even though indexing failed
	p, err := papers.Get(context.Background(), "X001")
	if err != nil || p.Indexed {
		t.Errorf("metadata should be stored unindexed: %+v err=%v", p, err)
	}
}

func TestRun_CategoryFetch(t *testing.T) {
	fetcher := &fakeFetcher{byCat: []domain.Paper{
		paper("C001", 50), paper("C002", 50), paper("C003", 50),
	}}
	svc := newService(fetcher, newFakePapers(), newFakeIndex(), &fakeInvalidator{})

	report, err := svc.Run(context.Background(), Request{Category: "cs.CL", MaxResults: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Indexed != 2 {
		t.Fatalf("expected 2 indexed, got %+v", report)
	}
}

func TestRun_Validation(t *testing.T) {
	svc := newService(&fakeFetcher{}, newFakePapers(), newFakeIndex(), &fakeInvalidator{})
	if _, err := svc.Run(context.Background(), Request{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRun_DedupesRequestIDs(t *testing.T) {
	fetcher := &fakeFetcher{papers: map[string]domain.Paper{
		"X001": paper("X001", 100),
	}}
	idx := newFakeIndex()
	svc := newService(fetcher, newFakePapers(), idx, &fakeInvalidator{})

	report, err := svc.Run(context.Background(), Request{IDs: []string{"X001", "X001", "X001"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Statuses) != 1 {
		t.Fatalf("duplicates must collapse to one status, got %d", len(report.Statuses))
	}
	if idx.replaces != 1 {
		t.Errorf("duplicate IDs must index once, got %d replaces", idx.replaces)
	}
}

func TestRun_ConcurrentBatchBounded(t *testing.T) {
	papers := map[string]domain.Paper{}
	var ids []string
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("P%03d", i)
		papers[id] = paper(id, 60)
		ids = append(ids, id)
	}
	fetcher := &fakeFetcher{papers: papers}
	idx := newFakeIndex()
	svc := newService(fetcher, newFakePapers(), idx, &fakeInvalidator{}).WithWorkers(3)

	report, err := svc.Run(context.Background(), Request{IDs: ids})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Indexed != 20 {
		t.Fatalf("expected 20 indexed, got %+v", report)
	}
}

func TestRun_CancelledBatchReportsEveryPaper(t *testing.T) {
	papers := map[string]domain.Paper{}
	var ids []string
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("P%03d", i)
		papers[id] = paper(id, 60)
		ids = append(ids, id)
	}
	fetcher := &fakeFetcher{papers: papers}
	ch, _ := chunker.New(0, 0, 0)
	svc := New(fetcher, newFakePapers(), newFakeIndex(), ch,
		&fakeBatchEmbedder{dim: 4, honorCtx: true}, &fakeInvalidator{}, zap.NewNop()).
		WithWorkers(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Run(ctx, Request{IDs: ids})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Statuses) != len(ids) {
		t.Fatalf("statuses = %d, want %d", len(report.Statuses), len(ids))
	}
	// every worker must run and record an outcome even under a dead context
	for _, st := range report.Statuses {
		if st.Outcome() == "" {
			t.Errorf("paper %s has no outcome", st.ArxivID())
		}
	}
	if report.Indexed+report.Skipped+report.Failed != len(ids) {
		t.Errorf("counts do not cover the batch: %+v", report)
	}
}

func TestStats(t *testing.T) {
	fetcher := &fakeFetcher{papers: map[string]domain.Paper{
		"X001": paper("X001", 1200),
	}}
	papers := newFakePapers()
	idx := newFakeIndex()
	svc := newService(fetcher, papers, idx, &fakeInvalidator{})

	if _, err := svc.Run(context.Background(), Request{IDs: []string{"X001"}}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PapersTotal != 1 || stats.PapersIndexed != 1 || stats.ChunksTotal != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
