// Package search implements hybrid retrieval over indexed paper chunks:
// vector KNN, keyword BM25, and their Reciprocal Rank Fusion.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/paperdex/internal/cache"
	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/search/filter"
	"github.com/kailas-cloud/paperdex/internal/domain/search/mode"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
	"github.com/kailas-cloud/paperdex/internal/metrics"
)

// DefaultTopK is used when a request leaves top_k unset.
const DefaultTopK = 5

// MaxTopK bounds how many results one request may ask for.
const MaxTopK = 50

// candidateFactor widens per-method candidate pools before fusion so a chunk
// ranked just below top_k by one method can still surface after fusing.
const candidateFactor = 2

// Request is a search invocation.
type Request struct {
	Query      string
	TopK       int
	Mode       mode.Mode
	Categories filter.Categories
}

// Response is a search outcome: the ranked chunks plus how they were
// produced. Source names the retrieval method(s) that ran; Cached reports
// whether the ranking came from the query cache.
type Response struct {
	Results []result.Result
	Mode    mode.Mode
	Source  string
	Cached  bool
}

// Service executes retrieval across vector, keyword and hybrid modes.
type Service struct {
	repo  Repository
	embed Embedder
	gate  Gate
}

// New creates a search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// WithGate routes searches through the query cache. Identical requests
// (after query normalization) within the TTL reuse the cached ranking.
func (s *Service) WithGate(gate Gate) *Service {
	s.gate = gate
	return s
}

// Search validates the request and dispatches to the requested mode.
// Results are capped at TopK and ordered deterministically.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	req.Query = cache.Normalize(req.Query)
	if req.Query == "" {
		return Response{}, fmt.Errorf("query: %w", domain.ErrEmptyInput)
	}
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK < 1 || req.TopK > MaxTopK {
		return Response{}, fmt.Errorf("top_k must be in [1, %d]: %w", MaxTopK, domain.ErrInvalidArgument)
	}
	if req.Mode == "" {
		req.Mode = mode.Hybrid
	}
	if !req.Mode.IsValid() {
		return Response{}, fmt.Errorf("unsupported search mode %q: %w", req.Mode, domain.ErrInvalidArgument)
	}

	results, cached, err := s.retrieve(ctx, &req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode), "error").Inc()
		return Response{}, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode), "success").Inc()
	return Response{
		Results: results,
		Mode:    req.Mode,
		Source:  methodsUsed(req.Mode),
		Cached:  cached,
	}, nil
}

// retrieve runs the requested mode, going through the query cache when a
// gate is configured. A cache hit skips the backends entirely.
func (s *Service) retrieve(ctx context.Context, req *Request) ([]result.Result, bool, error) {
	if s.gate == nil {
		results, err := s.dispatch(ctx, req)
		return results, false, err
	}

	key := cache.Key(cache.Fingerprint(req.Query, map[string]string{
		"op":         "search",
		"top_k":      strconv.Itoa(req.TopK),
		"mode":       string(req.Mode),
		"categories": strings.Join(req.Categories.Values(), ","),
	}))

	payload, hit, err := s.gate.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
		results, err := s.dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		return marshalResults(results)
	})
	if err != nil {
		return nil, false, err
	}

	results, err := unmarshalResults(payload)
	if err != nil {
		return nil, false, err
	}
	return results, hit, nil
}

func (s *Service) dispatch(ctx context.Context, req *Request) ([]result.Result, error) {
	switch req.Mode {
	case mode.Vector:
		return s.searchVector(ctx, req)
	case mode.Keyword:
		return s.searchKeyword(ctx, req)
	default:
		return s.searchHybrid(ctx, req)
	}
}

// methodsUsed names the retrieval method(s) a mode runs.
func methodsUsed(m mode.Mode) string {
	if m == mode.Hybrid {
		return "vector+keyword"
	}
	return string(m)
}

// searchVector embeds the query and runs KNN only.
func (s *Service) searchVector(ctx context.Context, req *Request) ([]result.Result, error) {
	vector, _, err := domain.EmbedOne(ctx, s.embed, req.Query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	results, err := s.repo.SearchKNN(ctx, vector, req.Categories, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return withMethodRanks(results, true), nil
}

// searchKeyword runs BM25 only.
func (s *Service) searchKeyword(ctx context.Context, req *Request) ([]result.Result, error) {
	results, err := s.repo.SearchBM25(ctx, req.Query, req.Categories, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}
	return withMethodRanks(results, false), nil
}

// searchHybrid embeds the query, runs KNN and BM25 concurrently over widened
// candidate pools, and fuses via RRF.
func (s *Service) searchHybrid(ctx context.Context, req *Request) ([]result.Result, error) {
	vector, _, err := domain.EmbedOne(ctx, s.embed, req.Query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	candidateK := req.TopK * candidateFactor

	var knnResults, bm25Results []result.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.repo.SearchKNN(gctx, vector, req.Categories, candidateK)
		if err != nil {
			return fmt.Errorf("search knn: %w", err)
		}
		knnResults = r
		return nil
	})
	g.Go(func() error {
		r, err := s.repo.SearchBM25(gctx, req.Query, req.Categories, candidateK)
		if err != nil {
			return fmt.Errorf("search bm25: %w", err)
		}
		bm25Results = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fuseRRF(knnResults, bm25Results, req.TopK), nil
}

// withMethodRanks stamps 1-based ranks onto single-method results so the
// response shape matches hybrid output.
func withMethodRanks(results []result.Result, vector bool) []result.Result {
	out := make([]result.Result, len(results))
	for i := range results {
		rank := i + 1
		if vector {
			out[i] = results[i].WithRanks(results[i].Score(), rank, result.RankAbsent)
		} else {
			out[i] = results[i].WithRanks(results[i].Score(), result.RankAbsent, rank)
		}
	}
	return out
}
