// Package chunkindex owns the single FT index over paper chunks: schema
// bootstrap, bulk chunk writes with replace semantics, and the two query
// primitives (KNN and BM25) the hybrid searcher fuses.
package chunkindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/paperdex/internal/db"
	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/search/filter"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// store is the consumer interface for chunk index operations (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// DefaultQueryTimeout bounds one FT.SEARCH query.
const DefaultQueryTimeout = 5 * time.Second

// HNSWConfig carries HNSW build parameters for the vector field.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements chunk index writes and queries.
type Repo struct {
	store        store
	vectorDim    int
	hnsw         HNSWConfig
	queryTimeout time.Duration
}

// New creates a chunk index repository for vectors of the given dimension.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, queryTimeout: DefaultQueryTimeout}
}

// WithHNSW sets HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// WithQueryTimeout overrides the per-query deadline.
func (r *Repo) WithQueryTimeout(d time.Duration) *Repo {
	if d > 0 {
		r.queryTimeout = d
	}
	return r
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     domain.ChunkIndexName,
		Prefixes: []string{domain.ChunkKeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldArxivID, Type: db.IndexFieldTag},
			{Name: fieldChunkIndex, Type: db.IndexFieldNumeric},
			{Name: fieldText, Type: db.IndexFieldText},
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldSection, Type: db.IndexFieldTag},
			{Name: fieldCategories, Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: fieldPublished, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create chunk index: %w", domainErr(err))
	}
	return nil
}

// Replace writes the full chunk set for a paper and removes any stale chunks
// from a previous ingestion run. Writes are pipelined; chunk identity is
// (arxiv id, chunk index), so re-writing the same set is idempotent. Stale
// keys beyond the new set are deleted only after the new set is acknowledged,
// so the index never loses the paper mid-replace.
func (r *Repo) Replace(ctx context.Context, p *domain.Paper, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("paper %s: no chunks to index: %w", p.ArxivID, domain.ErrInvalidArgument)
	}

	items := make([]db.HashSetItem, len(chunks))
	fresh := make(map[string]bool, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if len(c.Vector) != r.vectorDim {
			return fmt.Errorf("chunk %s: vector dim %d, want %d: %w",
				c.ID(), len(c.Vector), r.vectorDim, domain.ErrInvalidArgument)
		}
		k := chunkKey(c.ArxivID, c.Index)
		items[i] = db.HashSetItem{Key: k, Fields: toFields(p, c)}
		fresh[k] = true
	}

	existing, err := r.store.Scan(ctx, domain.ChunkKeyPrefix+p.ArxivID+":*")
	if err != nil {
		return fmt.Errorf("scan chunks %s: %w", p.ArxivID, domainErr(err))
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("bulk upsert chunks %s: %w", p.ArxivID, domainErr(err))
	}

	var stale []string
	for _, k := range existing {
		if !fresh[k] {
			stale = append(stale, k)
		}
	}
	if len(stale) > 0 {
		if err := r.store.DelMulti(ctx, stale); err != nil {
			return fmt.Errorf("delete stale chunks %s: %w", p.ArxivID, domainErr(err))
		}
	}

	return nil
}

// SearchKNN performs a vector similarity search over chunks.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, cats filter.Categories, topK int,
) ([]result.Result, error) {
	q := &db.KNNQuery{
		IndexName:    domain.ChunkIndexName,
		Categories:   cats,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	sr, err := r.store.SearchKNN(qctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search knn exceeded %s: %w", r.queryTimeout, domain.ErrTimeout)
		}
		return nil, fmt.Errorf("search knn: %w", domainErr(err))
	}
	return parseResults(sr), nil
}

// SearchBM25 performs a keyword (BM25) search over chunk text.
func (r *Repo) SearchBM25(
	ctx context.Context, query string, cats filter.Categories, topK int,
) ([]result.Result, error) {
	q := &db.TextQuery{
		IndexName:    domain.ChunkIndexName,
		Query:        query,
		Categories:   cats,
		TopK:         topK,
		ReturnFields: returnFields,
	}

	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	sr, err := r.store.SearchBM25(qctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search bm25 exceeded %s: %w", r.queryTimeout, domain.ErrTimeout)
		}
		return nil, fmt.Errorf("search bm25: %w", domainErr(err))
	}
	return parseResults(sr), nil
}

// CountChunks counts indexed chunks, optionally for one paper.
func (r *Repo) CountChunks(ctx context.Context, arxivID string) (int, error) {
	pattern := domain.ChunkKeyPrefix + "*"
	if arxivID != "" {
		pattern = domain.ChunkKeyPrefix + arxivID + ":*"
	}
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", domainErr(err))
	}
	return len(keys), nil
}

func parseResults(sr *db.SearchResult) []result.Result {
	if sr == nil || sr.Total == 0 {
		return nil
	}
	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, entryToResult(entry))
	}
	return results
}

// domainErr tags store failures as index-backend failures so upper layers can
// distinguish "no matches" from "backend unavailable".
func domainErr(err error) error {
	var dbErr *db.Error
	if errors.As(err, &dbErr) && strings.HasPrefix(dbErr.Op, "FT.") {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return err
}
