// Package paper persists paper metadata as flat hashes in the store.
package paper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

// store is the consumer interface for paper persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements paper metadata persistence on a hash store.
type Repo struct {
	store store
}

// New creates a paper repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func key(arxivID string) string {
	return domain.PaperKeyPrefix + arxivID
}

// Upsert creates or fully overwrites the metadata record for a paper.
// Identifier uniqueness is structural: the record key is the arXiv ID.
func (r *Repo) Upsert(ctx context.Context, p *domain.Paper) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key(p.ArxivID), toFields(p)); err != nil {
		return fmt.Errorf("upsert paper %s: %w", p.ArxivID, err)
	}
	return nil
}

// Get loads a paper by arXiv ID.
func (r *Repo) Get(ctx context.Context, arxivID string) (domain.Paper, error) {
	fields, err := r.store.HGetAll(ctx, key(arxivID))
	if err != nil {
		return domain.Paper{}, fmt.Errorf("get paper %s: %w", arxivID, err)
	}
	if len(fields) == 0 {
		return domain.Paper{}, fmt.Errorf("paper %s: %w", arxivID, domain.ErrPaperNotFound)
	}
	return fromFields(fields), nil
}

// Exists reports whether a paper record is present.
func (r *Repo) Exists(ctx context.Context, arxivID string) (bool, error) {
	ok, err := r.store.Exists(ctx, key(arxivID))
	if err != nil {
		return false, fmt.Errorf("exists paper %s: %w", arxivID, err)
	}
	return ok, nil
}

// MarkIndexed flips the indexed flag after the full chunk set has been
// acknowledged by the index. Only the two flag fields are touched.
func (r *Repo) MarkIndexed(ctx context.Context, arxivID string, at time.Time) error {
	fields := map[string]string{
		fieldIndexed:   "1",
		fieldIndexedAt: strconv.FormatInt(at.Unix(), 10),
	}
	if err := r.store.HSet(ctx, key(arxivID), fields); err != nil {
		return fmt.Errorf("mark indexed %s: %w", arxivID, err)
	}
	return nil
}

// Stats scans the paper keyspace and counts total and indexed papers.
// Scan-based: acceptable for the corpus sizes paperdex targets.
func (r *Repo) Stats(ctx context.Context) (total, indexed int, err error) {
	keys, err := r.store.Scan(ctx, domain.PaperKeyPrefix+"*")
	if err != nil {
		return 0, 0, fmt.Errorf("scan papers: %w", err)
	}
	for _, k := range keys {
		fields, err := r.store.HGetAll(ctx, k)
		if err != nil {
			return 0, 0, fmt.Errorf("stats read %s: %w", k, err)
		}
		total++
		if fields[fieldIndexed] == "1" {
			indexed++
		}
	}
	return total, indexed, nil
}
