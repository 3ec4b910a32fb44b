package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/db"
	"github.com/kailas-cloud/paperdex/internal/domain"
)

// DefaultTTL bounds answer staleness after corpus changes between explicit
// invalidations.
const DefaultTTL = time.Hour

// store is the consumer interface for the query cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}

// Gate is a read-through cache over opaque payloads. A backend failure is
// never surfaced to the caller: the gate logs, computes fresh, and moves on.
// Concurrent identical misses each compute independently; entries are
// idempotent payloads keyed by fingerprint, so duplicate work is wasteful
// but harmless, and the TTL is long enough that stampedes do not recur.
type Gate struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewGate creates a query cache gate.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"bypass").
func NewGate(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Gate {
	return &Gate{
		store:      s,
		ttl:        DefaultTTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTTL overrides the entry TTL.
func (g *Gate) WithTTL(ttl time.Duration) *Gate {
	if ttl > 0 {
		g.ttl = ttl
	}
	return g
}

// GetOrCompute returns the cached payload for key, or runs compute and
// stores its result. hit reports whether the payload came from the cache.
// Expired entries are plain misses. Compute errors propagate unchanged and
// nothing is stored for them.
func (g *Gate) GetOrCompute(
	ctx context.Context,
	key string,
	compute func(ctx context.Context) ([]byte, error),
) (payload []byte, hit bool, err error) {
	data, getErr := g.store.Get(ctx, key)
	switch {
	case getErr == nil && len(data) > 0:
		g.incCache("hit")
		return data, true, nil
	case getErr == nil || errors.Is(getErr, db.ErrKeyNotFound):
		g.incCache("miss")
	default:
		g.incCache("bypass")
		g.logger.Warn("Query cache read failed, computing fresh",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, getErr)))
	}

	payload, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if setErr := g.store.SetWithTTL(ctx, key, payload, g.ttl); setErr != nil {
		g.logger.Warn("Query cache write failed",
			zap.String("key", key), zap.Error(setErr))
	}

	return payload, false, nil
}

// InvalidateSearches drops every cached query result. Called after an
// ingestion run indexes at least one paper, since new chunks can change
// both rankings and synthesized answers.
func (g *Gate) InvalidateSearches(ctx context.Context) (int, error) {
	n, err := g.store.DeleteMatching(ctx, domain.QueryCachePrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("invalidate query cache: %w", err)
	}
	return n, nil
}

func (g *Gate) incCache(result string) {
	if g.cacheTotal != nil {
		g.cacheTotal.WithLabelValues(result).Inc()
	}
}
