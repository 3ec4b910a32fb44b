package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query cache and ingestion pipeline Prometheus metrics.
var (
	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdex",
			Name:      "query_cache_total",
			Help:      "Query cache hits, misses and backend bypasses",
		},
		[]string{"result"}, // "hit" / "miss" / "bypass"
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdex",
			Name:      "search_requests_total",
			Help:      "Total search requests by retrieval mode",
		},
		[]string{"mode", "status"},
	)

	IngestPapersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdex",
			Name:      "ingest_papers_total",
			Help:      "Total papers processed by ingestion runs",
		},
		[]string{"outcome"}, // "ok" / "skipped" / "error"
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperdex",
			Name:      "ingest_chunks_total",
			Help:      "Total chunks written to the index",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "paperdex",
			Name:      "ingest_paper_duration_seconds",
			Help:      "Per-paper ingestion duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers query cache, search and ingestion metrics.
// Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(IngestPapersTotal)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(IngestDuration)
	pipelineMetricsRegistered = true
}
