package search

import (
	"context"

	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/search/filter"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// Repository is the chunk retrieval contract the search service consumes (ISP).
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, cats filter.Categories, topK int) ([]result.Result, error)
	SearchBM25(ctx context.Context, query string, cats filter.Categories, topK int) ([]result.Result, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Gate is the query cache searches go through when configured.
type Gate interface {
	GetOrCompute(
		ctx context.Context,
		key string,
		compute func(ctx context.Context) ([]byte, error),
	) (payload []byte, hit bool, err error)
}
