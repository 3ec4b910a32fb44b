package answer

import (
	"context"

	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/usecase/search"
)

// Searcher retrieves context chunks for a question.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Response, error)
}

// Generator synthesizes the answer text.
type Generator interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Gate is the query cache the ask path goes through.
type Gate interface {
	GetOrCompute(
		ctx context.Context,
		key string,
		compute func(ctx context.Context) ([]byte, error),
	) (payload []byte, hit bool, err error)
}
