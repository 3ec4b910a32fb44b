package paperdex

import "github.com/kailas-cloud/paperdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrPaperNotFound     = domain.ErrPaperNotFound
	ErrInvalidArgument   = domain.ErrInvalidArgument
	ErrEmptyInput        = domain.ErrEmptyInput
	ErrEmbeddingProvider = domain.ErrEmbeddingProvider
	ErrIndexUnavailable  = domain.ErrIndexUnavailable
	ErrGenerationFailed  = domain.ErrGenerationFailed
)
