package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPaperNotFound signals a missing paper.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrInvalidArgument signals malformed caller input. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptyInput signals blank text handed to the chunker. A no-op, not fatal.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingProvider signals an embedding backend failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrIndexUnavailable signals a search index backend failure.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrGenerationFailed signals a generation backend failure. Must never be cached.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrCacheUnavailable signals a cache backend failure. Callers degrade to
	// direct computation instead of failing the request.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrTimeout signals an exceeded per-call time budget.
	ErrTimeout = errors.New("timeout")
)
