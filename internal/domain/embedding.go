package domain

import (
	"context"
	"fmt"
	"math"
)

// Embedder is the shared text vectorization contract between layers.
// Output order and length must match input exactly: a misalignment silently
// corrupts the chunk-to-vector mapping.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BatchEmbeddingResult carries embedding vectors and aggregate token usage
// through the decorator chain. Embeddings[i] corresponds to texts[i].
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// EmbedOne vectorizes a single text through a batch Embedder.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, int, error) {
	res, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, 0, err
	}
	if len(res.Embeddings) != 1 {
		return nil, 0, fmt.Errorf("expected 1 embedding, got %d: %w", len(res.Embeddings), ErrEmbeddingProvider)
	}
	return res.Embeddings[0], res.TotalTokens, nil
}

// NormalizeVector scales v to unit L2 norm in place. A zero vector is left
// untouched.
func NormalizeVector(v []float32) {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
