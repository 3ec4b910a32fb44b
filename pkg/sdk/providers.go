package paperdex

import "context"

// Embedder vectorizes batches of texts. Output order must match input order.
// Required for ingestion and for vector/hybrid search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vectors and aggregate token usage.
type EmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Generator produces a chat completion from a prompt. Required for Ask.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is the input for answer synthesis.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
