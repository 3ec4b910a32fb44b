package domain

import "context"

// Generator is the text-generation contract: prompt in, completion out.
// Retry policy belongs to the implementation's own client, not to callers.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// StreamGenerator optionally streams completion chunks as they arrive.
type StreamGenerator interface {
	CompleteStream(ctx context.Context, req CompletionRequest, emit func(delta string) error) (CompletionResult, error)
}

// CompletionRequest is a single generation call.
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
