package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/metrics"
)

// DefaultCompletionTimeout bounds one chat completion call. Synthesis over a
// full context window is slow, so the budget is generous.
const DefaultCompletionTimeout = 120 * time.Second

// Generator is a chat completion provider using the OpenAI-compatible API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	provider    string
	logger      *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Provider    string
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat completion provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Complete implements domain.Generator.
func (g *Generator) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(callCtx, g.chatRequest(req, false))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.CompletionResult{}, fmt.Errorf(
				"generation call exceeded %s: %w", g.timeout, domain.ErrTimeout)
		}
		return domain.CompletionResult{}, parseAPIError("generation", err, domain.ErrGenerationFailed)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf(
			"empty completion response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").
			Add(float64(resp.Usage.CompletionTokens))
	}

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// CompleteStream implements domain.StreamGenerator. emit is called once per
// content delta; an emit error aborts the stream and propagates.
func (g *Generator) CompleteStream(
	ctx context.Context, req domain.CompletionRequest, emit func(delta string) error,
) error {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.chatRequest(req, true))
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return parseAPIError("generation", err, domain.ErrGenerationFailed)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
			return nil
		}
		if err != nil {
			metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
			return parseAPIError("generation", err, domain.ErrGenerationFailed)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := emit(delta); err != nil {
				return fmt.Errorf("emit delta: %w", err)
			}
		}
	}
}

func (g *Generator) chatRequest(req domain.CompletionRequest, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	return openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: g.temperature,
		Stream:      stream,
	}
}
