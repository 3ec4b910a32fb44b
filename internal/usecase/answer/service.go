// Package answer implements cached answer synthesis: hybrid retrieval feeds a
// grounded prompt to the generation backend, and the full outcome is cached
// by question fingerprint.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/cache"
	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
	"github.com/kailas-cloud/paperdex/internal/usecase/search"
)

// DefaultTopK is how many context chunks an ask retrieves when unset.
const DefaultTopK = 5

// DefaultMaxTokens caps the synthesized answer length.
const DefaultMaxTokens = 1024

// Service answers questions over the indexed corpus.
type Service struct {
	search     Searcher
	gen        Generator
	gate       Gate
	maxTokens  int
	wordBudget int
	logger     *zap.Logger
}

// New creates an answer service.
func New(searcher Searcher, gen Generator, gate Gate, logger *zap.Logger) *Service {
	return &Service{
		search:     searcher,
		gen:        gen,
		gate:       gate,
		maxTokens:  DefaultMaxTokens,
		wordBudget: defaultContextWordBudget,
		logger:     logger,
	}
}

// WithLimits overrides answer token and context word budgets.
func (s *Service) WithLimits(maxTokens, contextWords int) *Service {
	if maxTokens > 0 {
		s.maxTokens = maxTokens
	}
	if contextWords > 0 {
		s.wordBudget = contextWords
	}
	return s
}

// Ask synthesizes an answer to a question from retrieved chunks. Identical
// questions (after normalization, with equal top_k) are served from the
// cache; a generation failure is returned to the caller and never cached.
func (s *Service) Ask(ctx context.Context, question string, topK int) (domain.AnswerRecord, error) {
	question = cache.Normalize(question)
	if question == "" {
		return domain.AnswerRecord{}, fmt.Errorf("question: %w", domain.ErrEmptyInput)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 1 || topK > search.MaxTopK {
		return domain.AnswerRecord{}, fmt.Errorf(
			"top_k must be in [1, %d]: %w", search.MaxTopK, domain.ErrInvalidArgument)
	}

	start := time.Now()

	key := cache.Key(cache.Fingerprint(question, map[string]string{
		"op":    "ask",
		"top_k": strconv.Itoa(topK),
	}))

	payload, hit, err := s.gate.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
		record, err := s.answer(ctx, question, topK)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal answer record: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return domain.AnswerRecord{}, err
	}

	var record domain.AnswerRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.AnswerRecord{}, fmt.Errorf("unmarshal answer record: %w", err)
	}
	record.CacheHit = hit
	if hit {
		record.Latency = time.Since(start)
	}
	return record, nil
}

func (s *Service) answer(ctx context.Context, question string, topK int) (domain.AnswerRecord, error) {
	start := time.Now()

	resp, err := s.search.Search(ctx, search.Request{Query: question, TopK: topK})
	if err != nil {
		return domain.AnswerRecord{}, fmt.Errorf("retrieve context: %w", err)
	}
	results := resp.Results

	record := domain.AnswerRecord{
		Question:  question,
		Generated: time.Now().UTC(),
	}

	if len(results) == 0 {
		record.Answer = domain.NoSourcesAnswer
		record.Sources = []domain.Citation{}
		record.Latency = time.Since(start)
		return record, nil
	}

	prompt, included := buildPrompt(question, results, s.wordBudget)
	completion, err := s.gen.Complete(ctx, domain.CompletionRequest{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return domain.AnswerRecord{}, fmt.Errorf("synthesize answer: %w", err)
	}

	record.Answer = completion.Text
	record.Sources = citations(results[:included])
	record.Latency = time.Since(start)

	s.logger.Info("Answer synthesized",
		zap.Int("context_chunks", included),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("completion_tokens", completion.CompletionTokens),
		zap.Duration("latency", record.Latency))

	return record, nil
}

// citations maps context chunks to citations, one per distinct (paper, chunk)
// pair, preserving fused rank order.
func citations(results []result.Result) []domain.Citation {
	seen := make(map[string]bool, len(results))
	out := make([]domain.Citation, 0, len(results))
	for i := range results {
		r := &results[i]
		if seen[r.ChunkID()] {
			continue
		}
		seen[r.ChunkID()] = true
		out = append(out, domain.Citation{
			ArxivID:    r.ArxivID(),
			ChunkIndex: r.ChunkIndex(),
			Title:      r.Title(),
			PDFURL:     r.PDFURL(),
		})
	}
	return out
}
