package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// systemPrompt pins the generator to the retrieved context. The model is told
// to refuse rather than improvise when the context does not cover the question.
const systemPrompt = `You are a research assistant answering questions about scientific papers.
Answer ONLY from the numbered context excerpts provided. Cite excerpts as [1], [2], etc.
If the context does not contain the answer, say so plainly instead of guessing.
Keep the answer concise and factual.`

// defaultContextWordBudget bounds the assembled context. Chunks past the
// budget are dropped from the tail, so lower-ranked context goes first.
const defaultContextWordBudget = 3000

// buildPrompt assembles the user prompt: numbered context excerpts in fused
// rank order, then the question. Returns the prompt and how many results were
// actually included after budgeting.
func buildPrompt(question string, results []result.Result, wordBudget int) (string, int) {
	if wordBudget <= 0 {
		wordBudget = defaultContextWordBudget
	}

	var sb strings.Builder
	sb.WriteString("Context excerpts:\n\n")

	used := 0
	included := 0
	for i := range results {
		r := &results[i]
		words := len(strings.Fields(r.Content()))
		if included > 0 && used+words > wordBudget {
			break
		}
		fmt.Fprintf(&sb, "[%d] %s (arXiv:%s, part %d)\n%s\n\n",
			included+1, r.Title(), r.ArxivID(), r.ChunkIndex()+1, r.Content())
		used += words
		included++
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String(), included
}
