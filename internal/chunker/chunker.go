// Package chunker splits paper text into overlapping fixed-size word windows.
// Splitting is a pure function of its inputs: re-running it over the same text
// yields byte-identical chunks, which is what makes re-ingestion idempotent.
package chunker

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/paperdex/internal/domain"
)

// Defaults tuned for abstract-sized scientific text.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
	// DefaultMaxChunks hard-caps chunks per paper. Pathologically long
	// documents are truncated, not retried: a lossy policy by contract.
	DefaultMaxChunks = 50
)

// Chunker cuts text into word windows of at most ChunkSize words, each
// sharing Overlap words with its predecessor.
type Chunker struct {
	chunkSize int
	overlap   int
	maxChunks int
}

// New creates a chunker with the given parameters; zero values take defaults.
func New(chunkSize, overlap, maxChunks int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d: %w",
			overlap, chunkSize, domain.ErrInvalidArgument)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap, maxChunks: maxChunks}, nil
}

// Split cuts text into ordered chunks for the given paper and section.
// Returns domain.ErrEmptyInput if text is empty or whitespace-only.
func (c *Chunker) Split(arxivID, text string, section domain.SectionType) ([]domain.Chunk, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("chunk %s: %w", arxivID, domain.ErrEmptyInput)
	}

	step := c.chunkSize - c.overlap
	chunks := make([]domain.Chunk, 0, (len(words)+step-1)/step)

	for start := 0; start < len(words); start += step {
		if len(chunks) == c.maxChunks {
			break
		}
		end := min(start+c.chunkSize, len(words))
		window := words[start:end]
		chunks = append(chunks, domain.Chunk{
			ArxivID:   arxivID,
			Index:     len(chunks),
			Text:      strings.Join(window, " "),
			Section:   section,
			WordCount: len(window),
		})
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
