package domain

import "fmt"

// SectionType labels which part of a paper a chunk was cut from.
type SectionType string

// Section type constants.
const (
	SectionTitle    SectionType = "title"
	SectionAbstract SectionType = "abstract"
	SectionBody     SectionType = "body"
)

// IsValid checks if the section type is one of the supported values.
func (s SectionType) IsValid() bool {
	return s == SectionTitle || s == SectionAbstract || s == SectionBody
}

// Chunk is a bounded, overlapping text window cut from a paper. It is the
// atomic unit written to and retrieved from the search index. Identity is
// (ArxivID, Index), unique together; chunks are immutable once indexed and
// re-ingestion replaces the full set for a paper.
type Chunk struct {
	ArxivID   string
	Index     int // 0-based position within the paper, contiguous
	Text      string
	Section   SectionType
	WordCount int

	// Vector is the L2-normalized embedding, set between chunking and
	// index writing. Fixed dimensionality per deployment.
	Vector []float32
}

// ID returns the chunk's index identity "arxivID:index".
func (c *Chunk) ID() string {
	return fmt.Sprintf("%s:%d", c.ArxivID, c.Index)
}
