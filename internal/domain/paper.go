package domain

import (
	"fmt"
	"strings"
	"time"
)

// Paper is a single paper in the corpus, identified by its arXiv ID.
// Papers are created on first ingestion and updated in place on re-ingestion;
// the engine never deletes them.
type Paper struct {
	ArxivID    string
	Title      string
	Abstract   string
	Authors    []string
	Categories []string
	Published  time.Time
	PDFURL     string

	// Indexed is set only after the full chunk set has been acknowledged
	// by the search index.
	Indexed   bool
	IndexedAt time.Time
}

// Validate checks that the paper carries the minimum required identity and text.
func (p *Paper) Validate() error {
	if strings.TrimSpace(p.ArxivID) == "" {
		return fmt.Errorf("arxiv id is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Abstract) == "" {
		return fmt.Errorf("paper %s has neither title nor abstract: %w", p.ArxivID, ErrInvalidArgument)
	}
	return nil
}

// FullText concatenates the paper text used for chunking when no full PDF
// text is available: title followed by abstract.
func (p *Paper) FullText() string {
	switch {
	case p.Title == "":
		return p.Abstract
	case p.Abstract == "":
		return p.Title
	default:
		return p.Title + "\n\n" + p.Abstract
	}
}
