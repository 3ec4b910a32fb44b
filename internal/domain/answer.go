package domain

import "time"

// NoSourcesAnswer is the deterministic reply returned when retrieval finds
// nothing relevant. The generation backend is never invoked in that case.
const NoSourcesAnswer = "I could not find any relevant sources in the indexed corpus to answer this question."

// Citation references one retrieved chunk used as answer context.
type Citation struct {
	ArxivID    string `json:"arxiv_id"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title"`
	PDFURL     string `json:"pdf_url,omitempty"`
}

// String renders the citation the way the API exposes it.
func (c Citation) String() string {
	if c.PDFURL == "" {
		return c.Title + " (" + c.ArxivID + ")"
	}
	return c.Title + " — " + c.PDFURL
}

// AnswerRecord is the full outcome of one ask call. Ephemeral: persisted only
// inside the cache gate for its TTL.
type AnswerRecord struct {
	Question  string        `json:"question"`
	Answer    string        `json:"answer"`
	Sources   []Citation    `json:"sources"`
	Latency   time.Duration `json:"latency_ns"`
	CacheHit  bool          `json:"-"`
	Generated time.Time     `json:"generated"`
}
