package result

import "strconv"

// RankAbsent marks a chunk missing from one method's result list. It doubles
// as a large sentinel for the combined-rank tie-break, so a chunk ranked by
// both methods always outranks a single-method chunk on equal fused scores.
const RankAbsent = 1 << 20

// Result is a single search hit: one chunk plus enough paper metadata to
// render and cite it. Per-method ranks are 1-based; RankAbsent means the
// chunk did not appear in that method's candidate list.
type Result struct {
	arxivID     string
	chunkIndex  int
	score       float64
	content     string
	section     string
	title       string
	pdfURL      string
	vectorRank  int
	keywordRank int
}

// New creates a search result from one retrieval method.
func New(arxivID string, chunkIndex int, score float64, content, section, title, pdfURL string) Result {
	return Result{
		arxivID: arxivID, chunkIndex: chunkIndex, score: score,
		content: content, section: section, title: title, pdfURL: pdfURL,
		vectorRank: RankAbsent, keywordRank: RankAbsent,
	}
}

// ChunkID returns the chunk identity "arxivID:index".
func (r *Result) ChunkID() string { return chunkID(r.arxivID, r.chunkIndex) }

// ArxivID returns the paper identifier.
func (r *Result) ArxivID() string { return r.arxivID }

// ChunkIndex returns the chunk position within its paper.
func (r *Result) ChunkIndex() int { return r.chunkIndex }

// Score returns the relevance score (method score, or fused RRF score).
func (r *Result) Score() float64 { return r.score }

// Content returns the chunk text.
func (r *Result) Content() string { return r.content }

// Section returns the chunk section type.
func (r *Result) Section() string { return r.section }

// Title returns the paper title.
func (r *Result) Title() string { return r.title }

// PDFURL returns the paper PDF URL.
func (r *Result) PDFURL() string { return r.pdfURL }

// VectorRank returns the 1-based rank in the vector list, or RankAbsent.
func (r *Result) VectorRank() int { return r.vectorRank }

// KeywordRank returns the 1-based rank in the keyword list, or RankAbsent.
func (r *Result) KeywordRank() int { return r.keywordRank }

// WithRanks returns a copy carrying per-method ranks and a fused score.
func (r Result) WithRanks(score float64, vectorRank, keywordRank int) Result {
	r.score = score
	r.vectorRank = vectorRank
	r.keywordRank = keywordRank
	return r
}

func chunkID(arxivID string, index int) string {
	return arxivID + ":" + strconv.Itoa(index)
}
