package paperdex

import (
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain"
	domingest "github.com/kailas-cloud/paperdex/internal/domain/ingest"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// Mode controls the retrieval algorithm.
type Mode string

// Retrieval mode constants.
const (
	ModeHybrid  Mode = "hybrid"
	ModeVector  Mode = "vector"
	ModeKeyword Mode = "keyword"
)

// RankAbsent marks a chunk missing from one retrieval method's list.
const RankAbsent = result.RankAbsent

// SearchResult is a single retrieved chunk with citation metadata.
type SearchResult struct {
	ArxivID    string
	ChunkIndex int
	Score      float64
	Content    string
	Section    string
	Title      string
	PDFURL     string
	// 1-based per-method ranks; RankAbsent when the chunk did not appear
	// in that method's candidate list.
	VectorRank  int
	KeywordRank int
}

// Citation points at one chunk the answer was grounded on.
type Citation struct {
	ArxivID    string
	ChunkIndex int
	Title      string
	PDFURL     string
}

// Answer is a synthesized answer with its sources.
type Answer struct {
	Question  string
	Text      string
	Sources   []Citation
	CacheHit  bool
	Latency   time.Duration
	Generated time.Time
}

// PaperStatus is the per-paper outcome of one ingestion batch.
type PaperStatus struct {
	ArxivID string
	Outcome string // "ok", "skipped", "error"
	Stage   string // last completed pipeline stage
	Chunks  int
	Err     error
}

// IngestReport summarizes one ingestion batch.
type IngestReport struct {
	Papers        []PaperStatus
	Indexed       int
	Skipped       int
	Failed        int
	ChunksWritten int
}

// CorpusStats reports corpus size.
type CorpusStats struct {
	PapersTotal   int
	PapersIndexed int
	ChunksTotal   int
}

func fromInternalResult(r *result.Result) SearchResult {
	return SearchResult{
		ArxivID:     r.ArxivID(),
		ChunkIndex:  r.ChunkIndex(),
		Score:       r.Score(),
		Content:     r.Content(),
		Section:     r.Section(),
		Title:       r.Title(),
		PDFURL:      r.PDFURL(),
		VectorRank:  r.VectorRank(),
		KeywordRank: r.KeywordRank(),
	}
}

func fromInternalAnswer(rec domain.AnswerRecord) Answer {
	sources := make([]Citation, len(rec.Sources))
	for i, c := range rec.Sources {
		sources[i] = Citation{
			ArxivID:    c.ArxivID,
			ChunkIndex: c.ChunkIndex,
			Title:      c.Title,
			PDFURL:     c.PDFURL,
		}
	}
	return Answer{
		Question:  rec.Question,
		Text:      rec.Answer,
		Sources:   sources,
		CacheHit:  rec.CacheHit,
		Latency:   rec.Latency,
		Generated: rec.Generated,
	}
}

func fromInternalStatus(st domingest.Status) PaperStatus {
	return PaperStatus{
		ArxivID: st.ArxivID(),
		Outcome: string(st.Outcome()),
		Stage:   string(st.Stage()),
		Chunks:  st.Chunks(),
		Err:     st.Err(),
	}
}
