package search

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// cachedResult is the JSON shape of one hit in a cached ranking. Absent
// per-method ranks are stored as zero and restored to result.RankAbsent.
type cachedResult struct {
	ArxivID     string  `json:"arxiv_id"`
	ChunkIndex  int     `json:"chunk_index"`
	Score       float64 `json:"score"`
	Content     string  `json:"content"`
	Section     string  `json:"section,omitempty"`
	Title       string  `json:"title,omitempty"`
	PDFURL      string  `json:"pdf_url,omitempty"`
	VectorRank  int     `json:"vector_rank,omitempty"`
	KeywordRank int     `json:"keyword_rank,omitempty"`
}

func marshalResults(results []result.Result) ([]byte, error) {
	entries := make([]cachedResult, len(results))
	for i := range results {
		r := &results[i]
		entries[i] = cachedResult{
			ArxivID:     r.ArxivID(),
			ChunkIndex:  r.ChunkIndex(),
			Score:       r.Score(),
			Content:     r.Content(),
			Section:     r.Section(),
			Title:       r.Title(),
			PDFURL:      r.PDFURL(),
			VectorRank:  storedRank(r.VectorRank()),
			KeywordRank: storedRank(r.KeywordRank()),
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal search results: %w", err)
	}
	return data, nil
}

func unmarshalResults(payload []byte) ([]result.Result, error) {
	var entries []cachedResult
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal search results: %w", err)
	}

	out := make([]result.Result, len(entries))
	for i, e := range entries {
		out[i] = result.
			New(e.ArxivID, e.ChunkIndex, e.Score, e.Content, e.Section, e.Title, e.PDFURL).
			WithRanks(e.Score, loadedRank(e.VectorRank), loadedRank(e.KeywordRank))
	}
	return out, nil
}

func storedRank(rank int) int {
	if rank == result.RankAbsent {
		return 0
	}
	return rank
}

func loadedRank(rank int) int {
	if rank == 0 {
		return result.RankAbsent
	}
	return rank
}
