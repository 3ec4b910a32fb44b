package chi

import (
	"time"

	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/ingest"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes exposed by the API.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeUpstreamError    = "upstream_error"
	codeTimeout          = "timeout"
	codeInternalError    = "internal_error"
)

type searchRequest struct {
	Query      string   `json:"query"`
	TopK       int      `json:"top_k,omitempty"`
	SearchType string   `json:"search_type,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

type searchResultItem struct {
	ArxivID     string  `json:"arxiv_id"`
	ChunkIndex  int     `json:"chunk_index"`
	Score       float64 `json:"score"`
	Content     string  `json:"content"`
	Section     string  `json:"section,omitempty"`
	Title       string  `json:"title,omitempty"`
	PDFURL      string  `json:"pdf_url,omitempty"`
	VectorRank  *int    `json:"vector_rank,omitempty"`
	KeywordRank *int    `json:"keyword_rank,omitempty"`
}

type searchResponse struct {
	Results    []searchResultItem `json:"results"`
	Total      int                `json:"total"`
	SearchType string             `json:"search_type"`
	Source     string             `json:"source"`
	Cached     bool               `json:"cached"`
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type askResponse struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Sources   []domain.Citation `json:"sources"`
	CacheHit  bool              `json:"cache_hit"`
	LatencyMS int64             `json:"latency_ms"`
	Generated time.Time         `json:"generated"`
}

type ingestRequest struct {
	IDs        []string `json:"ids,omitempty"`
	Category   string   `json:"category,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	Force      bool     `json:"force,omitempty"`
}

type ingestStatusItem struct {
	ArxivID string `json:"arxiv_id"`
	Outcome string `json:"outcome"`
	Stage   string `json:"stage,omitempty"`
	Chunks  int    `json:"chunks,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ingestResponse struct {
	Papers        []ingestStatusItem `json:"papers"`
	Indexed       int                `json:"indexed"`
	Skipped       int                `json:"skipped"`
	Failed        int                `json:"failed"`
	ChunksWritten int                `json:"chunks_written"`
}

type statsResponse struct {
	PapersTotal   int `json:"papers_total"`
	PapersIndexed int `json:"papers_indexed"`
	ChunksTotal   int `json:"chunks_total"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResultToDTO(r *result.Result) searchResultItem {
	item := searchResultItem{
		ArxivID:    r.ArxivID(),
		ChunkIndex: r.ChunkIndex(),
		Score:      r.Score(),
		Content:    r.Content(),
		Section:    r.Section(),
		Title:      r.Title(),
		PDFURL:     r.PDFURL(),
	}
	if v := r.VectorRank(); v != result.RankAbsent {
		item.VectorRank = &v
	}
	if k := r.KeywordRank(); k != result.RankAbsent {
		item.KeywordRank = &k
	}
	return item
}

func ingestStatusToDTO(st ingest.Status) ingestStatusItem {
	item := ingestStatusItem{
		ArxivID: st.ArxivID(),
		Outcome: string(st.Outcome()),
		Stage:   string(st.Stage()),
		Chunks:  st.Chunks(),
	}
	if st.Err() != nil {
		item.Error = st.Err().Error()
	}
	return item
}
