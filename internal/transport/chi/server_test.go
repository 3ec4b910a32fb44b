package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/domain"
	domingest "github.com/kailas-cloud/paperdex/internal/domain/ingest"
	"github.com/kailas-cloud/paperdex/internal/domain/search/mode"
	"github.com/kailas-cloud/paperdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/paperdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/paperdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/paperdex/internal/usecase/search"
)

type fakeSearch struct {
	resp    searchuc.Response
	err     error
	lastReq searchuc.Request
}

func (f *fakeSearch) Search(_ context.Context, req searchuc.Request) (searchuc.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

type fakeAnswer struct {
	record domain.AnswerRecord
	err    error
}

func (f *fakeAnswer) Ask(_ context.Context, question string, topK int) (domain.AnswerRecord, error) {
	return f.record, f.err
}

type fakeIngest struct {
	report ingestuc.Report
	stats  ingestuc.Stats
	err    error
}

func (f *fakeIngest) Run(_ context.Context, _ ingestuc.Request) (ingestuc.Report, error) {
	return f.report, f.err
}

func (f *fakeIngest) Stats(_ context.Context) (ingestuc.Stats, error) {
	return f.stats, f.err
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(_ context.Context) healthuc.Report { return f.report }

func newTestServer(search *fakeSearch, answer *fakeAnswer, ing *fakeIngest, h *fakeHealth) http.Handler {
	if search == nil {
		search = &fakeSearch{}
	}
	if answer == nil {
		answer = &fakeAnswer{}
	}
	if ing == nil {
		ing = &fakeIngest{}
	}
	if h == nil {
		h = &fakeHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK},
		}}
	}
	return NewServer(search, answer, ing, h, nil, zap.NewNop()).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleSearch(t *testing.T) {
	r := result.New("2401.0001", 2, 0.032, "chunk text", "body", "A Title", "http://pdf").
		WithRanks(0.032, 1, result.RankAbsent)
	search := &fakeSearch{resp: searchuc.Response{
		Results: []result.Result{r},
		Mode:    mode.Vector,
		Source:  "vector",
		Cached:  true,
	}}
	h := newTestServer(search, nil, nil, nil)

	rr := doJSON(t, h, "POST", "/v1/search",
		`{"query":"rrf","top_k":3,"search_type":"vector","categories":["cs.CL"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	item := resp.Results[0]
	if item.ArxivID != "2401.0001" || item.ChunkIndex != 2 {
		t.Errorf("unexpected item %+v", item)
	}
	if item.VectorRank == nil || *item.VectorRank != 1 {
		t.Errorf("vector rank missing: %+v", item)
	}
	if item.KeywordRank != nil {
		t.Errorf("absent keyword rank must be omitted: %+v", item)
	}
	if resp.SearchType != "vector" || resp.Source != "vector" || !resp.Cached {
		t.Errorf("retrieval metadata not mapped: %+v", resp)
	}

	if search.lastReq.TopK != 3 || string(search.lastReq.Mode) != "vector" {
		t.Errorf("request not mapped: %+v", search.lastReq)
	}
	if len(search.lastReq.Categories.Values()) != 1 {
		t.Errorf("categories not mapped: %+v", search.lastReq.Categories)
	}
}

func TestHandleSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty input", domain.ErrEmptyInput, http.StatusBadRequest, codeValidationFailed},
		{"invalid argument", domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed},
		{"embedding down", domain.ErrEmbeddingProvider, http.StatusBadGateway, codeUpstreamError},
		{"index down", domain.ErrIndexUnavailable, http.StatusBadGateway, codeUpstreamError},
		{"timeout", domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeSearch{err: tt.err}, nil, nil, nil)
			rr := doJSON(t, h, "POST", "/v1/search", `{"query":"q"}`)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var resp errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestHandleSearch_BadBody(t *testing.T) {
	h := newTestServer(nil, nil, nil, nil)
	rr := doJSON(t, h, "POST", "/v1/search", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHandleAsk(t *testing.T) {
	answer := &fakeAnswer{record: domain.AnswerRecord{
		Question: "what is rrf?",
		Answer:   "RRF fuses rankings [1].",
		Sources: []domain.Citation{
			{ArxivID: "2401.0001", ChunkIndex: 0, Title: "A Title", PDFURL: "http://pdf"},
		},
		Latency:   1500 * time.Millisecond,
		CacheHit:  true,
		Generated: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}}
	h := newTestServer(nil, answer, nil, nil)

	rr := doJSON(t, h, "POST", "/v1/ask", `{"question":"What is RRF?","top_k":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.CacheHit || resp.LatencyMS != 1500 {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].ArxivID != "2401.0001" {
		t.Errorf("sources not mapped %+v", resp.Sources)
	}
}

func TestHandleAsk_GenerationFailure(t *testing.T) {
	h := newTestServer(nil, &fakeAnswer{err: domain.ErrGenerationFailed}, nil, nil)
	rr := doJSON(t, h, "POST", "/v1/ask", `{"question":"q"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestHandleIngest(t *testing.T) {
	ing := &fakeIngest{report: ingestuc.Report{
		Statuses: []domingest.Status{
			domingest.NewOK("2401.0001", 3),
			domingest.NewSkipped("2402.0002"),
		},
		Indexed:       1,
		Skipped:       1,
		ChunksWritten: 3,
	}}
	h := newTestServer(nil, nil, ing, nil)

	rr := doJSON(t, h, "POST", "/v1/ingest", `{"ids":["2401.0001","2402.0002"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Indexed != 1 || resp.Skipped != 1 || resp.ChunksWritten != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.Papers) != 2 || resp.Papers[0].Outcome != "ok" || resp.Papers[1].Outcome != "skipped" {
		t.Errorf("statuses not mapped %+v", resp.Papers)
	}
}

func TestHandleIngest_InvalidRequest(t *testing.T) {
	h := newTestServer(nil, nil, &fakeIngest{err: domain.ErrInvalidArgument}, nil)
	rr := doJSON(t, h, "POST", "/v1/ingest", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHandleStats(t *testing.T) {
	ing := &fakeIngest{stats: ingestuc.Stats{PapersTotal: 10, PapersIndexed: 8, ChunksTotal: 42}}
	h := newTestServer(nil, nil, ing, nil)

	rr := doJSON(t, h, "GET", "/v1/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp statsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PapersTotal != 10 || resp.PapersIndexed != 8 || resp.ChunksTotal != 42 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(nil, nil, nil, &fakeHealth{report: healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckError},
	}})

	rr := doJSON(t, h, "GET", "/healthz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "error" || resp.Checks["store"] != "error" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandleHealth_DegradedStaysUp(t *testing.T) {
	h := newTestServer(nil, nil, nil, &fakeHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"store":    healthuc.CheckOK,
			"embedder": healthuc.CheckError,
		},
	}})

	rr := doJSON(t, h, "GET", "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 while degraded", rr.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["embedder"] != "error" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRecoverer(t *testing.T) {
	panicky := &fakeHealth{}
	srv := NewServer(&fakeSearch{}, &fakeAnswer{}, &panickyIngest{}, panicky, nil, zap.NewNop())
	h := srv.Router()

	rr := doJSON(t, h, "GET", "/v1/stats", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("panic must produce a JSON error body: %v", err)
	}
	if resp.Code != codeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
}

type panickyIngest struct{}

func (p *panickyIngest) Run(_ context.Context, _ ingestuc.Request) (ingestuc.Report, error) {
	panic("boom")
}

func (p *panickyIngest) Stats(_ context.Context) (ingestuc.Stats, error) {
	panic("boom")
}
