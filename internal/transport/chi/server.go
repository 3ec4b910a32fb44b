// Package chi implements the HTTP API: search, ask, ingest, stats and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/paperdex/internal/domain"
	"github.com/kailas-cloud/paperdex/internal/domain/search/filter"
	"github.com/kailas-cloud/paperdex/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/paperdex/internal/logger"
	"github.com/kailas-cloud/paperdex/internal/metrics"
	healthuc "github.com/kailas-cloud/paperdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/paperdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/paperdex/internal/usecase/search"
)

// Consumer contracts for the services the server fronts (ISP).
type (
	// SearchService executes retrieval.
	SearchService interface {
		Search(ctx context.Context, req searchuc.Request) (searchuc.Response, error)
	}

	// AnswerService synthesizes answers.
	AnswerService interface {
		Ask(ctx context.Context, question string, topK int) (domain.AnswerRecord, error)
	}

	// IngestService runs ingestion batches and reports corpus stats.
	IngestService interface {
		Run(ctx context.Context, req ingestuc.Request) (ingestuc.Report, error)
		Stats(ctx context.Context) (ingestuc.Stats, error)
	}

	// HealthService aggregates component health.
	HealthService interface {
		Check(ctx context.Context) healthuc.Report
	}
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        SearchService
	answer        AnswerService
	ingest        IngestService
	health        HealthService
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search SearchService,
	answer AnswerService,
	ingest IngestService,
	health HealthService,
	apiKeys []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		answer:  answer,
		ingest:  ingest,
		health:  health,
		apiKeys: apiKeys,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrPaperNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout),
	}
	return s
}

// Router assembles the API routes with middleware.
func (s *Server) Router() http.Handler {
	r := chirouter.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.wideEvent)
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(s.apiKeys))

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chirouter.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/ask", s.handleAsk)
		r.Post("/ingest", s.handleIngest)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// handleSearch handles POST /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cats, err := filter.New(req.Categories)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), searchuc.Request{
		Query:      req.Query,
		TopK:       req.TopK,
		Mode:       mode.Mode(req.SearchType),
		Categories: cats,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToDTO(&resp.Results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results:    items,
		Total:      len(items),
		SearchType: string(resp.Mode),
		Source:     resp.Source,
		Cached:     resp.Cached,
	})
}

// handleAsk handles POST /v1/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	record, err := s.answer.Ask(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Question:  record.Question,
		Answer:    record.Answer,
		Sources:   record.Sources,
		CacheHit:  record.CacheHit,
		LatencyMS: record.Latency.Milliseconds(),
		Generated: record.Generated,
	})
}

// handleIngest handles POST /v1/ingest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	report, err := s.ingest.Run(r.Context(), ingestuc.Request{
		IDs:        req.IDs,
		Category:   req.Category,
		MaxResults: req.MaxResults,
		Force:      req.Force,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]ingestStatusItem, len(report.Statuses))
	for i, st := range report.Statuses {
		items[i] = ingestStatusToDTO(st)
	}
	writeJSON(w, http.StatusOK, ingestResponse{
		Papers:        items,
		Indexed:       report.Indexed,
		Skipped:       report.Skipped,
		Failed:        report.Failed,
		ChunksWritten: report.ChunksWritten,
	})
}

// handleStats handles GET /v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingest.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		PapersTotal:   stats.PapersTotal,
		PapersIndexed: stats.PapersIndexed,
		ChunksTotal:   stats.ChunksTotal,
	})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves traffic; only a dead store takes the endpoint down.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// wideEvent emits one canonical log line per request and stores a
// request-scoped logger (carrying request_id) in the context.
func (s *Server) wideEvent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		reqLogger := s.logger.With(zap.String("request_id", requestID))
		ctx := logpkg.WithContext(r.Context(), reqLogger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", r.RemoteAddr),
			zap.Int("response_bytes", ww.BytesWritten()),
		)
	})
}

// recoverer turns handler panics into JSON 500s instead of chi's plain text.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	reqLogger := logpkg.FromContext(r.Context())
	reqLogger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	reqLogger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrEmptyInput,
		domain.ErrPaperNotFound,
		domain.ErrNotFound,
		domain.ErrEmbeddingProvider,
		domain.ErrGenerationFailed,
		domain.ErrIndexUnavailable,
		domain.ErrCacheUnavailable,
		domain.ErrTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
