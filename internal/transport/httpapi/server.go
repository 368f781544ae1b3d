// Package httpapi exposes the query service over HTTP: patent search,
// index stats, health, and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
	logpkg "github.com/grantstream/patentrag/internal/logger"
	"github.com/grantstream/patentrag/internal/metrics"
	ingestuc "github.com/grantstream/patentrag/internal/usecase/ingest"
	queryuc "github.com/grantstream/patentrag/internal/usecase/query"
)

const healthTimeout = 2 * time.Second

// Error codes returned in the error response body.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeValidationFailed = "validation_failed"
	codeProviderError    = "provider_error"
	codeIndexUnavailable = "index_unavailable"
	codeInternalError    = "internal_error"
)

// SearchService resolves search requests.
type SearchService interface {
	Search(ctx context.Context, query string, topK int, withAnswer bool) (queryuc.Answer, error)
}

// Ingestor loads a grant archive into the index.
type Ingestor interface {
	LoadArchive(ctx context.Context, locator string, maxRecords int) (ingestuc.Report, error)
}

// Server is the HTTP API over the query service and the vector index.
// ingest may be nil; the ingest endpoint then reports not implemented.
type Server struct {
	search    SearchService
	ingest    Ingestor
	store     index.Store
	logger    *zap.Logger
	ingesting atomic.Bool
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, ingest Ingestor, store index.Store, logger *zap.Logger) *Server {
	return &Server{search: search, ingest: ingest, store: store, logger: logger}
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router(apiKeys []string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/ingest", s.handleIngest)
		r.Get("/stats", s.handleStats)
	})

	return r
}

type searchRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k,omitempty"`
	WithAnswer bool   `json:"with_answer,omitempty"`
}

type searchHit struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title"`
	PatentType string  `json:"patent_type,omitempty"`
	Text       string  `json:"text"`
}

type searchResponse struct {
	Hits   []searchHit `json:"hits"`
	Total  int         `json:"total"`
	Answer string      `json:"answer,omitempty"`
}

// handleSearch handles POST /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}
	if req.TopK < 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must not be negative")
		return
	}

	answer, err := s.search.Search(r.Context(), req.Query, req.TopK, req.WithAnswer)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits := make([]searchHit, len(answer.Hits))
	for i, h := range answer.Hits {
		hits[i] = searchHit{
			ID:         h.ID,
			Score:      h.Score,
			Title:      h.Title,
			PatentType: h.PatentType,
			Text:       h.Text,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Hits:   hits,
		Total:  len(hits),
		Answer: answer.Summary,
	})
}

type ingestRequest struct {
	Locator    string `json:"locator"`
	MaxRecords int    `json:"max_records,omitempty"`
}

// handleIngest handles POST /v1/ingest. Loading runs in the background;
// the response only acknowledges the start. One load at a time.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeError(w, http.StatusNotImplemented, codeInternalError, "ingest is not configured")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Locator == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "locator is required")
		return
	}
	if req.MaxRecords < 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "max_records must not be negative")
		return
	}

	if !s.ingesting.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, codeValidationFailed, "an ingest run is already in progress")
		return
	}

	// Detached from the request context: the load outlives the response.
	go func() {
		defer s.ingesting.Store(false)
		report, err := s.ingest.LoadArchive(context.Background(), req.Locator, req.MaxRecords)
		if err != nil {
			s.logger.Error("ingest failed", zap.String("locator", req.Locator), zap.Error(err))
			return
		}
		s.logger.Info("ingest finished",
			zap.String("locator", req.Locator),
			zap.Int("indexed", report.Indexed),
			zap.Int("documents_seen", report.Stats.DocumentsSeen),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type statsResponse struct {
	IndexedRecords int `json:"indexed_records"`
}

// handleStats handles GET /v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{IndexedRecords: count})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth handles GET /health. The index backend is probed with a
// short timeout; a failing probe reports degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy", Checks: map[string]string{"index": "ok"}}
	httpStatus := http.StatusOK
	if _, err := s.store.Count(ctx); err != nil {
		resp.Status = "degraded"
		resp.Checks["index"] = "error"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrVectorDimMismatch,
		domain.ErrIndexUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrRerankProviderError,
		domain.ErrChatProviderError,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)

	switch {
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrVectorDimMismatch):
		writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
	case errors.Is(err, domain.ErrIndexUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeIndexUnavailable, msg)
	case errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrRerankProviderError),
		errors.Is(err, domain.ErrChatProviderError):
		writeError(w, http.StatusBadGateway, codeProviderError, msg)
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
