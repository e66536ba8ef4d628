// Package chi implements the HTTP API surface.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/domain/match"
	"github.com/reunite-labs/reunite/internal/domain/person"
	logpkg "github.com/reunite-labs/reunite/internal/logger"
	"github.com/reunite-labs/reunite/internal/metrics"
	healthuc "github.com/reunite-labs/reunite/internal/usecase/health"
	"github.com/reunite-labs/reunite/internal/usecase/rank"
)

// maxImageBytes caps uploaded photo size.
const maxImageBytes = 10 << 20

// reporter is the record lifecycle contract consumed by the transport.
type reporter interface {
	Report(ctx context.Context, kind person.Kind, d person.Details, image []byte, filename string) (person.Record, error)
	Get(ctx context.Context, kind person.Kind, id string) (person.Record, error)
	Resolve(ctx context.Context, kind person.Kind, id string, res person.Resolution) (person.Record, error)
	ConfirmIdentification(ctx context.Context, id string, res person.Resolution) (person.Record, error)
}

// ranker is the ranking contract consumed by the transport.
type ranker interface {
	Rank(ctx context.Context, kind person.Kind, q match.Query, profile match.WeightProfile, opts match.Options) (match.Result, error)
}

// lister fetches whole record collections.
type lister interface {
	FetchCandidates(ctx context.Context, kind person.Kind) ([]person.Record, error)
}

// embedder extracts the query embedding from an uploaded photo.
type embedder interface {
	EmbedFace(ctx context.Context, image []byte, filename string) ([]float32, error)
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SearchOptions carries the per-endpoint ranking knobs resolved from
// configuration.
type SearchOptions struct {
	Match    match.Options
	Reverse  match.Options
	Identify match.Options
	Nearest  match.Options
}

// Server is the HTTP API server.
type Server struct {
	reports       reporter
	matcher       ranker
	records       lister
	embedder      embedder
	handles       *rank.HandleStore
	health        healthChecker
	search        SearchOptions
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	reports reporter,
	matcher ranker,
	records lister,
	embedder embedder,
	handles *rank.HandleStore,
	health healthChecker,
	search SearchOptions,
	logger *zap.Logger,
) *Server {
	s := &Server{
		reports:  reports,
		matcher:  matcher,
		records:  records,
		embedder: embedder,
		handles:  handles,
		health:   health,
		search:   search,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrNoFaceDetected, http.StatusUnprocessableEntity, codeNoFaceDetected),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeRecordNotFound),
		sentinelHandler(domain.ErrAlreadyResolved, http.StatusConflict, codeAlreadyResolved),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrDependencyUnavailable, http.StatusServiceUnavailable, codeDependencyUnavailable),
	}
	return s
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()

	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/missing", s.handleReportMissing)
		r.Post("/unidentified", s.handleReportUnidentified)

		r.Get("/records/{kind}", s.handleListRecords)
		r.Get("/records/{kind}/{id}", s.handleGetRecord)
		r.Post("/records/{kind}/{id}/resolve", s.handleResolve)
		r.Post("/records/{id}/confirm", s.handleConfirm)

		r.Post("/search/match", s.handleSearchMatch)
		r.Post("/search/reverse", s.handleSearchReverse)
		r.Post("/search/identify", s.handleSearchIdentify)
		r.Post("/search/nearest", s.handleSearchNearest)
		r.Get("/search/results/{handle}", s.handleSearchResult)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToResponse(report))
}

// Error codes returned in the error response body.
const (
	codeBadRequest            = "bad_request"
	codeInvalidQuery          = "invalid_query"
	codeNoFaceDetected        = "no_face_detected"
	codeRecordNotFound        = "record_not_found"
	codeAlreadyResolved       = "already_resolved"
	codeVectorDimMismatch     = "vector_dim_mismatch"
	codeEmbeddingProvider     = "embedding_provider_error"
	codeDependencyUnavailable = "dependency_unavailable"
	codeInternalError         = "internal_error"
)

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
		domain.ErrInvalidQuery,
		domain.ErrNoFaceDetected,
		domain.ErrRecordNotFound,
		domain.ErrAlreadyResolved,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProvider,
		domain.ErrDependencyUnavailable,
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

// handleDomainError maps a use case error onto the response table, logging
// through the request-scoped logger installed by wideEventMiddleware.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
