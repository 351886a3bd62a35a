// Package chi is the HTTP transport: hand-written handlers on the chi
// router with a sentinel-error handler chain mapping domain errors to
// status codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/loreworks/queryon/internal/domain"
	"github.com/loreworks/queryon/internal/usecase/index"
	"github.com/loreworks/queryon/internal/version"
)

// Error codes returned to clients.
const (
	codeBadRequest          = "bad_request"
	codeUnauthorized        = "unauthorized"
	codeDomainNotFound      = "domain_not_found"
	codeInvalidDomainConfig = "invalid_domain_config"
	codeCompletionError     = "completion_provider_error"
	codeTimeout             = "query_timeout"
	codeInternal            = "internal_error"
)

// QueryProcessor resolves queries.
type QueryProcessor interface {
	Resolve(ctx context.Context, domainName, query string) (domain.Answer, error)
}

// PatternService is the curation slice of the pattern index.
type PatternService interface {
	Upsert(ctx context.Context, p domain.Pattern) (domain.Pattern, error)
	Search(ctx context.Context, domainName, query string, opts index.SearchOptions) ([]domain.PatternMatch, error)
}

// HealthChecker probes engine readiness.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	queries       QueryProcessor
	patterns      PatternService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(queries QueryProcessor, patterns PatternService, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		queries:  queries,
		patterns: patterns,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDomainNotFound, http.StatusNotFound, codeDomainNotFound),
		sentinelHandler(domain.ErrInvalidDomainConfig, http.StatusUnprocessableEntity, codeInvalidDomainConfig),
		sentinelHandler(domain.ErrQueryTimeout, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(domain.ErrCompletionProvider, http.StatusBadGateway, codeCompletionError),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeCompletionError),
	}
	return s
}

// Routes mounts the API on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1/domains/{domain}", func(r chi.Router) {
		r.Post("/query", s.Query)
		r.Post("/patterns", s.UpsertPattern)
		r.Get("/patterns/search", s.SearchPatterns)
	})
}

// Query handles POST /v1/domains/{domain}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	domainName := chi.URLParam(r, "domain")

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return
	}

	answer, err := s.queries.Resolve(r.Context(), domainName, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// UpsertPattern handles POST /v1/domains/{domain}/patterns.
func (s *Server) UpsertPattern(w http.ResponseWriter, r *http.Request) {
	domainName := chi.URLParam(r, "domain")

	var p domain.Pattern
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if p.Name == "" || p.Solution == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "pattern name and solution are required")
		return
	}
	p.Domain = domainName
	if p.Origin == "" {
		p.Origin = "curated"
	}

	created := p.ID == ""
	stored, err := s.patterns.Upsert(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, stored)
}

// SearchPatterns handles GET /v1/domains/{domain}/patterns/search.
func (s *Server) SearchPatterns(w http.ResponseWriter, r *http.Request) {
	domainName := chi.URLParam(r, "domain")

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "q is required")
		return
	}

	opts := index.SearchOptions{}
	if k := r.URL.Query().Get("k"); k != "" {
		topK, err := strconv.Atoi(k)
		if err != nil || topK <= 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "k must be a positive integer")
			return
		}
		opts.TopK = topK
	}
	if ms := r.URL.Query().Get("min_score"); ms != "" {
		minScore, err := strconv.ParseFloat(ms, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "min_score must be a number")
			return
		}
		opts.MinScore = minScore
	}
	if pt := r.URL.Query().Get("type"); pt != "" {
		if !domain.ValidPatternType(domain.PatternType(pt)) {
			writeError(w, http.StatusBadRequest, codeBadRequest, "unknown pattern type "+pt)
			return
		}
		opts.Type = domain.PatternType(pt)
	}

	matches, err := s.patterns.Search(r.Context(), domainName, q, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	type hit struct {
		Pattern domain.Pattern `json:"pattern"`
		Score   float64        `json:"score"`
	}
	hits := make([]hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, hit{Pattern: m.Pattern, Score: m.Score})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Check(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "degraded",
				"version": version.Version,
				"error":   err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleDomainError walks the sentinel chain, defaulting to 500.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("Unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
