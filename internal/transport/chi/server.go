package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/record"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	"github.com/kailas-cloud/facetdex/internal/usecase/resolver"
)

const maxBodyBytes = 1 << 20

// FilterResolver resolves filters into facet pages.
type FilterResolver interface {
	FacetPages(ctx context.Context, f filter.Filter, reqs []facet.PageRequest) (resolver.Result, error)
	FacetPage(ctx context.Context, f filter.Filter, req facet.PageRequest) (facet.Page, error)
}

// TransactionBrowser pages matching transactions and lists their files.
type TransactionBrowser interface {
	Page(ctx context.Context, f filter.Filter, pageNumber, pageSize int) (record.TransactionPage, error)
	Files(ctx context.Context, transactionID int64) ([]record.File, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the facetdex HTTP API.
type Server struct {
	filters       FilterResolver
	transactions  TransactionBrowser
	health        HealthChecker
	maxPageSize   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxPageSize bounds the page_size parameter.
func NewServer(
	filters FilterResolver,
	transactions TransactionBrowser,
	health HealthChecker,
	maxPageSize int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		filters:      filters,
		transactions: transactions,
		health:       health,
		maxPageSize:  maxPageSize,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		keyErrorHandler,
		sentinelHandler(domain.ErrMalformedFilter, http.StatusBadRequest, codeMalformedFilter),
		sentinelHandler(domain.ErrInvalidPage, http.StatusBadRequest, codeInvalidPage),
		sentinelHandler(domain.ErrInvalidFacetType, http.StatusNotFound, codeFacetTypeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSearchBackend, http.StatusBadGateway, codeSearchBackend),
		sentinelHandler(domain.ErrBackendInconsistency, http.StatusInternalServerError, codeBackendInconsistency),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/filters/pages", s.FilterPages)
	r.Post("/filters/{type}/pages/{pageNumber}", s.FacetPage)
	r.Post("/transactions/pages/{pageNumber}", s.TransactionPages)
	r.Get("/transactions/{id}/files", s.TransactionFiles)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// FilterPages handles POST /filters/pages.
func (s *Server) FilterPages(w http.ResponseWriter, r *http.Request) {
	f, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}

	pageSize, err := s.pageSize(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	reqs := make([]facet.PageRequest, 0, len(facet.All()))
	for _, ft := range facet.All() {
		pageNumber := 1
		if raw := r.URL.Query().Get(ft.MachineName() + "_page"); raw != "" {
			if pageNumber, err = parsePageNumber(raw); err != nil {
				s.handleDomainError(w, r, err)
				return
			}
		}
		reqs = append(reqs, facet.PageRequest{Type: ft, PageNumber: pageNumber, PageSize: pageSize})
	}

	res, err := s.filters.FacetPages(r.Context(), f, reqs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, filterPagesToResponse(res))
}

// FacetPage handles POST /filters/{type}/pages/{pageNumber}.
func (s *Server) FacetPage(w http.ResponseWriter, r *http.Request) {
	ft, err := facet.Parse(gochi.URLParam(r, "type"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	pageNumber, err := parsePageNumber(gochi.URLParam(r, "pageNumber"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	pageSize, err := s.pageSize(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	f, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}

	page, err := s.filters.FacetPage(r.Context(), f, facet.PageRequest{
		Type:       ft,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// TransactionPages handles POST /transactions/pages/{pageNumber}.
func (s *Server) TransactionPages(w http.ResponseWriter, r *http.Request) {
	pageNumber, err := parsePageNumber(gochi.URLParam(r, "pageNumber"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	pageSize, err := s.pageSize(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	f, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}

	page, err := s.transactions.Page(r.Context(), f, pageNumber, pageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionPageToResponse(page))
}

// TransactionFiles handles GET /transactions/{id}/files.
func (s *Server) TransactionFiles(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(gochi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "transaction id must be a positive integer")
		return
	}

	files, err := s.transactions.Files(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]fileResponse, len(files))
	for i, f := range files {
		items[i] = fileToResponse(f)
	}
	writeJSON(w, http.StatusOK, fileListResponse{TransactionID: id, Files: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// A degraded cache still serves uncached results.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeFilter reads the wire filter body. It writes the error response itself.
func (s *Server) decodeFilter(w http.ResponseWriter, r *http.Request) (filter.Filter, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return filter.Filter{}, false
	}
	f, err := filter.Parse(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return filter.Filter{}, false
	}
	return f, true
}

// pageSize reads the optional page_size parameter; 0 selects the default.
func (s *Server) pageSize(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page_size")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: page_size must be a positive integer, got %q", domain.ErrInvalidPage, raw)
	}
	if s.maxPageSize > 0 && n > s.maxPageSize {
		return 0, fmt.Errorf("%w: page_size must not exceed %d, got %d", domain.ErrInvalidPage, s.maxPageSize, n)
	}
	return n, nil
}

func parsePageNumber(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: page number must be an integer >= 1, got %q", domain.ErrInvalidPage, raw)
	}
	return n, nil
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

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMalformedFilter,
		domain.ErrUnexpectedKey,
		domain.ErrMissingKey,
		domain.ErrInvalidPage,
		domain.ErrInvalidFacetType,
		domain.ErrNotFound,
		domain.ErrSearchBackend,
		domain.ErrBackendInconsistency,
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

// keyErrorHandler reports the offending filter key alongside the error code.
func keyErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	var ke *domain.KeyError
	if !errors.As(err, &ke) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    codeMalformedFilter,
		Message: msg,
		Key:     ke.Key,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger
	if id := logpkg.RequestID(r.Context()); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
