// Package chi implements the HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
	dedupuc "github.com/mapfold/poidex/internal/usecase/dedup"
	healthuc "github.com/mapfold/poidex/internal/usecase/health"
	searchuc "github.com/mapfold/poidex/internal/usecase/search"
)

// Searcher is the search orchestration surface.
type Searcher interface {
	Search(ctx context.Context, anchor domain.Coordinates, radiusMeters float64) (searchuc.Result, error)
	SearchByQuery(ctx context.Context, freeText string, radiusMeters float64) (searchuc.Result, error)
	AddManual(ctx context.Context, rec domain.Record) (domain.Record, error)
}

// Maintenance is the batch reconciliation surface.
type Maintenance interface {
	Run(ctx context.Context, dryRun bool) (dedupuc.Outcome, error)
}

// HealthChecker is the health surface.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server wires the use cases to the router.
type Server struct {
	search      Searcher
	maintenance Maintenance
	health      HealthChecker
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, maintenance Maintenance, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		search:      search,
		maintenance: maintenance,
		health:      health,
		logger:      logger,
	}
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Post("/records", s.handleCreateRecord)
		r.Post("/maintenance/reconcile", s.handleReconcile)
	})
}

// handleSearch serves GET /v1/search. Accepts either lat+lng or a free-text
// q parameter, plus an optional radius_m.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	radius := 0.0
	if raw := q.Get("radius_m"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "radius_m must be a positive number")
			return
		}
		radius = parsed
	}

	var (
		result searchuc.Result
		err    error
	)
	switch {
	case q.Get("lat") != "" || q.Get("lng") != "":
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "lat and lng must be numbers")
			return
		}
		result, err = s.search.Search(r.Context(), domain.Coordinates{Lat: lat, Lng: lng}, radius)

	case q.Get("q") != "":
		result, err = s.search.SearchByQuery(r.Context(), q.Get("q"), radius)

	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed, "either lat+lng or q is required")
		return
	}

	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultToJSON(&result))
}

// handleCreateRecord serves POST /v1/records (manual entry).
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "name is required")
		return
	}

	created, err := s.search.AddManual(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordToJSON(&created))
}

// handleReconcile serves POST /v1/maintenance/reconcile. The operation is
// explicit and authenticated; dry_run=1 reports without deleting.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "1"

	outcome, err := s.maintenance.Run(r.Context(), dryRun)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToJSON(&outcome))
}

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	writeJSON(w, status, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}
