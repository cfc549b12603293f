package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/grantmatch/internal/usecase/health"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the grantmatch HTTP API.
type Server struct {
	discovery     Discovery
	jobs          JobReader
	similar       SimilarRecommender
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. jobs and similar may be nil.
func NewServer(
	disc Discovery,
	jobs JobReader,
	sim SimilarRecommender,
	health HealthReporter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		discovery: disc,
		jobs:      jobs,
		similar:   sim,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, CodeNotConfigured),
		sentinelHandler(domain.ErrDependency, http.StatusBadGateway, CodeDependencyError),
	}
	return s
}

// Routes mounts the API endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/search-jobs/{jobId}", s.GetSearchJob)
	r.Post("/recommendations", s.Recommendations)
	r.Post("/grant-recommendations", s.GrantRecommendations)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.discovery.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:      nonNil(res.Results),
		Query:        res.Query,
		SearchTimeMs: float64(res.Elapsed.Microseconds()) / 1000,
	})
}

// GetSearchJob handles GET /search-jobs/{jobId}.
func (s *Server) GetSearchJob(w http.ResponseWriter, r *http.Request) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "jobId", chi.URLParam(r, "jobId"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter jobId")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "jobId: must be a UUID")
		return
	}

	if s.jobs == nil {
		s.handleDomainError(w, r, domain.ErrConfiguration)
		return
	}
	j, err := s.jobs.GetStatus(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// Recommendations handles POST /recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decode(w, r, &req) {
		return
	}

	var prefs discovery.Preferences
	if p := req.UserPreferences; p != nil {
		prefs = discovery.Preferences{Agency: p.Agency, Category: p.Category, NofoID: p.NofoID}
	}

	res, err := s.discovery.Recommend(r.Context(), req.Query, prefs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := recommendResponse{
		Grants:          nonNil(res.Grants),
		SearchMethod:    res.SearchMethod,
		ToolUsed:        res.ToolUsed,
		JobID:           res.JobID,
		RagStatus:       res.RagStatus,
		TargetNofo:      res.TargetNofo,
		Recommendations: res.Recommendations,
	}
	if res.Filters.Category != "" || res.Filters.Agency != "" {
		f := res.Filters
		resp.Filters = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

// GrantRecommendations handles POST /grant-recommendations.
func (s *Server) GrantRecommendations(w http.ResponseWriter, r *http.Request) {
	var req grantRecommendationsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if s.similar == nil {
		s.handleDomainError(w, r, domain.ErrConfiguration)
		return
	}

	rec, err := s.similar.Recommend(r.Context(), req.NofoID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if rec.Recommendations == nil {
		rec.Recommendations = []similar.Recommended{}
	}
	writeJSON(w, http.StatusOK, rec)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
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

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func nonNil(rs []result.Scored) []result.Scored {
	if rs == nil {
		return []result.Scored{}
	}
	return rs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler surfaces user-correctable input errors verbatim.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := domain.ErrValidation.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The sentinel's own message is returned so internals never reach the client.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
