// Package server exposes the scoring, constraint, generation and promotion
// operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/constraint"
	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/monitoring"
	"github.com/sells-group/content-gate/internal/orchestrator"
	"github.com/sells-group/content-gate/internal/policy"
	"github.com/sells-group/content-gate/internal/promotion"
	"github.com/sells-group/content-gate/internal/scorer"
)

// requestTimeout bounds ordinary requests. Generation runs its own
// per-attempt timeouts and is exempt.
const requestTimeout = 30 * time.Second

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// Pinger reports backend reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the engines the API serves.
type Deps struct {
	Scorer       *scorer.Engine
	Constraints  *constraint.Engine
	Orchestrator *orchestrator.Orchestrator
	Gate         *promotion.Gate
	Policy       *policy.Live
	Store        Pinger
	Checker      *monitoring.Checker

	// DefaultMaxRetries applies when a generate request omits maxRetries.
	DefaultMaxRetries int
	CORSOrigins       []string
}

// Server is the HTTP API.
type Server struct {
	deps Deps
}

// New creates a Server.
func New(deps Deps) *Server {
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}
	return &Server{deps: deps}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Post("/evaluate", s.handleEvaluate)
			r.Post("/evaluate/bilingual", s.handleEvaluateBilingual)
			r.Post("/constraints", s.handleConstraints)

			r.Post("/promotions", s.handlePromote)
			r.Get("/artifacts/{artifactID}/history", s.handleHistory)
			r.Get("/artifacts/{artifactID}/stats", s.handleStats)
			r.Post("/artifacts/{artifactID}/cooldown/reset", s.handleResetCooldown)

			r.Get("/config/gate", s.handleGetGateConfig)
			r.Patch("/config/gate", s.handlePatchGateConfig)
			r.Get("/config/scoring", s.handleGetScoringConfig)
			r.Patch("/config/scoring", s.handlePatchScoringConfig)
			r.Get("/config/policy/audiences/{audience}", s.handleGetAudience)
			r.Patch("/config/policy/audiences/{audience}", s.handlePatchAudience)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	status := http.StatusOK
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["store"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if s.deps.Orchestrator != nil {
		resp["generator"] = s.deps.Orchestrator.Enabled()
	}
	if s.deps.Checker != nil {
		if snap := s.deps.Checker.Last(); snap != nil {
			resp["gate"] = snap
		}
	}
	respondJSON(w, status, resp)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close() //nolint:errcheck
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return model.InvalidInput("server: decode request body: %v", err)
	}
	return nil
}

// respondErr maps err to a status code: input errors are 400, a missing
// generator is 503, everything else 500.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orchestrator.ErrNoGenerator):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zap.L().Error("server: request failed", zap.String("error", eris.ToString(err, false)))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
