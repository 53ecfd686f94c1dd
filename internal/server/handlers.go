package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/orchestrator"
	"github.com/sells-group/content-gate/internal/policy"
	"github.com/sells-group/content-gate/internal/promotion"
	"github.com/sells-group/content-gate/internal/scorer"
)

type evaluateRequest struct {
	Text   string           `json:"text"`
	Target model.TargetSpec `json:"target"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := req.Target.Validate(); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Scorer.Evaluate(req.Text, req.Target))
}

type bilingualRequest struct {
	German  string           `json:"german"`
	English string           `json:"english"`
	Target  model.TargetSpec `json:"target"`
}

func (s *Server) handleEvaluateBilingual(w http.ResponseWriter, r *http.Request) {
	var req bilingualRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := req.Target.Validate(); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Scorer.EvaluateBilingual(req.German, req.English, req.Target))
}

type constraintsRequest struct {
	Text     string `json:"text"`
	Audience string `json:"audience"`
}

func (s *Server) handleConstraints(w http.ResponseWriter, r *http.Request) {
	var req constraintsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if req.Audience == "" {
		respondErr(w, model.InvalidInput("server: audience is required"))
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Constraints.Validate(req.Text, req.Audience))
}

type generateRequest struct {
	Prompt     string           `json:"prompt"`
	Target     model.TargetSpec `json:"target"`
	MaxRetries *int             `json:"maxRetries,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil || !s.deps.Orchestrator.Enabled() {
		respondErr(w, orchestrator.ErrNoGenerator)
		return
	}
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	maxRetries := s.deps.DefaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	out, err := s.deps.Orchestrator.Run(r.Context(), req.Prompt, req.Target, maxRetries)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	var req model.PromotionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	d, err := s.deps.Gate.Evaluate(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.deps.Gate.History(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": recs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Gate.Stats(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleResetCooldown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactID")
	if err := s.deps.Gate.ResetCooldown(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset", "artifactId": id})
}

func (s *Server) handleGetGateConfig(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Gate.Config())
}

func (s *Server) handlePatchGateConfig(w http.ResponseWriter, r *http.Request) {
	var patch promotion.ConfigPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondErr(w, err)
		return
	}
	cfg, err := s.deps.Gate.UpdateConfig(patch)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleGetScoringConfig(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Scorer.Config())
}

func (s *Server) handlePatchScoringConfig(w http.ResponseWriter, r *http.Request) {
	var patch scorer.ConfigPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondErr(w, err)
		return
	}
	cfg, err := s.deps.Scorer.UpdateConfig(patch)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

type audienceResponse struct {
	Audience string          `json:"audience"`
	Table    policy.Audience `json:"table"`
}

func (s *Server) handleGetAudience(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "audience")
	key, a, ok := s.deps.Policy.Audience(name)
	if !ok {
		respondError(w, http.StatusNotFound, "policy: unknown audience "+name)
		return
	}
	respondJSON(w, http.StatusOK, audienceResponse{Audience: key, Table: a})
}

func (s *Server) handlePatchAudience(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "audience")
	key, _, ok := s.deps.Policy.Audience(name)
	if !ok {
		respondError(w, http.StatusNotFound, "policy: unknown audience "+name)
		return
	}
	var patch policy.AudiencePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondErr(w, err)
		return
	}
	a, err := s.deps.Policy.PatchAudience(key, patch)
	if err != nil {
		respondErr(w, err)
		return
	}
	zap.L().Info("audience thresholds updated", zap.String("audience", key))
	respondJSON(w, http.StatusOK, audienceResponse{Audience: key, Table: a})
}
