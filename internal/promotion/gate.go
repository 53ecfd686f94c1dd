// Package promotion decides whether an artifact version may be promoted.
// Requests pass through an ordered pipeline of gates (cooldown, quality,
// stability, combined score); the first failing gate decides. Every
// attempt is recorded.
package promotion

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/audit"
	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/monitoring"
	"github.com/sells-group/content-gate/internal/store"
)

// Recommendation texts attached to approvals.
const (
	RecBestPractice     = "Excellent score: mark as best practice"
	RecNeedsOptimizing  = "Score needs work: further optimization recommended"
	RecSimilarSegments  = "Very positive feedback: recommend for similar segments"
	RecImproveFeedback  = "Feedback needs work: improve user satisfaction"
	RecBelowRecentTrend = "Score below recent average: improve consistency"
)

// trendWindow is the number of trailing scores behind the recent-average
// recommendation.
const trendWindow = 5

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithPublisher streams every decision to p.
func WithPublisher(p audit.Publisher) Option {
	return func(g *Gate) { g.publisher = p }
}

// Gate is the promotion state machine. It is safe for concurrent use:
// requests for one artifact are serialized, different artifacts proceed
// in parallel.
type Gate struct {
	store     store.HistoryStore
	publisher audit.Publisher
	metrics   *monitoring.Metrics
	now       func() time.Time
	locks     *keyedMutex

	mu  sync.RWMutex
	cfg Config
}

// New validates cfg and creates a Gate over st.
func New(st store.HistoryStore, cfg Config, opts ...Option) (*Gate, error) {
	if st == nil {
		return nil, eris.New("promotion: store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Gate{
		store:     st,
		publisher: audit.NopPublisher{},
		metrics:   monitoring.NewMetrics(),
		now:       time.Now,
		locks:     newKeyedMutex(),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the thresholds in force.
func (g *Gate) Config() Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// UpdateConfig merges patch into the live thresholds. An invalid result
// leaves the config unchanged.
func (g *Gate) UpdateConfig(patch ConfigPatch) (Config, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.cfg.Apply(patch)
	if err := next.Validate(); err != nil {
		return g.cfg, err
	}
	g.cfg = next
	zap.L().Info("promotion: config updated",
		zap.Float64("cooldown_hours", next.CooldownHours),
		zap.Float64("min_quality_score", next.MinQualityScore),
		zap.Float64("min_feedback_score", next.MinFeedbackScore),
		zap.Int("stability_window_size", next.StabilityWindowSize),
	)
	return next, nil
}

// verdict is the outcome of the gate pipeline before persistence.
type verdict struct {
	decision model.PromotionDecision
	code     string // rejection reason code, empty on approval
}

// artifactState is what the gates read from the store.
type artifactState struct {
	lastPromotion time.Time
	promoted      bool
	history       []float64
}

// Evaluate runs req through the gates and records the attempt. The error
// is non-nil only for invalid requests, which leave no trace. Store
// failures produce a REJECTED decision. Cooldowns start at the gate clock
// on approval; req.Timestamp is recorded but never moves a cooldown.
func (g *Gate) Evaluate(ctx context.Context, req model.PromotionRequest) (model.PromotionDecision, error) {
	if err := req.Validate(); err != nil {
		return model.PromotionDecision{}, err
	}
	cfg := g.Config()
	now := g.now().UTC()
	if req.Timestamp.IsZero() {
		req.Timestamp = now
	}

	unlock := g.locks.Lock(req.ArtifactID)
	v, err := g.evaluateLocked(ctx, req, cfg, now)
	if err != nil {
		v = systemError(err)
	}
	rec := model.NewRecord(uuid.New().String(), req, v.decision.Approved, v.code, now)
	if appendErr := g.store.AppendRecord(ctx, rec); appendErr != nil {
		zap.L().Error("promotion: append record failed",
			zap.String("artifact_id", req.ArtifactID),
			zap.Error(appendErr),
		)
	}
	// Publish before unlocking so events for one artifact leave in
	// decision order.
	g.report(ctx, rec, v, err)
	unlock()
	return v.decision, nil
}

func (g *Gate) evaluateLocked(ctx context.Context, req model.PromotionRequest, cfg Config, now time.Time) (verdict, error) {
	st, err := g.load(ctx, req.ArtifactID)
	if err != nil {
		return verdict{}, err
	}
	v := judge(req, cfg, now, st)

	// History is written before the last promotion time. A failed second
	// write rejects the attempt and leaves the new score in history.
	history := tail(append(append([]float64(nil), st.history...), req.QualityScore), cfg.historyCap())
	if err := g.store.SetScoreHistory(ctx, req.ArtifactID, history); err != nil {
		return verdict{}, eris.Wrap(err, "promotion: write score history")
	}
	if v.decision.Approved {
		if err := g.store.SetLastPromotion(ctx, req.ArtifactID, now); err != nil {
			return verdict{}, eris.Wrap(err, "promotion: write last promotion")
		}
		v.decision.Recommendations = recommendations(req, history)
	}
	return v, nil
}

func (g *Gate) load(ctx context.Context, artifactID string) (artifactState, error) {
	var st artifactState
	var err error
	st.lastPromotion, st.promoted, err = g.store.LastPromotion(ctx, artifactID)
	if err != nil {
		return st, eris.Wrap(err, "promotion: read last promotion")
	}
	st.history, err = g.store.ScoreHistory(ctx, artifactID)
	if err != nil {
		return st, eris.Wrap(err, "promotion: read score history")
	}
	return st, nil
}

// judge runs the ordered gates. The first failing gate decides.
func judge(req model.PromotionRequest, cfg Config, now time.Time, st artifactState) verdict {
	// 1. Cooldown
	if st.promoted {
		since := now.Sub(st.lastPromotion).Hours()
		if since < cfg.CooldownHours {
			remaining := math.Max(0, cfg.CooldownHours-since)
			return verdict{
				code: model.ReasonCooldown,
				decision: model.PromotionDecision{
					Status:                 model.StatusCooldown,
					Reason:                 fmt.Sprintf("cooldown active: %.1f hours remaining", remaining),
					CooldownRemainingHours: model.Float(remaining),
				},
			}
		}
	}

	// 2. Quality score
	if req.QualityScore < cfg.MinQualityScore {
		return verdict{
			code: model.ReasonInsufficientScore,
			decision: model.PromotionDecision{
				Status:     model.StatusInsufficientScore,
				Reason:     fmt.Sprintf("insufficient score: %.3f < %.3f", req.QualityScore, cfg.MinQualityScore),
				ScoreDelta: model.Float(req.QualityScore - cfg.MinQualityScore),
			},
		}
	}

	// 3. Stability, judged on history before this request.
	stability := 0.0
	if len(st.history) >= cfg.MinScoreCount {
		stability = sampleStdev(tail(st.history, cfg.StabilityWindowSize))
		if stability > cfg.StabilityThreshold {
			return verdict{
				code: model.ReasonUnstable,
				decision: model.PromotionDecision{
					Status:         model.StatusUnstable,
					Reason:         fmt.Sprintf("unstable scores: stdev %.3f > %.3f", stability, cfg.StabilityThreshold),
					StabilityScore: model.Float(stability),
				},
			}
		}
	}

	// 4. Combined score
	combined := cfg.ScoreWeight*req.QualityScore + cfg.FeedbackWeight*req.FeedbackScore
	minCombined := cfg.MinCombined()
	if combined < minCombined {
		return verdict{
			code: model.ReasonInsufficientCombinedScore,
			decision: model.PromotionDecision{
				Status:     model.StatusInsufficientScore,
				Reason:     fmt.Sprintf("insufficient combined score: %.3f < %.3f", combined, minCombined),
				ScoreDelta: model.Float(combined - minCombined),
			},
		}
	}

	// 5. Approval
	return verdict{
		decision: model.PromotionDecision{
			Status:         model.StatusApproved,
			Approved:       true,
			Reason:         "promotion approved: all criteria met",
			ScoreDelta:     model.Float(combined - minCombined),
			StabilityScore: model.Float(stability),
		},
	}
}

func recommendations(req model.PromotionRequest, history []float64) []string {
	recs := []string{}
	switch {
	case req.QualityScore > 0.9:
		recs = append(recs, RecBestPractice)
	case req.QualityScore < 0.8:
		recs = append(recs, RecNeedsOptimizing)
	}
	switch {
	case req.FeedbackScore > 0.8:
		recs = append(recs, RecSimilarSegments)
	case req.FeedbackScore < 0.7:
		recs = append(recs, RecImproveFeedback)
	}
	if len(history) >= trendWindow && mean(tail(history, trendWindow)) > req.QualityScore {
		recs = append(recs, RecBelowRecentTrend)
	}
	return recs
}

func systemError(err error) verdict {
	return verdict{
		code: model.ReasonError,
		decision: model.PromotionDecision{
			Status: model.StatusRejected,
			Reason: fmt.Sprintf("system error: %v", err),
		},
	}
}

// report logs, counts and publishes a decision.
func (g *Gate) report(ctx context.Context, rec model.PromotionRecord, v verdict, sysErr error) {
	d := v.decision
	fields := []zap.Field{
		zap.String("artifact_id", rec.ArtifactID),
		zap.String("version", rec.Version),
		zap.String("status", d.Status.String()),
		zap.Float64("quality_score", rec.QualityScore),
		zap.Float64("feedback_score", rec.FeedbackScore),
	}
	switch {
	case sysErr != nil:
		zap.L().Error("promotion: system error", append(fields, zap.Error(sysErr))...)
	case d.Approved:
		zap.L().Info("promotion: approved", fields...)
	default:
		zap.L().Info("promotion: rejected", append(fields, zap.String("reason", v.code))...)
	}

	g.metrics.ObserveDecision(d.Status.String())

	if err := g.publisher.Publish(ctx, audit.Event{Record: rec, Decision: d}); err != nil {
		zap.L().Warn("promotion: audit publish failed",
			zap.String("artifact_id", rec.ArtifactID),
			zap.Error(err),
		)
	}
}
