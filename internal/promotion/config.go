package promotion

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/model"
)

// Config holds the gate thresholds.
type Config struct {
	CooldownHours       float64 `json:"cooldownHours"`
	MinQualityScore     float64 `json:"minQualityScore"`
	MinFeedbackScore    float64 `json:"minFeedbackScore"`
	StabilityWindowSize int     `json:"stabilityWindowSize"`
	StabilityThreshold  float64 `json:"stabilityThreshold"`
	MinScoreCount       int     `json:"minScoreCount"`
	ScoreWeight         float64 `json:"scoreWeight"`
	FeedbackWeight      float64 `json:"feedbackWeight"`
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		CooldownHours:       24,
		MinQualityScore:     0.7,
		MinFeedbackScore:    0.6,
		StabilityWindowSize: 10,
		StabilityThreshold:  0.1,
		MinScoreCount:       5,
		ScoreWeight:         0.7,
		FeedbackWeight:      0.3,
	}
}

// ConfigFromSettings converts the gate section of the application config.
func ConfigFromSettings(c config.GateConfig) Config {
	return Config{
		CooldownHours:       c.CooldownHours,
		MinQualityScore:     c.MinQualityScore,
		MinFeedbackScore:    c.MinFeedbackScore,
		StabilityWindowSize: c.StabilityWindowSize,
		StabilityThreshold:  c.StabilityThreshold,
		MinScoreCount:       c.MinScoreCount,
		ScoreWeight:         c.ScoreWeight,
		FeedbackWeight:      c.FeedbackWeight,
	}
}

// MinCombined is the combined score a request must reach.
func (c Config) MinCombined() float64 {
	return c.ScoreWeight*c.MinQualityScore + c.FeedbackWeight*c.MinFeedbackScore
}

// historyCap bounds the stored score history.
func (c Config) historyCap() int {
	return 2 * c.StabilityWindowSize
}

// Validate checks thresholds. Failures wrap model.ErrInvalidInput.
func (c Config) Validate() error {
	var errs []string
	for name, v := range map[string]float64{
		"cooldownHours":      c.CooldownHours,
		"minQualityScore":    c.MinQualityScore,
		"minFeedbackScore":   c.MinFeedbackScore,
		"stabilityThreshold": c.StabilityThreshold,
		"scoreWeight":        c.ScoreWeight,
		"feedbackWeight":     c.FeedbackWeight,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, name+" must be finite")
		}
	}
	if c.CooldownHours < 0 {
		errs = append(errs, "cooldownHours must be >= 0")
	}
	if c.MinQualityScore < 0 || c.MinQualityScore > 1 {
		errs = append(errs, "minQualityScore must be in [0,1]")
	}
	if c.MinFeedbackScore < 0 || c.MinFeedbackScore > 1 {
		errs = append(errs, "minFeedbackScore must be in [0,1]")
	}
	if c.StabilityWindowSize < 1 {
		errs = append(errs, "stabilityWindowSize must be >= 1")
	}
	if c.StabilityThreshold < 0 {
		errs = append(errs, "stabilityThreshold must be >= 0")
	}
	if c.MinScoreCount < 1 {
		errs = append(errs, "minScoreCount must be >= 1")
	}
	if c.ScoreWeight < 0 || c.FeedbackWeight < 0 {
		errs = append(errs, "weights must be >= 0")
	}
	if sum := c.ScoreWeight + c.FeedbackWeight; math.Abs(sum-1) > 1e-6 {
		errs = append(errs, fmt.Sprintf("scoreWeight + feedbackWeight must equal 1, got %.4f", sum))
	}
	if len(errs) > 0 {
		return model.InvalidInput("promotion: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ConfigPatch is a partial update. Nil fields keep their current value.
type ConfigPatch struct {
	CooldownHours       *float64 `json:"cooldownHours,omitempty"`
	MinQualityScore     *float64 `json:"minQualityScore,omitempty"`
	MinFeedbackScore    *float64 `json:"minFeedbackScore,omitempty"`
	StabilityWindowSize *int     `json:"stabilityWindowSize,omitempty"`
	StabilityThreshold  *float64 `json:"stabilityThreshold,omitempty"`
	MinScoreCount       *int     `json:"minScoreCount,omitempty"`
	ScoreWeight         *float64 `json:"scoreWeight,omitempty"`
	FeedbackWeight      *float64 `json:"feedbackWeight,omitempty"`
}

// Apply returns c with the non-nil fields of p merged in.
func (c Config) Apply(p ConfigPatch) Config {
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&c.CooldownHours, p.CooldownHours)
	setF(&c.MinQualityScore, p.MinQualityScore)
	setF(&c.MinFeedbackScore, p.MinFeedbackScore)
	setI(&c.StabilityWindowSize, p.StabilityWindowSize)
	setF(&c.StabilityThreshold, p.StabilityThreshold)
	setI(&c.MinScoreCount, p.MinScoreCount)
	setF(&c.ScoreWeight, p.ScoreWeight)
	setF(&c.FeedbackWeight, p.FeedbackWeight)
	return c
}
