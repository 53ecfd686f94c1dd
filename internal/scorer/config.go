// Package scorer implements weighted multi-dimension quality scoring for
// generated text.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/model"
)

// DefaultScoringConfig returns the standard dimension weights.
// Weights sum to 1.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		WordLimitWeight:   0.25,
		EmotionWeight:     0.20,
		RepetitionWeight:  0.15,
		ReadabilityWeight: 0.20,
		StructureWeight:   0.20,
	}
}

// WeightSum returns the sum of all dimension weights.
func WeightSum(c config.ScoringConfig) float64 {
	return c.WordLimitWeight + c.EmotionWeight + c.RepetitionWeight +
		c.ReadabilityWeight + c.StructureWeight
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	weights := map[string]float64{
		"word_limit_weight":  c.WordLimitWeight,
		"emotion_weight":     c.EmotionWeight,
		"repetition_weight":  c.RepetitionWeight,
		"readability_weight": c.ReadabilityWeight,
		"structure_weight":   c.StructureWeight,
	}
	for name, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", name))
		} else if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if sum := WeightSum(c); math.Abs(sum-1) > 1e-6 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.4f", sum))
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return model.InvalidInput("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ConfigPatch is a partial weight update. Nil fields keep their current
// value.
type ConfigPatch struct {
	WordLimitWeight   *float64 `json:"wordLimitWeight,omitempty"`
	EmotionWeight     *float64 `json:"emotionWeight,omitempty"`
	RepetitionWeight  *float64 `json:"repetitionWeight,omitempty"`
	ReadabilityWeight *float64 `json:"readabilityWeight,omitempty"`
	StructureWeight   *float64 `json:"structureWeight,omitempty"`
}

// Apply returns c with the patch's non-nil fields applied.
func (p ConfigPatch) Apply(c config.ScoringConfig) config.ScoringConfig {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.WordLimitWeight, p.WordLimitWeight)
	set(&c.EmotionWeight, p.EmotionWeight)
	set(&c.RepetitionWeight, p.RepetitionWeight)
	set(&c.ReadabilityWeight, p.ReadabilityWeight)
	set(&c.StructureWeight, p.StructureWeight)
	return c
}
