package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

const weightTolerance = 1e-6

// Validate checks the configuration for the requirements of one CLI mode.
// All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "evaluate", "check":
		// Pure modes need no external resources.
	case "promote", "stats", "reset-cooldown":
		errs = append(errs, c.validateStore()...)
	case "generate":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		if c.Anthropic.Model == "" {
			errs = append(errs, "anthropic.model is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 50 {
		errs = append(errs, "batch.concurrency must be between 1 and 50")
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, "retry.max_retries must be >= 0")
	}
	errs = append(errs, c.validateScoring()...)
	errs = append(errs, c.validateGate()...)

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "memory":
		return nil
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("store.driver %q is not one of memory, sqlite, postgres", c.Store.Driver)}
	}
}

func (c *Config) validateScoring() []string {
	s := c.Scoring
	ws := []float64{s.WordLimitWeight, s.EmotionWeight, s.RepetitionWeight, s.ReadabilityWeight, s.StructureWeight}
	var sum float64
	for _, w := range ws {
		if w < 0 {
			return []string{"scoring weights must be >= 0"}
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return []string{fmt.Sprintf("scoring weights must sum to 1, got %.4f", sum)}
	}
	return nil
}

func (c *Config) validateGate() []string {
	g := c.Gate
	var errs []string
	if g.CooldownHours < 0 {
		errs = append(errs, "gate.cooldown_hours must be >= 0")
	}
	if g.MinQualityScore < 0 || g.MinQualityScore > 1 {
		errs = append(errs, "gate.min_quality_score must be between 0 and 1")
	}
	if g.MinFeedbackScore < 0 || g.MinFeedbackScore > 1 {
		errs = append(errs, "gate.min_feedback_score must be between 0 and 1")
	}
	if g.StabilityWindowSize < 1 {
		errs = append(errs, "gate.stability_window_size must be >= 1")
	}
	if g.MinScoreCount < 1 {
		errs = append(errs, "gate.min_score_count must be >= 1")
	}
	if g.StabilityThreshold < 0 {
		errs = append(errs, "gate.stability_threshold must be >= 0")
	}
	if g.ScoreWeight < 0 || g.FeedbackWeight < 0 {
		errs = append(errs, "gate weights must be >= 0")
	} else if math.Abs(g.ScoreWeight+g.FeedbackWeight-1) > weightTolerance {
		errs = append(errs, "gate.score_weight + gate.feedback_weight must equal 1")
	}
	return errs
}
