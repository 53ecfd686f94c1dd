package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors for the gate and the retry loop.
type Metrics struct {
	PromotionDecisions *prometheus.CounterVec
	GenerationAttempts *prometheus.CounterVec
	GenerationOutcomes *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	ScoringOverall     prometheus.Histogram
}

// NewMetrics returns the process-wide metrics, registering them on first
// use so repeated calls never double-register.
//
// Metrics:
//   - contentgate_promotion_decisions_total{status}
//   - contentgate_generation_attempts_total{result}
//   - contentgate_generation_outcomes_total{result}
//   - contentgate_generation_duration_seconds
//   - contentgate_scoring_overall
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			PromotionDecisions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "contentgate_promotion_decisions_total",
					Help: "Total number of promotion decisions by status",
				},
				[]string{"status"},
			),
			GenerationAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "contentgate_generation_attempts_total",
					Help: "Total number of generation calls by result",
				},
				[]string{"result"}, // "ok" or "error"
			),
			GenerationOutcomes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "contentgate_generation_outcomes_total",
					Help: "Total number of retry loop outcomes",
				},
				[]string{"result"}, // "success", "exhausted" or "failed"
			),
			GenerationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "contentgate_generation_duration_seconds",
					Help:    "Duration of single generation calls in seconds",
					Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
				},
			),
			ScoringOverall: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "contentgate_scoring_overall",
					Help:    "Distribution of overall quality scores",
					Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
				},
			),
		}
	})
	return globalMetrics
}

// ObserveDecision counts one promotion decision.
func (m *Metrics) ObserveDecision(status string) {
	m.PromotionDecisions.WithLabelValues(status).Inc()
}

// ObserveAttempt counts one generation call.
func (m *Metrics) ObserveAttempt(failed bool, seconds float64) {
	result := "ok"
	if failed {
		result = "error"
	}
	m.GenerationAttempts.WithLabelValues(result).Inc()
	m.GenerationDuration.Observe(seconds)
}

// ObserveOutcome counts one finished retry loop.
func (m *Metrics) ObserveOutcome(success, exhausted bool) {
	switch {
	case success:
		m.GenerationOutcomes.WithLabelValues("success").Inc()
	case exhausted:
		m.GenerationOutcomes.WithLabelValues("exhausted").Inc()
	default:
		m.GenerationOutcomes.WithLabelValues("failed").Inc()
	}
}

// ObserveScore records one overall quality score.
func (m *Metrics) ObserveScore(overall float64) {
	m.ScoringOverall.Observe(overall)
}
