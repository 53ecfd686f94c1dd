package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_Singleton(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.PromotionDecisions.WithLabelValues("COOLDOWN"))
	m.ObserveDecision("COOLDOWN")
	assert.Equal(t, before+1, testutil.ToFloat64(m.PromotionDecisions.WithLabelValues("COOLDOWN")))

	before = testutil.ToFloat64(m.GenerationAttempts.WithLabelValues("error"))
	m.ObserveAttempt(true, 0.5)
	assert.Equal(t, before+1, testutil.ToFloat64(m.GenerationAttempts.WithLabelValues("error")))

	before = testutil.ToFloat64(m.GenerationOutcomes.WithLabelValues("exhausted"))
	m.ObserveOutcome(false, true)
	assert.Equal(t, before+1, testutil.ToFloat64(m.GenerationOutcomes.WithLabelValues("exhausted")))
}
