package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/content-gate/internal/model"
)

func TestStats(t *testing.T) {
	g, _, clock := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	_, err := g.Evaluate(ctx, request("story-1", 0.9, 0.8))
	require.NoError(t, err)
	approvedAt := clock.Now()
	clock.Advance(2 * time.Hour)
	_, err = g.Evaluate(ctx, request("story-1", 0.5, 0.6))
	require.NoError(t, err)

	stats, err := g.Stats(ctx, "story-1")
	require.NoError(t, err)

	assert.Equal(t, "story-1", stats.ArtifactID)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1, stats.ApprovedCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 0.7, stats.AvgQualityScore, 1e-9)
	assert.InDelta(t, 0.7, stats.AvgFeedbackScore, 1e-9)
	assert.Equal(t, 2, stats.ScoreSamples)
	assert.InDelta(t, 0.2828, stats.StabilityScore, 1e-3)
	require.NotNil(t, stats.LastAttempt)
	assert.True(t, stats.LastAttempt.Equal(clock.Now()))
	require.NotNil(t, stats.LastPromotion)
	assert.True(t, stats.LastPromotion.Equal(approvedAt))
}

func TestStats_UnknownArtifact(t *testing.T) {
	g, _, _ := newTestGate(t, DefaultConfig())

	stats, err := g.Stats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalAttempts)
	assert.Zero(t, stats.SuccessRate)
	assert.Nil(t, stats.LastAttempt)
	assert.Nil(t, stats.LastPromotion)
}

func TestHistory(t *testing.T) {
	g, _, clock := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	for _, q := range []float64{0.9, 0.4} {
		_, err := g.Evaluate(ctx, request("story-1", q, 0.9))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	recs, err := g.History(ctx, "story-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Approved)
	assert.Empty(t, recs[0].RejectionReason)
	assert.False(t, recs[1].Approved)
	assert.Equal(t, model.ReasonCooldown, recs[1].RejectionReason)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)

	_, err = g.History(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestResetCooldown(t *testing.T) {
	g, _, clock := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	_, err := g.Evaluate(ctx, request("story-1", 0.9, 0.9))
	require.NoError(t, err)
	clock.Advance(time.Hour)

	d, err := g.Evaluate(ctx, request("story-1", 0.9, 0.9))
	require.NoError(t, err)
	require.Equal(t, model.StatusCooldown, d.Status)

	require.NoError(t, g.ResetCooldown(ctx, "story-1"))

	d, err = g.Evaluate(ctx, request("story-1", 0.9, 0.9))
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, d.Status)

	assert.ErrorIs(t, g.ResetCooldown(ctx, ""), model.ErrInvalidInput)
}
