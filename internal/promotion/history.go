package promotion

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/model"
)

// History returns every recorded attempt for artifactID, oldest first.
func (g *Gate) History(ctx context.Context, artifactID string) ([]model.PromotionRecord, error) {
	if artifactID == "" {
		return nil, model.InvalidInput("promotion: artifact id is required")
	}
	recs, err := g.store.Records(ctx, artifactID)
	if err != nil {
		return nil, eris.Wrapf(err, "promotion: history for %s", artifactID)
	}
	return recs, nil
}

// Stats summarizes the history of artifactID. An artifact never seen
// yields zero counts.
func (g *Gate) Stats(ctx context.Context, artifactID string) (model.PromotionStats, error) {
	stats := model.PromotionStats{ArtifactID: artifactID}
	recs, err := g.History(ctx, artifactID)
	if err != nil {
		return stats, err
	}
	scores, err := g.store.ScoreHistory(ctx, artifactID)
	if err != nil {
		return stats, eris.Wrapf(err, "promotion: score history for %s", artifactID)
	}
	last, ok, err := g.store.LastPromotion(ctx, artifactID)
	if err != nil {
		return stats, eris.Wrapf(err, "promotion: last promotion for %s", artifactID)
	}
	if ok {
		stats.LastPromotion = &last
	}

	stats.ScoreSamples = len(scores)
	stats.StabilityScore = sampleStdev(scores)
	stats.TotalAttempts = len(recs)
	if len(recs) == 0 {
		return stats, nil
	}

	var quality, feedback float64
	var latest time.Time
	for _, r := range recs {
		if r.Approved {
			stats.ApprovedCount++
		}
		quality += r.QualityScore
		feedback += r.FeedbackScore
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	n := float64(len(recs))
	stats.SuccessRate = float64(stats.ApprovedCount) / n
	stats.AvgQualityScore = quality / n
	stats.AvgFeedbackScore = feedback / n
	stats.LastAttempt = &latest
	return stats, nil
}

// ResetCooldown clears the last promotion of artifactID so the next
// request skips the cooldown gate.
func (g *Gate) ResetCooldown(ctx context.Context, artifactID string) error {
	if artifactID == "" {
		return model.InvalidInput("promotion: artifact id is required")
	}
	unlock := g.locks.Lock(artifactID)
	defer unlock()
	if err := g.store.ClearLastPromotion(ctx, artifactID); err != nil {
		return eris.Wrapf(err, "promotion: reset cooldown for %s", artifactID)
	}
	zap.L().Info("promotion: cooldown reset", zap.String("artifact_id", artifactID))
	return nil
}
