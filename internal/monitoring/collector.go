package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/content-gate/internal/model"
)

// HealthSnapshot is a point-in-time view of gate activity.
type HealthSnapshot struct {
	// Decisions within the lookback window.
	DecisionsTotal    int            `json:"decisions_total"`
	Approved          int            `json:"approved"`
	Rejected          int            `json:"rejected"`
	SystemErrors      int            `json:"system_errors"`
	RejectionRate     float64        `json:"rejection_rate"`
	RejectionsByCode  map[string]int `json:"rejections_by_code"`
	AvgQualityScore   float64        `json:"avg_quality_score"`
	AvgFeedbackScore  float64        `json:"avg_feedback_score"`
	ArtifactsObserved int            `json:"artifacts_observed"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RecordSource is the store capability the collector needs.
type RecordSource interface {
	RecentRecords(ctx context.Context, since time.Time) ([]model.PromotionRecord, error)
}

// Collector summarizes recent promotion records.
type Collector struct {
	source RecordSource
	now    func() time.Time
}

// NewCollector creates a collector over src.
func NewCollector(src RecordSource) *Collector {
	return &Collector{source: src, now: time.Now}
}

// defaultLookbackHours applies when no window is configured.
const defaultLookbackHours = 24

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*HealthSnapshot, error) {
	if lookbackHours <= 0 {
		lookbackHours = defaultLookbackHours
	}
	now := c.now().UTC()
	snap := &HealthSnapshot{
		RejectionsByCode: map[string]int{},
		LookbackHours:    lookbackHours,
		CollectedAt:      now,
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	recs, err := c.source.RecentRecords(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: recent records")
	}

	snap.DecisionsTotal = len(recs)
	artifacts := make(map[string]struct{})
	var quality, feedback float64
	for _, r := range recs {
		artifacts[r.ArtifactID] = struct{}{}
		quality += r.QualityScore
		feedback += r.FeedbackScore
		if r.Approved {
			snap.Approved++
			continue
		}
		snap.Rejected++
		snap.RejectionsByCode[r.RejectionReason]++
		if r.RejectionReason == model.ReasonError {
			snap.SystemErrors++
		}
	}
	snap.ArtifactsObserved = len(artifacts)

	if snap.DecisionsTotal > 0 {
		n := float64(snap.DecisionsTotal)
		snap.RejectionRate = float64(snap.Rejected) / n
		snap.AvgQualityScore = quality / n
		snap.AvgFeedbackScore = feedback / n
	}
	return snap, nil
}
