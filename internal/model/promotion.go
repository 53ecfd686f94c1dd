package model

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// PromotionStatus is the closed set of gate outcomes.
type PromotionStatus int

const (
	StatusApproved PromotionStatus = iota + 1
	StatusRejected
	StatusCooldown
	StatusInsufficientScore
	StatusUnstable
)

func (s PromotionStatus) String() string {
	switch s {
	case StatusApproved:
		return "APPROVED"
	case StatusRejected:
		return "REJECTED"
	case StatusCooldown:
		return "COOLDOWN"
	case StatusInsufficientScore:
		return "INSUFFICIENT_SCORE"
	case StatusUnstable:
		return "UNSTABLE"
	default:
		return "UNKNOWN"
	}
}

func (s PromotionStatus) MarshalText() ([]byte, error) {
	if s < StatusApproved || s > StatusUnstable {
		return nil, eris.Errorf("model: invalid promotion status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *PromotionStatus) UnmarshalText(b []byte) error {
	for _, v := range []PromotionStatus{StatusApproved, StatusRejected, StatusCooldown, StatusInsufficientScore, StatusUnstable} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return eris.Errorf("model: unknown promotion status %q", string(b))
}

// Rejection reason codes stored on promotion records.
const (
	ReasonCooldown                  = "cooldown"
	ReasonInsufficientScore         = "insufficient_score"
	ReasonUnstable                  = "unstable"
	ReasonInsufficientCombinedScore = "insufficient_combined_score"
	ReasonError                     = "error"
)

// PromotionRequest asks the gate to promote one artifact version.
type PromotionRequest struct {
	ArtifactID    string         `json:"artifactId"`
	Version       string         `json:"version"`
	QualityScore  float64        `json:"qualityScore"`
	FeedbackScore float64        `json:"feedbackScore"`
	Timestamp     time.Time      `json:"timestamp"`
	Segment       string         `json:"segment,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate rejects requests the gate cannot evaluate.
func (r PromotionRequest) Validate() error {
	if r.ArtifactID == "" {
		return InvalidInput("promotion: artifact id is required")
	}
	if !finite(r.QualityScore) || r.QualityScore < 0 || r.QualityScore > 1 {
		return InvalidInput("promotion: quality score must be in [0,1], got %.3f", r.QualityScore)
	}
	if !finite(r.FeedbackScore) || r.FeedbackScore < 0 || r.FeedbackScore > 1 {
		return InvalidInput("promotion: feedback score must be in [0,1], got %.3f", r.FeedbackScore)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PromotionRecord is an append-only audit entry for one promotion attempt.
type PromotionRecord struct {
	ID              string         `json:"id"`
	ArtifactID      string         `json:"artifactId"`
	Version         string         `json:"version"`
	QualityScore    float64        `json:"qualityScore"`
	FeedbackScore   float64        `json:"feedbackScore"`
	Timestamp       time.Time      `json:"timestamp"`
	Segment         string         `json:"segment,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Approved        bool           `json:"approved"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	RecordedAt      time.Time      `json:"recordedAt"`
}

// NewRecord derives an audit record from a request and its verdict.
func NewRecord(id string, req PromotionRequest, approved bool, reason string, recordedAt time.Time) PromotionRecord {
	rec := PromotionRecord{
		ID:            id,
		ArtifactID:    req.ArtifactID,
		Version:       req.Version,
		QualityScore:  req.QualityScore,
		FeedbackScore: req.FeedbackScore,
		Timestamp:     req.Timestamp,
		Segment:       req.Segment,
		Metadata:      req.Metadata,
		Approved:      approved,
		RecordedAt:    recordedAt,
	}
	if !approved {
		rec.RejectionReason = reason
	}
	return rec
}

// PromotionDecision is returned to callers for every promotion attempt.
type PromotionDecision struct {
	Status                 PromotionStatus `json:"status"`
	Approved               bool            `json:"approved"`
	Reason                 string          `json:"reason"`
	CooldownRemainingHours *float64        `json:"cooldownRemainingHours,omitempty"`
	ScoreDelta             *float64        `json:"scoreDelta,omitempty"`
	StabilityScore         *float64        `json:"stabilityScore,omitempty"`
	Recommendations        []string        `json:"recommendations,omitempty"`
}

// PromotionStats summarizes promotion history for one artifact.
type PromotionStats struct {
	ArtifactID       string     `json:"artifactId"`
	TotalAttempts    int        `json:"totalAttempts"`
	ApprovedCount    int        `json:"approvedCount"`
	SuccessRate      float64    `json:"successRate"`
	LastAttempt      *time.Time `json:"lastAttempt,omitempty"`
	LastPromotion    *time.Time `json:"lastPromotion,omitempty"`
	AvgQualityScore  float64    `json:"avgQualityScore"`
	AvgFeedbackScore float64    `json:"avgFeedbackScore"`
	StabilityScore   float64    `json:"stabilityScore"`
	ScoreSamples     int        `json:"scoreSamples"`
}

// Float returns a pointer to v for optional decision fields.
func Float(v float64) *float64 {
	return &v
}
