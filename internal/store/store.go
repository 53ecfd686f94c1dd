// Package store persists promotion history: the append-only record log,
// the last-promotion timestamp and the bounded score history per artifact.
package store

import (
	"context"
	"time"

	"github.com/sells-group/content-gate/internal/model"
)

// HistoryStore is the persistence contract of the promotion gate. Missing
// artifact state is a zero value, never an error.
type HistoryStore interface {
	// Records
	AppendRecord(ctx context.Context, rec model.PromotionRecord) error
	Records(ctx context.Context, artifactID string) ([]model.PromotionRecord, error)
	RecentRecords(ctx context.Context, since time.Time) ([]model.PromotionRecord, error)

	// Last promotion
	LastPromotion(ctx context.Context, artifactID string) (time.Time, bool, error)
	SetLastPromotion(ctx context.Context, artifactID string, at time.Time) error
	ClearLastPromotion(ctx context.Context, artifactID string) error

	// Score history, oldest first
	ScoreHistory(ctx context.Context, artifactID string) ([]float64, error)
	SetScoreHistory(ctx context.Context, artifactID string, scores []float64) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
