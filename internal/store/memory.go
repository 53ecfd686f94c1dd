package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/content-gate/internal/model"
)

// MemoryStore keeps history in process memory. State is lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.PromotionRecord
	last    map[string]time.Time
	scores  map[string][]float64
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		last:   make(map[string]time.Time),
		scores: make(map[string][]float64),
	}
}

func (s *MemoryStore) AppendRecord(_ context.Context, rec model.PromotionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Metadata = cloneMetadata(rec.Metadata)
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Records(_ context.Context, artifactID string) ([]model.PromotionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.PromotionRecord{}
	for _, r := range s.records {
		if r.ArtifactID == artifactID {
			r.Metadata = cloneMetadata(r.Metadata)
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) RecentRecords(_ context.Context, since time.Time) ([]model.PromotionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.PromotionRecord{}
	for _, r := range s.records {
		if !r.RecordedAt.Before(since) {
			r.Metadata = cloneMetadata(r.Metadata)
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) LastPromotion(_ context.Context, artifactID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.last[artifactID]
	return t, ok, nil
}

func (s *MemoryStore) SetLastPromotion(_ context.Context, artifactID string, at time.Time) error {
	s.mu.Lock()
	s.last[artifactID] = at
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearLastPromotion(_ context.Context, artifactID string) error {
	s.mu.Lock()
	delete(s.last, artifactID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ScoreHistory(_ context.Context, artifactID string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float64{}, s.scores[artifactID]...), nil
}

func (s *MemoryStore) SetScoreHistory(_ context.Context, artifactID string, scores []float64) error {
	s.mu.Lock()
	s.scores[artifactID] = append([]float64{}, scores...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error    { return nil }
func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
