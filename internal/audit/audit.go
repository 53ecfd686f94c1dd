// Package audit streams promotion decisions to downstream consumers.
package audit

import (
	"context"
	"time"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/model"
)

// Event is one published promotion decision together with its record.
type Event struct {
	Record      model.PromotionRecord   `json:"record"`
	Decision    model.PromotionDecision `json:"decision"`
	PublishedAt time.Time               `json:"publishedAt"`
}

// Publisher delivers audit events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// New returns a Kafka publisher when brokers are configured and a
// NopPublisher otherwise.
func New(cfg config.AuditConfig) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}, nil
	}
	p, err := NewKafkaPublisher(KafkaConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
