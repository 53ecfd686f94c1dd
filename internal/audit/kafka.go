package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"

	"github.com/sells-group/content-gate/internal/resilience"
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string

	// Topic receives every event.
	Topic string

	// MaxAttempts bounds retries per event. Defaults to 3.
	MaxAttempts int

	// WriteTimeout bounds each write attempt. Defaults to 10s.
	WriteTimeout time.Duration
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by artifact id, so every
// decision for one artifact lands on the same partition. Writes are
// synchronous; callers that publish one artifact's events serially keep
// them in that order.
type KafkaPublisher struct {
	writer       messageWriter
	maxAttempts  int
	writeTimeout time.Duration
	backoff      resilience.Backoff
	now          func() time.Time
}

// NewKafkaPublisher validates cfg and opens a synchronous writer.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, eris.New("audit: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, eris.New("audit: topic required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(w, cfg), nil
}

func newKafkaPublisher(w messageWriter, cfg KafkaConfig) *KafkaPublisher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &KafkaPublisher{
		writer:       w,
		maxAttempts:  cfg.MaxAttempts,
		writeTimeout: cfg.WriteTimeout,
		backoff:      resilience.Backoff{Initial: 100 * time.Millisecond, Max: 2 * time.Second, Multiplier: 2},
		now:          time.Now,
	}
}

// Publish writes ev, retrying failed writes with backoff.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.PublishedAt.IsZero() {
		ev.PublishedAt = p.now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "audit: marshal event")
	}
	msg := kafka.Message{
		Key:   []byte(ev.Record.ArtifactID),
		Value: value,
		Time:  ev.PublishedAt,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(ev.Decision.Status.String())},
		},
	}

	err = resilience.Do(ctx, resilience.RetryConfig{
		MaxAttempts: p.maxAttempts,
		Backoff:     p.backoff,
		ShouldRetry: func(error) bool { return ctx.Err() == nil },
		OnRetry:     resilience.RetryLogger("kafka", "publish"),
	}, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
		return p.writer.WriteMessages(attemptCtx, msg)
	})
	if err != nil {
		return eris.Wrapf(err, "audit: publish %s after %d attempts", ev.Record.ID, p.maxAttempts)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return eris.Wrap(p.writer.Close(), "audit: close writer")
}
