package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/config"
)

// Checker runs periodic gate health checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig

	mu   sync.RWMutex
	last *HealthSnapshot
}

// NewChecker creates a background health checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Last returns the most recent snapshot, or nil before the first check.
func (c *Checker) Last() *HealthSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Run checks once, then on every tick. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting gate health checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			log.Info("gate health checker stopped")
			return
		}
		c.Check(ctx, log)
		select {
		case <-ctx.Done():
			log.Info("gate health checker stopped")
			return
		case <-ticker.C:
		}
	}
}

// Check collects one snapshot and sends any alerts it triggers.
func (c *Checker) Check(ctx context.Context, log *zap.Logger) []Alert {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("monitoring: failed to collect gate health", zap.Error(err))
		return nil
	}
	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered",
			zap.Int("decisions", snap.DecisionsTotal),
		)
		return nil
	}

	for _, a := range alerts {
		log.Warn("monitoring: alert triggered",
			zap.String("type", string(a.Type)),
			zap.String("severity", string(a.Severity)),
			zap.String("message", a.Message),
		)
	}
	if err := c.alerter.Notify(ctx, snap, alerts); err != nil {
		log.Error("monitoring: failed to send alerts", zap.Error(err))
	}
	return alerts
}
