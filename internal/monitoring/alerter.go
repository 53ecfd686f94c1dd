package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRejectionRate AlertType = "rejection_rate"
	AlertSystemErrors  AlertType = "system_errors"
)

// Severity ranks alerts for the receiver.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// minDecisionsForRate keeps a handful of early rejections from paging.
const minDecisionsForRate = 5

// Alert is one breached threshold.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notification is the webhook payload. All alerts of one check travel
// together with the snapshot that raised them.
type Notification struct {
	Source   string          `json:"source"`
	Snapshot *HealthSnapshot `json:"snapshot"`
	Alerts   []Alert         `json:"alerts"`
}

// Alerter turns snapshots into alerts and delivers them to a webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  resilience.RetryConfig
}

// NewAlerter creates an Alerter. Without a webhook URL alerts are only
// logged.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("alert-webhook", "notify")
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  retry,
	}
}

// Evaluate returns the alerts snap raises, in a fixed order.
func (a *Alerter) Evaluate(snap *HealthSnapshot) []Alert {
	var alerts []Alert
	at := snap.CollectedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if a.cfg.RejectionRateThreshold > 0 &&
		snap.DecisionsTotal >= minDecisionsForRate &&
		snap.RejectionRate > a.cfg.RejectionRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertRejectionRate,
			Severity: SeverityMedium,
			Message: fmt.Sprintf(
				"Promotion rejection rate %.1f%% exceeds threshold %.1f%% (%d rejected / %d decisions in last %dh)",
				snap.RejectionRate*100, a.cfg.RejectionRateThreshold*100,
				snap.Rejected, snap.DecisionsTotal, snap.LookbackHours,
			),
			Details: map[string]any{
				"rejection_rate": snap.RejectionRate,
				"threshold":      a.cfg.RejectionRateThreshold,
				"by_code":        snap.RejectionsByCode,
			},
			Timestamp: at,
		})
	}

	if a.cfg.ErrorThreshold > 0 && snap.SystemErrors >= a.cfg.ErrorThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertSystemErrors,
			Severity: SeverityHigh,
			Message: fmt.Sprintf(
				"%d promotion attempt(s) failed with a system error in last %dh",
				snap.SystemErrors, snap.LookbackHours,
			),
			Details: map[string]any{
				"system_errors": snap.SystemErrors,
				"threshold":     a.cfg.ErrorThreshold,
			},
			Timestamp: at,
		})
	}
	return alerts
}

// Notify posts alerts to the webhook in one request. Server errors and
// network failures are retried with backoff. It is a no-op without a
// webhook URL or alerts.
func (a *Alerter) Notify(ctx context.Context, snap *HealthSnapshot, alerts []Alert) error {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return nil
	}

	payload, err := json.Marshal(Notification{Source: "content-gate", Snapshot: snap, Alerts: alerts})
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal notification")
	}

	err = resilience.Do(ctx, a.retry, func(ctx context.Context) error {
		return a.post(ctx, payload)
	})
	if err != nil {
		return eris.Wrapf(err, "monitoring: deliver %d alert(s)", len(alerts))
	}
	return nil
}

func (a *Alerter) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	zap.L().Debug("monitoring: webhook delivered", zap.Int("status", resp.StatusCode))
	return nil
}
