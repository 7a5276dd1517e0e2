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

	"github.com/sells-group/outreach-api/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertJobFailed          AlertType = "job_failed"
	AlertJobStalled         AlertType = "job_stalled"
	AlertContactFailureRate AlertType = "contact_failure_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitorConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitor config.
func NewAlerter(cfg config.MonitorConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.JobsFailed > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertJobFailed,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d enrichment job(s) failed in last %dh",
				snap.JobsFailed, snap.LookbackHours,
			),
			Details: map[string]any{
				"failed_jobs": snap.JobsFailed,
				"total_jobs":  snap.JobsTotal,
			},
			Timestamp: now,
		})
	}

	if snap.JobsStalled > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertJobStalled,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d RUNNING job(s) have not advanced recently",
				snap.JobsStalled,
			),
			Details: map[string]any{
				"stalled_jobs":    snap.JobsStalled,
				"stalled_job_ids": snap.StalledJobIDs,
			},
			Timestamp: now,
		})
	}

	// Rate alerts need a minimum sample to avoid firing on one bad contact.
	attempted := snap.ContactsProcessed + snap.ContactsFailed
	if attempted >= 5 && a.cfg.FailureRateThreshold > 0 && snap.ContactFailureRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertContactFailureRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Contact failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d attempted in last %dh)",
				snap.ContactFailureRate*100, a.cfg.FailureRateThreshold*100,
				snap.ContactsFailed, attempted, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.ContactFailureRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.ContactsFailed,
				"attempted":    attempted,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

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
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
