package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Enrichment job metrics (within lookback window).
	JobsTotal     int      `json:"jobs_total"`
	JobsRunning   int      `json:"jobs_running"`
	JobsCompleted int      `json:"jobs_completed"`
	JobsFailed    int      `json:"jobs_failed"`
	JobsStalled   int      `json:"jobs_stalled"`
	StalledJobIDs []string `json:"stalled_job_ids,omitempty"`

	// Contact counters summed across the window's jobs.
	ContactsProcessed  int     `json:"contacts_processed"`
	ContactsFailed     int     `json:"contacts_failed"`
	ContactFailureRate float64 `json:"contact_failure_rate"`

	// Outreach metrics (within lookback window).
	OutreachSent      int     `json:"outreach_sent"`
	OutreachCompleted int     `json:"outreach_completed"`
	OutreachReplied   int     `json:"outreach_replied"`
	ReplyRate         float64 `json:"reply_rate"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
	// stallThreshold marks a RUNNING job as stalled when its counters have
	// not advanced for this long.
	stallThreshold time.Duration
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store, stallThreshold time.Duration) *Collector {
	return &Collector{store: st, stallThreshold: stallThreshold}
}

// Collect gathers a snapshot of system metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	jobs, err := c.store.ListJobs(ctx, store.JobFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list jobs")
	}

	snap.JobsTotal = len(jobs)
	for _, j := range jobs {
		switch j.Status {
		case model.JobStatusRunning:
			snap.JobsRunning++
			if c.stallThreshold > 0 && now.Sub(j.UpdatedAt) > c.stallThreshold {
				snap.JobsStalled++
				snap.StalledJobIDs = append(snap.StalledJobIDs, j.ID)
			}
		case model.JobStatusCompleted:
			snap.JobsCompleted++
		case model.JobStatusFailed:
			snap.JobsFailed++
		}
		snap.ContactsProcessed += j.ProcessedCount
		snap.ContactsFailed += j.FailedCount
	}
	if attempted := snap.ContactsProcessed + snap.ContactsFailed; attempted > 0 {
		snap.ContactFailureRate = float64(snap.ContactsFailed) / float64(attempted)
	}

	attempts, err := c.store.ListRecentOutreach(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list recent outreach")
	}

	snap.OutreachSent = len(attempts)
	for _, a := range attempts {
		if a.FeedbackStatus != model.FeedbackStatusCompleted {
			continue
		}
		snap.OutreachCompleted++
		if a.Outcome == model.OutcomeReplied {
			snap.OutreachReplied++
		}
	}
	if snap.OutreachCompleted > 0 {
		snap.ReplyRate = float64(snap.OutreachReplied) / float64(snap.OutreachCompleted)
	}

	return snap, nil
}
