package ingest

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/config"
	"github.com/sells-group/outreach-api/internal/enrich"
	"github.com/sells-group/outreach-api/internal/store"
)

// ErrNoProfile is returned when an upload arrives for a user with no profile.
var ErrNoProfile = eris.New("ingest: profile not found")

// Gateway turns an uploaded CSV into persisted contacts and a dispatched
// enrichment job.
type Gateway struct {
	cfg    *config.Config
	store  store.Store
	runner *enrich.Runner
}

// NewGateway creates a Gateway.
func NewGateway(cfg *config.Config, st store.Store, runner *enrich.Runner) *Gateway {
	return &Gateway{cfg: cfg, store: st, runner: runner}
}

// Result summarizes an accepted upload. JobID identifies the ledger row that
// tracks enrichment progress from here on.
type Result struct {
	JobID     string `json:"job_id"`
	Total     int    `json:"total"`
	Skipped   int    `json:"skipped"`
	Truncated bool   `json:"truncated"`
}

// Upload ingests a CSV for the given user, creates the enrichment job, and
// fires off the run. It returns once the job is dispatched; callers poll the
// job ledger for progress.
//
// A CSV that yields zero usable contacts still produces a job, created
// directly in COMPLETED state so clients polling the ledger see a terminal
// answer rather than a job that never starts.
func (g *Gateway) Upload(ctx context.Context, userID string, csvFile io.Reader) (*Result, error) {
	profile, err := g.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load profile")
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	parsed, err := ParseContacts(csvFile, userID, g.cfg.Ingest.MaxContacts)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("user_id", userID),
		zap.Int("contacts", len(parsed.Contacts)),
		zap.Int("skipped", parsed.Skipped),
	)

	if len(parsed.Contacts) == 0 {
		job, err := g.store.CreateJob(ctx, userID, 0)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: create job")
		}
		if err := g.store.CompleteJob(ctx, job.ID, time.Now().UTC()); err != nil {
			return nil, eris.Wrap(err, "ingest: complete empty job")
		}
		log.Info("ingest: upload had no usable contacts")
		return &Result{JobID: job.ID, Skipped: parsed.Skipped}, nil
	}

	// Contacts must exist before their ledger row does.
	contactIDs, err := g.store.CreateContacts(ctx, parsed.Contacts)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: persist contacts")
	}

	job, err := g.store.CreateJob(ctx, userID, len(contactIDs))
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create job")
	}

	if err := g.runner.Dispatch(job.ID, contactIDs); err != nil {
		return nil, eris.Wrap(err, "ingest: dispatch enrichment")
	}

	log.Info("ingest: upload accepted", zap.String("job_id", job.ID))
	return &Result{
		JobID:     job.ID,
		Total:     len(parsed.Contacts),
		Skipped:   parsed.Skipped,
		Truncated: parsed.Truncated,
	}, nil
}
