package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-api/internal/config"
	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/resilience"
	"github.com/sells-group/outreach-api/internal/store"
	"github.com/sells-group/outreach-api/pkg/anthropic"
	"github.com/sells-group/outreach-api/pkg/youcom"
)

// Pipeline runs the enrichment flow for a batch of contacts: research the
// company, generate a personalized draft, and keep the job ledger current.
type Pipeline struct {
	cfg           *config.Config
	store         store.Store
	search        youcom.Client
	ai            anthropic.Client
	searchBreaker *resilience.CircuitBreaker
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, searchClient youcom.Client, aiClient anthropic.Client) *Pipeline {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Pipeline.SearchFailureThreshold,
		ResetTimeout:     time.Duration(cfg.Pipeline.SearchResetTimeoutSecs) * time.Second,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("enrich: search circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Pipeline{
		cfg:           cfg,
		store:         st,
		search:        searchClient,
		ai:            aiClient,
		searchBreaker: breaker,
	}
}

// Run processes the given contacts for one enrichment job, strictly in order.
// Contact failures are isolated: a failed contact bumps the job's failed
// counter and the loop moves on. The job always reaches a terminal status
// unless the job row itself is missing, in which case there is no ledger to
// update and Run logs and returns.
//
// Runs never retry and never checkpoint; a run that dies mid-batch leaves
// the job RUNNING until the stall monitor flags it.
func (p *Pipeline) Run(ctx context.Context, jobID string, contactIDs []string) {
	log := zap.L().With(zap.String("job_id", jobID), zap.Int("contacts", len(contactIDs)))

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		log.Error("enrich: load job", zap.Error(err))
		return
	}
	if job == nil {
		log.Error("enrich: job not found, nothing to run")
		return
	}
	if job.Terminal() {
		log.Warn("enrich: job already terminal, skipping run", zap.String("status", string(job.Status)))
		return
	}

	log.Info("enrich: run starting")

	profile, err := p.store.GetProfile(ctx, job.UserID)
	if err != nil || profile == nil {
		if err == nil {
			err = eris.Errorf("profile not found: %s", job.UserID)
		}
		log.Error("enrich: load profile", zap.Error(err))
		p.finishFailed(ctx, jobID, log)
		return
	}

	// One token immediately, then one per delay interval. The limiter
	// paces contact starts so there is no trailing sleep after the last.
	limiter := rate.NewLimiter(rate.Every(p.cfg.Pipeline.ContactDelay()), 1)

	for _, contactID := range contactIDs {
		// A cancelled run leaves the job RUNNING; the stall monitor
		// flags it. FAILED is reserved for the precondition path above.
		if err := limiter.Wait(ctx); err != nil {
			log.Error("enrich: run cancelled mid-batch", zap.Error(err))
			return
		}

		if err := p.processContact(ctx, profile, contactID); err != nil {
			log.Warn("enrich: contact failed",
				zap.String("contact_id", contactID),
				zap.Error(err),
			)
			if incErr := p.store.IncrementFailed(ctx, jobID); incErr != nil {
				log.Error("enrich: increment failed counter", zap.Error(incErr))
			}
			continue
		}

		if err := p.store.IncrementProcessed(ctx, jobID); err != nil {
			log.Error("enrich: increment processed counter", zap.Error(err))
		}
	}

	if err := p.store.CompleteJob(ctx, jobID, time.Now().UTC()); err != nil {
		log.Error("enrich: complete job", zap.Error(err))
		return
	}
	log.Info("enrich: run complete")
}

// processContact enriches a single contact through research and drafting.
// The research phase is best-effort and its result, empty or not, is always
// persisted before drafting begins. A panic anywhere in the contact's stages
// is recovered and returned as an error, so one bad contact cannot take down
// the rest of the batch.
func (p *Pipeline) processContact(ctx context.Context, profile *model.Profile, contactID string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = eris.Errorf("enrich: contact stage panicked: %v", rec)
		}
	}()

	contact, err := p.store.GetContact(ctx, contactID)
	if err != nil {
		return eris.Wrap(err, "enrich: load contact")
	}
	if contact == nil {
		return eris.Errorf("enrich: contact not found: %s", contactID)
	}

	if err := p.store.UpdateContactStatus(ctx, contactID, model.ContactStatusResearching); err != nil {
		return eris.Wrap(err, "enrich: mark researching")
	}

	research := p.researchContact(ctx, contact)
	if _, err := p.store.CreateResearch(ctx, research); err != nil {
		return eris.Wrap(err, "enrich: persist research")
	}

	message, tag := p.draftMessage(ctx, profile, contact, research)
	if err := p.store.SetContactDraft(ctx, contactID, message, tag); err != nil {
		return eris.Wrap(err, "enrich: persist draft")
	}
	return nil
}

// finishFailed moves the job to FAILED, tolerating a job that is already
// terminal.
func (p *Pipeline) finishFailed(ctx context.Context, jobID string, log *zap.Logger) {
	if err := p.store.FailJob(ctx, jobID, time.Now().UTC()); err != nil {
		log.Error("enrich: fail job", zap.Error(err))
	}
}
