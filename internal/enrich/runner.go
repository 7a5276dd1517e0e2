package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Runner supervises fire-and-forget enrichment runs. Each dispatched job gets
// its own goroutine with a detached context so run lifetime is not tied to
// the triggering HTTP request, a panic guard that fails the job ledger, and a
// per-run timeout ceiling.
type Runner struct {
	pipeline *Pipeline
	timeout  time.Duration

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

// NewRunner creates a Runner around the given pipeline.
func NewRunner(pipeline *Pipeline) *Runner {
	return &Runner{
		pipeline: pipeline,
		timeout:  pipeline.cfg.Pipeline.RunTimeout(),
		active:   make(map[string]struct{}),
	}
}

// Dispatch starts an enrichment run in the background. It returns immediately;
// progress is observable only through the job ledger. A job that is already
// in flight in this process is not dispatched twice.
func (r *Runner) Dispatch(jobID string, contactIDs []string) error {
	r.mu.Lock()
	if _, running := r.active[jobID]; running {
		r.mu.Unlock()
		return eris.Errorf("runner: job already in flight: %s", jobID)
	}
	r.active[jobID] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(jobID, contactIDs)
	return nil
}

func (r *Runner) run(jobID string, contactIDs []string) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.active, jobID)
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	// Last-resort guard. Panics inside a contact's stages are recovered by
	// the pipeline and counted as that contact's failure; this only catches
	// a panic in the run scaffolding itself.
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("runner: enrichment run panicked",
				zap.String("job_id", jobID),
				zap.Any("panic", rec),
			)
			r.pipeline.finishFailed(context.Background(), jobID, zap.L().With(zap.String("job_id", jobID)))
		}
	}()

	r.pipeline.Run(ctx, jobID, contactIDs)
}

// Active reports how many runs are currently in flight.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Drain blocks until all in-flight runs finish or ctx expires. It is called
// on shutdown; runs cut off here leave their jobs RUNNING for the stall
// monitor to flag.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "runner: drain timed out")
	}
}
