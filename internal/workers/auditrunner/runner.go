package auditrunner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"auditpro/internal/domain"
	"auditpro/internal/metrics"
	"auditpro/internal/ports"
)

const (
	settleTimeout     = 5 * time.Second
	defaultInlinePoll = 100 * time.Millisecond
)

// Processor performs the audit work for a job's session id.
type Processor interface {
	Process(ctx context.Context, sessionID string) error
}

// SessionReader reads session state.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (domain.AuditSession, error)
}

// Runner drives a bounded pool of workers over the job queue.
type Runner struct {
	Jobs         ports.JobRepository
	Sessions     SessionReader
	Processor    Processor
	Concurrency  int
	PollInterval time.Duration
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

// Run starts the dispatcher and workers and blocks until ctx is done and
// every in-flight job has been settled.
func (r *Runner) Run(ctx context.Context) {
	if r.Concurrency < 1 {
		return
	}
	poll := r.PollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	log := r.Log.With().Str("component", "auditrunner").Logger()
	jobsCh := make(chan ports.AuditJob, r.Concurrency)

	// dispatcher loop
	go func() {
		defer close(jobsCh)
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			for {
				job, found, err := r.Jobs.ClaimNext(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Error().Err(err).Msg("job claim failed")
					}
					break
				}
				if !found {
					break
				}
				select {
				case jobsCh <- job:
				case <-ctx.Done():
					// claimed but never started
					_ = r.settle(ctx, log, job, ctx.Err())
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < r.Concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			wlog := log.With().Int("worker", idx).Logger()
			for job := range jobsCh {
				_ = r.handle(ctx, wlog, job)
			}
		}(i)
	}
	log.Info().Int("workers", r.Concurrency).Dur("poll_interval", poll).Msg("audit workers started")
	wg.Wait()
	log.Info().Msg("audit workers stopped")
}

// ProcessInline starts and processes one session synchronously with the same
// processor logic as the background workers. When a worker has already
// claimed the session's job, it waits for that worker to settle it instead.
func (r *Runner) ProcessInline(ctx context.Context, sessionID string) error {
	jobID, err := r.Jobs.StartJobForSession(ctx, sessionID)
	if errors.Is(err, ports.ErrNotFound) && r.Sessions != nil {
		return r.await(ctx, sessionID)
	}
	if err != nil {
		return err
	}
	log := r.Log.With().Str("component", "auditrunner").Str("mode", "inline").Logger()
	return r.handle(ctx, log, ports.AuditJob{ID: jobID, SessionID: sessionID})
}

// await polls the session until it is settled or ctx is done.
func (r *Runner) await(ctx context.Context, sessionID string) error {
	poll := r.PollInterval
	if poll <= 0 {
		poll = defaultInlinePoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		sess, err := r.Sessions.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		switch sess.Status {
		case domain.StatusCompleted:
			return nil
		case domain.StatusFailed:
			reason := "unknown error"
			if sess.FailureReason != nil {
				reason = *sess.FailureReason
			}
			return fmt.Errorf("audit %s failed: %s", sessionID, reason)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) handle(ctx context.Context, log zerolog.Logger, job ports.AuditJob) error {
	started := time.Now()
	procErr := r.Processor.Process(ctx, job.SessionID)
	settleErr := r.settle(ctx, log, job, procErr)
	outcome := metrics.OutcomeCompleted
	if procErr != nil {
		outcome = metrics.OutcomeFailed
	}
	r.Metrics.ObserveAudit(outcome, time.Since(started))
	if procErr != nil {
		return procErr
	}
	return settleErr
}

// settle records the job outcome. It must succeed during shutdown, so it
// runs detached from ctx cancellation.
func (r *Runner) settle(ctx context.Context, log zerolog.Logger, job ports.AuditJob, procErr error) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	log = log.With().Str("job_id", job.ID).Str("session_id", job.SessionID).Logger()
	if procErr != nil {
		log.Warn().Err(procErr).Msg("audit failed")
		if err := r.Jobs.MarkFailed(sctx, job.ID, procErr.Error()); err != nil {
			log.Error().Err(err).Msg("mark failed")
			return err
		}
		return nil
	}
	if err := r.Jobs.MarkCompleted(sctx, job.ID); err != nil {
		log.Error().Err(err).Msg("mark completed")
		return err
	}
	log.Info().Msg("audit completed")
	return nil
}
