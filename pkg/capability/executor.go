package capability

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExecutorConfig configures the poll loop for polled capabilities.
type ExecutorConfig struct {
	// PollInterval is the delay between job status polls.
	// Default: 1 second
	PollInterval time.Duration

	// PollDeadline is the maximum total time to wait for a polled job.
	// Default: 2 minutes
	PollDeadline time.Duration

	// MaxPollAttempts bounds the number of polls regardless of deadline.
	// Default: 120
	MaxPollAttempts int
}

// Executor drives capabilities to a normalized Outcome.
//
// Immediate capabilities run inline. Polled capabilities are started and then
// polled at PollInterval until the job finishes, the deadline passes, or the
// attempt budget is spent. Panics inside a capability are contained and
// reported as internal failures.
type Executor struct {
	config ExecutorConfig
	logger *slog.Logger
}

// NewExecutor creates an executor, applying defaults for zero config fields.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 2 * time.Minute
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 120
	}
	return &Executor{
		config: cfg,
		logger: slog.Default().With("component", "capability.executor"),
	}
}

// Run executes a capability and always returns a non-nil Outcome. Failures
// of any kind, including panics and cancellation, surface as a failed
// outcome rather than an error.
func (e *Executor) Run(ctx context.Context, c Capability, in *Input) (outcome *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("capability panicked",
				"tool", c.ID(),
				"panic", r,
			)
			outcome = FailedOutcome(&Failure{
				Class:   FailureInternal,
				Tool:    c.ID(),
				Message: fmt.Sprintf("capability panicked: %v", r),
			})
		}
	}()

	started := time.Now()

	var err error
	if polled, ok := c.(PolledCapability); ok {
		outcome, err = e.runPolled(ctx, polled, in)
	} else {
		outcome, err = c.Execute(ctx, in)
	}

	if err != nil {
		e.logger.Warn("capability failed",
			"tool", c.ID(),
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return FailedOutcome(asFailure(c.ID(), err))
	}
	if outcome == nil {
		return FailedOutcome(&Failure{
			Class:   FailureInternal,
			Tool:    c.ID(),
			Message: "capability returned no outcome",
		})
	}

	e.logger.Debug("capability finished",
		"tool", c.ID(),
		"kind", string(outcome.Kind),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return outcome
}

// runPolled starts a remote job and polls it to completion.
func (e *Executor) runPolled(ctx context.Context, c PolledCapability, in *Input) (*Outcome, error) {
	jobID, err := c.Start(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}

	e.logger.Debug("polled job started",
		"tool", c.ID(),
		"job_id", jobID,
		"poll_interval", e.config.PollInterval.String(),
		"poll_deadline", e.config.PollDeadline.String(),
	)

	deadline := time.NewTimer(e.config.PollDeadline)
	defer deadline.Stop()
	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-deadline.C:
			return nil, &PollTimeoutError{
				Tool:     c.ID(),
				JobID:    jobID,
				Deadline: e.config.PollDeadline,
				Attempts: attempts,
			}

		case <-ticker.C:
			attempts++

			status, err := c.Poll(ctx, jobID)
			if err != nil {
				return nil, fmt.Errorf("failed to poll job %q: %w", jobID, err)
			}

			switch status.State {
			case JobDone:
				return c.Fetch(ctx, jobID)

			case JobFailed:
				message := status.Message
				if message == "" {
					message = "job failed upstream"
				}
				return nil, &Failure{
					Class:   FailureUpstream,
					Tool:    c.ID(),
					Message: message,
				}

			case JobPending, JobRunning:
				// Keep polling.

			default:
				return nil, fmt.Errorf("unknown job state %q for job %q", status.State, jobID)
			}

			if attempts >= e.config.MaxPollAttempts {
				return nil, &PollTimeoutError{
					Tool:     c.ID(),
					JobID:    jobID,
					Deadline: e.config.PollDeadline,
					Attempts: attempts,
				}
			}
		}
	}
}
