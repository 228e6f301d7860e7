// Package pipeline orchestrates one processing request end to end:
// quota admission, capability dispatch, artifact storage, and the
// charge-on-success accounting rule.
//
// Charging happens only after a capability produced a usable outcome, so a
// failed conversion never costs the client a free operation. A charge that
// cannot be persisted fails the request: quota spend is never silently
// dropped. Artifact storage failures degrade instead of failing: the caller
// gets the produced bytes back for direct streaming when the store cannot
// hold them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/identity"
	"fileworks-hq/vulcan/pkg/ledger"
	"fileworks-hq/vulcan/pkg/registry"
	"fileworks-hq/vulcan/pkg/telemetry/metrics"
)

// QuotaExceededError reports a client that spent its free allowance.
type QuotaExceededError struct {
	// Used is the number of charged operations.
	Used int

	// Limit is the free operation allowance.
	Limit int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d of %d free operations used", e.Used, e.Limit)
}

// ChargeFailedError reports a completed operation whose usage charge could
// not be persisted. The result is withheld from the client.
type ChargeFailedError struct {
	// Err is the underlying persistence failure.
	Err error
}

// Error implements the error interface.
func (e *ChargeFailedError) Error() string {
	return fmt.Sprintf("failed to persist usage charge: %v", e.Err)
}

// Unwrap exposes the underlying persistence failure.
func (e *ChargeFailedError) Unwrap() error { return e.Err }

// Result is the outcome of one processed request.
type Result struct {
	// Outcome is the capability's normalized result.
	Outcome *capability.Outcome

	// Artifact is the stored result, nil when the outcome is structured,
	// failed, or the store degraded to direct streaming.
	Artifact *artifact.Artifact

	// Premium reports whether the client bypassed the quota.
	Premium bool

	// Remaining is the free operations left after this request, or
	// ledger.Unlimited for premium clients.
	Remaining int
}

// Pipeline wires the admission, dispatch, and delivery stages.
type Pipeline struct {
	usage     *ledger.Ledger
	registry  *registry.Registry
	executor  *capability.Executor
	artifacts *artifact.Store
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// New creates a pipeline. The collector may be nil in tests.
func New(usage *ledger.Ledger, reg *registry.Registry, executor *capability.Executor, artifacts *artifact.Store, collector *metrics.Collector) *Pipeline {
	return &Pipeline{
		usage:     usage,
		registry:  reg,
		executor:  executor,
		artifacts: artifacts,
		metrics:   collector,
		logger:    slog.Default().With("component", "pipeline"),
	}
}

// Process runs one request. A QuotaExceededError means the client was not
// admitted; a registry.NotFoundError means the tool has no capability; a
// ChargeFailedError means the work finished but the usage charge could not
// be recorded. Capability failures are not errors: they come back inside
// Result.Outcome.
func (p *Pipeline) Process(ctx context.Context, id identity.Identity, tool string, in *capability.Input) (*Result, error) {
	status := p.usage.Check(ctx, id)
	p.recordDecision(status)
	if !status.Allowed {
		return nil, &QuotaExceededError{Used: status.Used, Limit: p.usage.FreeLimit()}
	}

	cap, err := p.registry.Resolve(tool)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	outcome := p.executor.Run(ctx, cap, in)
	if p.metrics != nil {
		p.metrics.Pipeline.RecordOutcome(cap.ID(), string(outcome.Kind), outcome.Degraded, time.Since(started))
	}

	result := &Result{
		Outcome:   outcome,
		Premium:   status.Premium,
		Remaining: status.Remaining,
	}

	if !outcome.Succeeded() {
		return result, nil
	}

	if !status.Premium {
		record, err := p.usage.Charge(ctx, id)
		if err != nil {
			p.logger.Error("failed to persist usage charge",
				"key", id.Key(),
				"tool", cap.ID(),
				"error", err,
			)
			if p.metrics != nil {
				p.metrics.Pipeline.RecordQuotaCharge("error")
			}
			return nil, &ChargeFailedError{Err: err}
		}
		if p.metrics != nil {
			p.metrics.Pipeline.RecordQuotaCharge("ok")
		}
		result.Remaining = p.usage.Remaining(record)
	}

	if outcome.Kind == capability.OutcomeInline {
		stored, err := p.artifacts.Put(ctx, outcome.File.Data, outcome.File.Filename, outcome.File.ContentType)
		if err != nil {
			p.logger.Warn("artifact store unavailable, degrading to direct stream",
				"tool", cap.ID(),
				"filename", outcome.File.Filename,
				"error", err,
			)
		} else {
			result.Artifact = stored
			if p.metrics != nil {
				p.metrics.Artifacts.RecordStored(stored.Size)
			}
		}
	}

	return result, nil
}

// IsNotFound reports whether an error from Process means the tool has no
// registered capability.
func IsNotFound(err error) bool {
	var notFound *registry.NotFoundError
	return errors.As(err, &notFound)
}

// recordDecision maps a quota status to the decision metric.
func (p *Pipeline) recordDecision(status ledger.Status) {
	if p.metrics == nil {
		return
	}
	switch {
	case status.Premium:
		p.metrics.Pipeline.RecordQuotaDecision("premium")
	case status.Allowed:
		p.metrics.Pipeline.RecordQuotaDecision("allowed")
	default:
		p.metrics.Pipeline.RecordQuotaDecision("denied")
	}
}
