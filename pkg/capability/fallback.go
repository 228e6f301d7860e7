package capability

import (
	"context"
	"log/slog"
)

// FallbackChain runs a primary capability and, when it fails, tries each
// fallback in order until one succeeds. The chain reports the primary's
// identifier so callers never see which leg produced the result; outcomes
// from a fallback leg are marked Degraded.
type FallbackChain struct {
	primary   Capability
	fallbacks []Capability
	executor  *Executor
	logger    *slog.Logger
}

// NewFallbackChain builds a chain. The executor drives each leg so polled
// legs still get the bounded poll loop.
func NewFallbackChain(executor *Executor, primary Capability, fallbacks ...Capability) *FallbackChain {
	return &FallbackChain{
		primary:   primary,
		fallbacks: fallbacks,
		executor:  executor,
		logger:    slog.Default().With("component", "capability.fallback"),
	}
}

// ID returns the primary capability's identifier.
func (f *FallbackChain) ID() string {
	return f.primary.ID()
}

// Execute runs the chain. The last leg's failure wins when every leg fails.
func (f *FallbackChain) Execute(ctx context.Context, in *Input) (*Outcome, error) {
	outcome := f.executor.Run(ctx, f.primary, in)
	if outcome.Succeeded() {
		return outcome, nil
	}

	for _, fallback := range f.fallbacks {
		if ctx.Err() != nil {
			break
		}

		f.logger.Info("capability failed, trying fallback",
			"tool", f.primary.ID(),
			"fallback", fallback.ID(),
			"class", string(outcome.Failure.Class),
			"failure", outcome.Failure.Message,
		)

		outcome = f.executor.Run(ctx, fallback, in)
		if outcome.Succeeded() {
			outcome.Degraded = true
			return outcome, nil
		}
	}

	return outcome, nil
}
