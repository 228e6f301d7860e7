package ledger

import (
	"context"
	"log/slog"
	"time"

	"fileworks-hq/vulcan/pkg/billing"
	"fileworks-hq/vulcan/pkg/identity"
	"fileworks-hq/vulcan/pkg/ledger/storage"
)

// Unlimited is the Remaining value reported for premium clients.
const Unlimited = -1

// Status is the quota decision for a single client at a point in time.
type Status struct {
	// Premium reports whether the client bypasses the quota.
	Premium bool

	// Allowed reports whether the client may run another operation.
	Allowed bool

	// Used is the number of charged operations so far. Zero for premium.
	Used int

	// Remaining is the number of free operations left, or Unlimited for
	// premium clients.
	Remaining int
}

// Ledger combines a storage backend with the billing collaborator to make
// quota decisions.
type Ledger struct {
	backend   storage.Backend
	billing   billing.Checker
	freeLimit int
	logger    *slog.Logger
}

// New creates a Ledger. A nil checker means no client is ever premium.
func New(backend storage.Backend, checker billing.Checker, freeLimit int) *Ledger {
	return &Ledger{
		backend:   backend,
		billing:   checker,
		freeLimit: freeLimit,
		logger:    slog.Default().With("component", "ledger"),
	}
}

// Check returns the quota status for a client. Backend read failures are
// permissive: the client is allowed through and the failure is logged.
func (l *Ledger) Check(ctx context.Context, id identity.Identity) Status {
	if l.billing != nil && l.billing.IsApproved(ctx, id.Address) {
		return Status{Premium: true, Allowed: true, Remaining: Unlimited}
	}

	record, err := l.backend.Load(ctx, id.Key())
	if err != nil {
		l.logger.Warn("usage record unreadable, allowing request",
			"key", id.Key(),
			"error", err,
		)
		return Status{Allowed: true, Remaining: l.freeLimit}
	}

	used := 0
	if record != nil {
		used = record.Count
	}

	remaining := l.freeLimit - used
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Allowed:   used < l.freeLimit,
		Used:      used,
		Remaining: remaining,
	}
}

// Charge records one completed operation against the client and returns the
// record after the increment. Unlike Check, persistence failures propagate.
func (l *Ledger) Charge(ctx context.Context, id identity.Identity) (*storage.UsageRecord, error) {
	record, err := l.backend.Increment(ctx, id.Key())
	if err != nil {
		return nil, err
	}

	l.logger.Debug("usage charged",
		"key", id.Key(),
		"count", record.Count,
		"limit", l.freeLimit,
	)
	return record, nil
}

// Remaining returns the free operations left after a given record, clamped
// at zero. A nil record means the full allowance.
func (l *Ledger) Remaining(record *storage.UsageRecord) int {
	if record == nil {
		return l.freeLimit
	}
	remaining := l.freeLimit - record.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FreeLimit returns the configured free operation allowance.
func (l *Ledger) FreeLimit() int {
	return l.freeLimit
}

// Compact removes records idle since the cutoff, returning how many were
// deleted.
func (l *Ledger) Compact(ctx context.Context, olderThan time.Time) (int, error) {
	deleted, err := l.backend.Compact(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		l.logger.Info("compacted usage ledger",
			"deleted", deleted,
			"older_than", olderThan,
		)
	}
	return deleted, nil
}

// Close releases the storage backend.
func (l *Ledger) Close() error {
	return l.backend.Close()
}
