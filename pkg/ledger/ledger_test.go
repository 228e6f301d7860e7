package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"fileworks-hq/vulcan/pkg/identity"
	"fileworks-hq/vulcan/pkg/ledger/storage"
)

// staticChecker approves a fixed set of addresses.
type staticChecker struct {
	approved map[string]bool
}

func (c *staticChecker) IsApproved(ctx context.Context, address string) bool {
	return c.approved[address]
}

// failingBackend returns errors from every read.
type failingBackend struct {
	storage.Backend
}

func (f *failingBackend) Load(ctx context.Context, key string) (*storage.UsageRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestCheck_UnderLimit(t *testing.T) {
	ledger := New(storage.NewMemoryBackend(), nil, 5)
	ctx := context.Background()
	id := identity.Derive("203.0.113.7", "tok")

	status := ledger.Check(ctx, id)
	if !status.Allowed {
		t.Error("Expected fresh client to be allowed")
	}
	if status.Remaining != 5 {
		t.Errorf("Expected 5 remaining, got %d", status.Remaining)
	}
	if status.Premium {
		t.Error("Expected non-premium status")
	}
}

func TestCheck_AtLimit(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ledger := New(backend, nil, 5)
	ctx := context.Background()
	id := identity.Derive("203.0.113.7", "tok")

	for i := 0; i < 5; i++ {
		if _, err := ledger.Charge(ctx, id); err != nil {
			t.Fatalf("Charge failed: %v", err)
		}
	}

	status := ledger.Check(ctx, id)
	if status.Allowed {
		t.Error("Expected client at limit to be denied")
	}
	if status.Used != 5 {
		t.Errorf("Expected 5 used, got %d", status.Used)
	}
	if status.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", status.Remaining)
	}
}

func TestCheck_PremiumBypassesLimit(t *testing.T) {
	backend := storage.NewMemoryBackend()
	checker := &staticChecker{approved: map[string]bool{"203.0.113.7": true}}
	ledger := New(backend, checker, 1)
	ctx := context.Background()
	id := identity.Derive("203.0.113.7", "tok")

	for i := 0; i < 10; i++ {
		if _, err := ledger.Charge(ctx, id); err != nil {
			t.Fatalf("Charge failed: %v", err)
		}
	}

	status := ledger.Check(ctx, id)
	if !status.Allowed {
		t.Error("Expected premium client to be allowed past the limit")
	}
	if !status.Premium {
		t.Error("Expected premium status")
	}
	if status.Remaining != Unlimited {
		t.Errorf("Expected unlimited remaining, got %d", status.Remaining)
	}
}

func TestCheck_ReadFailureIsPermissive(t *testing.T) {
	ledger := New(&failingBackend{}, nil, 5)
	status := ledger.Check(context.Background(), identity.Derive("203.0.113.7", ""))
	if !status.Allowed {
		t.Error("Expected unreadable ledger to allow the request")
	}
}

func TestCharge_PropagatesErrors(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir() + "/usage.json")
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	ledger := New(backend, nil, 5)
	ctx := context.Background()
	id := identity.Derive("203.0.113.7", "tok")

	record, err := ledger.Charge(ctx, id)
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}
	if record.Count != 1 {
		t.Errorf("Expected count 1, got %d", record.Count)
	}
	if got := ledger.Remaining(record); got != 4 {
		t.Errorf("Expected 4 remaining, got %d", got)
	}
}

func TestRemaining_Clamped(t *testing.T) {
	ledger := New(storage.NewMemoryBackend(), nil, 5)

	if got := ledger.Remaining(nil); got != 5 {
		t.Errorf("Expected full allowance for nil record, got %d", got)
	}
	if got := ledger.Remaining(&storage.UsageRecord{Count: 9}); got != 0 {
		t.Errorf("Expected clamped 0 remaining, got %d", got)
	}
}

func TestCompact(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ledger := New(backend, nil, 5)
	ctx := context.Background()

	if _, err := ledger.Charge(ctx, identity.Derive("203.0.113.7", "")); err != nil {
		t.Fatalf("Charge failed: %v", err)
	}

	deleted, err := ledger.Compact(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}
}
