package storage

import (
	"context"
	"time"
)

// UsageRecord is the persisted usage state for a single client key.
type UsageRecord struct {
	// Key is the composite client key (address + "::" + token).
	Key string `json:"key"`

	// Count is the number of successful charged operations.
	Count int `json:"count"`

	// LastUsedAt is when the record was last incremented.
	LastUsedAt time.Time `json:"last_used_at"`
}

// Backend defines the interface for usage record persistence.
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Load retrieves the usage record for a key.
	// Returns nil if no record exists. Returns error on system failure.
	Load(ctx context.Context, key string) (*UsageRecord, error)

	// Increment atomically adds one use to the key's record, creating it if
	// absent, and returns the record after the increment.
	Increment(ctx context.Context, key string) (*UsageRecord, error)

	// Reset removes the record for a key. No-op if the record doesn't exist.
	Reset(ctx context.Context, key string) error

	// Compact removes records not used since the given time.
	// Returns the number of records deleted and any error.
	Compact(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the backend.
	// The backend should not be used after calling Close.
	Close() error
}
