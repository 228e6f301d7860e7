package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// All data is lost when the process exits.
//
// MemoryBackend is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryBackend struct {
	// records maps client key to usage record.
	records map[string]*UsageRecord

	// mu protects access to records map.
	mu sync.RWMutex
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string]*UsageRecord),
	}
}

// Load retrieves the usage record for a key.
func (m *MemoryBackend) Load(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[key]
	if !exists {
		return nil, nil
	}

	// Return a copy so callers cannot mutate stored state.
	out := *record
	return &out, nil
}

// Increment atomically adds one use to the key's record.
func (m *MemoryBackend) Increment(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.records[key]
	if !exists {
		record = &UsageRecord{Key: key}
		m.records[key] = record
	}
	record.Count++
	record.LastUsedAt = time.Now().UTC()

	out := *record
	return &out, nil
}

// Reset removes the record for a key.
func (m *MemoryBackend) Reset(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// Compact removes records not used since the given time.
func (m *MemoryBackend) Compact(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key, record := range m.records {
		if record.LastUsedAt.Before(olderThan) {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases resources. No-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}
