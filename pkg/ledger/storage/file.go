package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileBackend implements Backend using a single JSON document on disk.
// The document is replaced atomically on every mutation: the new contents
// are written to a temp file in the same directory and renamed over the
// ledger path, so readers never observe a partially written file.
type FileBackend struct {
	path string

	// mu serializes all access to records and the backing file.
	mu      sync.Mutex
	records map[string]*UsageRecord
}

// ledgerDocument is the on-disk shape of the usage ledger.
type ledgerDocument struct {
	Records map[string]*UsageRecord `json:"records"`
}

// NewFileBackend creates a file backend at the given path, loading existing
// records if the file is present. The parent directory is created if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	backend := &FileBackend{
		path:    path,
		records: make(map[string]*UsageRecord),
	}

	if err := backend.load(); err != nil {
		return nil, err
	}

	return backend, nil
}

// Load retrieves the usage record for a key.
func (f *FileBackend) Load(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	record, exists := f.records[key]
	if !exists {
		return nil, nil
	}

	out := *record
	return &out, nil
}

// Increment atomically adds one use to the key's record and persists the
// ledger. The in-memory state is only updated once the rename succeeds.
func (f *FileBackend) Increment(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	record, exists := f.records[key]
	if !exists {
		record = &UsageRecord{Key: key}
	}
	updated := *record
	updated.Count++
	updated.LastUsedAt = time.Now().UTC()

	f.records[key] = &updated
	if err := f.persist(); err != nil {
		// Roll back so a failed write does not charge the client.
		if exists {
			f.records[key] = record
		} else {
			delete(f.records, key)
		}
		return nil, err
	}

	out := updated
	return &out, nil
}

// Reset removes the record for a key and persists the ledger.
func (f *FileBackend) Reset(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	record, exists := f.records[key]
	if !exists {
		return nil
	}

	delete(f.records, key)
	if err := f.persist(); err != nil {
		f.records[key] = record
		return err
	}
	return nil
}

// Compact removes records not used since the given time.
func (f *FileBackend) Compact(ctx context.Context, olderThan time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := make(map[string]*UsageRecord)
	for key, record := range f.records {
		if record.LastUsedAt.Before(olderThan) {
			removed[key] = record
			delete(f.records, key)
		}
	}

	if len(removed) == 0 {
		return 0, nil
	}

	if err := f.persist(); err != nil {
		for key, record := range removed {
			f.records[key] = record
		}
		return 0, err
	}

	return len(removed), nil
}

// Close releases resources. No-op for the file backend.
func (f *FileBackend) Close() error {
	return nil
}

// load reads the ledger document from disk. A missing file starts an empty
// ledger; a corrupt file is an error so usage history is never silently
// discarded.
func (f *FileBackend) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read ledger file: %w", err)
	}

	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse ledger file %q: %w", f.path, err)
	}

	if doc.Records != nil {
		f.records = doc.Records
	}
	return nil
}

// persist writes the ledger document to a temp file and renames it over the
// ledger path. Callers must hold mu.
func (f *FileBackend) persist() error {
	doc := ledgerDocument{Records: f.records}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".usage-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}
