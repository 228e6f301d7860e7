package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// backendFactories builds one fresh backend per named implementation.
// SQLite and Redis backends have their own integration tests; the contract
// tests here run against the backends with no external dependencies.
func backendFactories(t *testing.T) map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend {
			return NewMemoryBackend()
		},
		"file": func(t *testing.T) Backend {
			backend, err := NewFileBackend(filepath.Join(t.TempDir(), "usage.json"))
			if err != nil {
				t.Fatalf("failed to create file backend: %v", err)
			}
			return backend
		},
	}
}

func TestBackend_LoadMissing(t *testing.T) {
	for name, factory := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			record, err := backend.Load(context.Background(), "203.0.113.7::tok")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if record != nil {
				t.Errorf("Expected nil record for missing key, got %+v", record)
			}
		})
	}
}

func TestBackend_IncrementAndLoad(t *testing.T) {
	for name, factory := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()
			ctx := context.Background()

			record, err := backend.Increment(ctx, "203.0.113.7::tok")
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if record.Count != 1 {
				t.Errorf("Expected count 1 after first increment, got %d", record.Count)
			}
			if record.LastUsedAt.IsZero() {
				t.Error("Expected LastUsedAt to be set")
			}

			record, err = backend.Increment(ctx, "203.0.113.7::tok")
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if record.Count != 2 {
				t.Errorf("Expected count 2 after second increment, got %d", record.Count)
			}

			loaded, err := backend.Load(ctx, "203.0.113.7::tok")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded == nil || loaded.Count != 2 {
				t.Errorf("Expected loaded count 2, got %+v", loaded)
			}
		})
	}
}

func TestBackend_ConcurrentIncrements(t *testing.T) {
	const workers = 20
	const perWorker = 5

	for name, factory := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()
			ctx := context.Background()

			var wg sync.WaitGroup
			errCh := make(chan error, workers*perWorker)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						if _, err := backend.Increment(ctx, "shared::key"); err != nil {
							errCh <- err
						}
					}
				}()
			}
			wg.Wait()
			close(errCh)
			for err := range errCh {
				t.Fatalf("Increment failed: %v", err)
			}

			record, err := backend.Load(ctx, "shared::key")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if record.Count != workers*perWorker {
				t.Errorf("Expected count %d, got %d", workers*perWorker, record.Count)
			}
		})
	}
}

func TestBackend_Reset(t *testing.T) {
	for name, factory := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()
			ctx := context.Background()

			if _, err := backend.Increment(ctx, "k::"); err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if err := backend.Reset(ctx, "k::"); err != nil {
				t.Fatalf("Reset failed: %v", err)
			}

			record, err := backend.Load(ctx, "k::")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if record != nil {
				t.Errorf("Expected nil record after reset, got %+v", record)
			}

			// Resetting a missing key is a no-op.
			if err := backend.Reset(ctx, "absent::"); err != nil {
				t.Errorf("Expected no error resetting missing key, got %v", err)
			}
		})
	}
}

func TestBackend_Compact(t *testing.T) {
	for name, factory := range backendFactories(t) {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()
			ctx := context.Background()

			if _, err := backend.Increment(ctx, "old::"); err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if _, err := backend.Increment(ctx, "fresh::"); err != nil {
				t.Fatalf("Increment failed: %v", err)
			}

			// Nothing is older than a cutoff in the past.
			deleted, err := backend.Compact(ctx, time.Now().Add(-time.Hour))
			if err != nil {
				t.Fatalf("Compact failed: %v", err)
			}
			if deleted != 0 {
				t.Errorf("Expected 0 deleted, got %d", deleted)
			}

			// Everything is older than a cutoff in the future.
			deleted, err = backend.Compact(ctx, time.Now().Add(time.Hour))
			if err != nil {
				t.Fatalf("Compact failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("Expected 2 deleted, got %d", deleted)
			}

			record, err := backend.Load(ctx, "old::")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if record != nil {
				t.Errorf("Expected compacted record gone, got %+v", record)
			}
		})
	}
}

func TestFileBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	ctx := context.Background()

	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("failed to create file backend: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := backend.Increment(ctx, "203.0.113.7::tok"); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	backend.Close()

	reopened, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("failed to reopen file backend: %v", err)
	}
	defer reopened.Close()

	record, err := reopened.Load(ctx, "203.0.113.7::tok")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if record == nil || record.Count != 3 {
		t.Errorf("Expected persisted count 3, got %+v", record)
	}
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to seed corrupt file: %v", err)
	}

	if _, err := NewFileBackend(path); err == nil {
		t.Fatal("Expected error opening corrupt ledger, got nil")
	}
}
