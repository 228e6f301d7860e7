package billing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the time to wait after a file event before
// invalidating the ledger cache. Ledger writers replace the file with a
// rename, which can surface as several events in quick succession.
const DefaultDebounceInterval = 100 * time.Millisecond

// LedgerWatcher watches the order ledger file and invalidates the cached
// ledger when the file changes on disk.
type LedgerWatcher struct {
	watcher  *fsnotify.Watcher
	ledger   *OrderLedger
	logger   *slog.Logger
	path     string
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	timer   *time.Timer
}

// NewLedgerWatcher creates a watcher for the ledger's backing file.
func NewLedgerWatcher(ledger *OrderLedger, debounce time.Duration) (*LedgerWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}

	return &LedgerWatcher{
		watcher:  watcher,
		ledger:   ledger,
		logger:   slog.Default().With("component", "billing.watcher"),
		path:     ledger.path,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is cancelled or Stop
// is called. The ledger file is typically replaced by rename, so the parent
// directory is watched and events are filtered by name.
func (w *LedgerWatcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		close(w.doneCh)
	}()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	w.logger.Info("order ledger watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("order ledger watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("order ledger watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("order ledger file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.scheduleInvalidate()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}

			w.logger.Error("order ledger watcher error", "error", err)
			// Continue watching despite errors
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *LedgerWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	return nil
}

// shouldProcessEvent reports whether the event concerns the ledger file and
// one of the operations that changes its contents.
func (w *LedgerWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// scheduleInvalidate collapses bursts of events into a single cache
// invalidation after the debounce interval.
func (w *LedgerWatcher) scheduleInvalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("order ledger changed, invalidating cache", "path", w.path)
		w.ledger.Invalidate()
	})
}
