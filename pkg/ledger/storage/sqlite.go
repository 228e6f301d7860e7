package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// This backend provides durable storage and is suitable for single-instance
// deployments that outgrow the JSON file ledger.
//
// SQLiteBackend uses a write-ahead log (WAL) for better concurrent
// performance; increments run inside an upsert so concurrent chargers never
// lose counts.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns limits the connection pool. Default: 1 (single writer).
	MaxOpenConns int
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS usage_records (
	key          TEXT PRIMARY KEY,
	count        INTEGER NOT NULL DEFAULT 0,
	last_used_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_last_used ON usage_records(last_used_at);
`

// NewSQLiteBackend creates a new SQLite storage backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 1
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBackend{db: db, dbPath: cfg.DBPath}, nil
}

// Load retrieves the usage record for a key.
func (s *SQLiteBackend) Load(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT key, count, last_used_at FROM usage_records WHERE key = ?`, key)

	var record UsageRecord
	if err := row.Scan(&record.Key, &record.Count, &record.LastUsedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load usage record: %w", err)
	}
	return &record, nil
}

// Increment atomically adds one use to the key's record.
func (s *SQLiteBackend) Increment(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_records (key, count, last_used_at)
		VALUES (?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			count = count + 1,
			last_used_at = excluded.last_used_at`,
		key, now)
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage record: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT key, count, last_used_at FROM usage_records WHERE key = ?`, key)

	var record UsageRecord
	if err := row.Scan(&record.Key, &record.Count, &record.LastUsedAt); err != nil {
		return nil, fmt.Errorf("failed to read incremented record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit increment: %w", err)
	}

	return &record, nil
}

// Reset removes the record for a key.
func (s *SQLiteBackend) Reset(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to reset usage record: %w", err)
	}
	return nil
}

// Compact removes records not used since the given time.
func (s *SQLiteBackend) Compact(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE last_used_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to compact usage records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count compacted records: %w", err)
	}
	return int(deleted), nil
}

// Close closes the underlying database.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
