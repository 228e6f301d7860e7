package artifact

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// idBytes is the identifier entropy in bytes. 12 bytes give 96 bits, hex
// encoded to 24 characters.
const idBytes = 12

// Artifact is the stored metadata for one processing result.
type Artifact struct {
	// ID is the hex-encoded random identifier.
	ID string

	// Filename is the suggested download filename.
	Filename string

	// ContentType is the MIME type served on download.
	ContentType string

	// Size is the blob size in bytes.
	Size int64

	// CreatedAt is when the artifact was stored.
	CreatedAt time.Time

	// ExpiresAt is when the artifact stops being served.
	ExpiresAt time.Time
}

// StoreConfig configures the artifact store.
type StoreConfig struct {
	// Dir is the blob directory.
	Dir string

	// DBPath is the path to the metadata SQLite database.
	DBPath string

	// TTL is how long artifacts stay downloadable.
	// Default: 30 minutes
	TTL time.Duration
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size         INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_expires ON artifacts(expires_at);
`

// Store persists artifacts on disk with metadata in SQLite.
type Store struct {
	dir    string
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewStore creates the blob directory if needed and opens the metadata
// database.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("artifact directory cannot be empty")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("artifact db path cannot be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize artifact schema: %w", err)
	}

	return &Store{
		dir:    cfg.Dir,
		db:     db,
		ttl:    cfg.TTL,
		logger: slog.Default().With("component", "artifact.store"),
		now:    time.Now,
	}, nil
}

// Put stores a blob and returns its artifact metadata. The blob is written
// to a temp file and renamed into place before the metadata row appears, so
// a stored identifier always has readable contents behind it.
func (s *Store) Put(ctx context.Context, data []byte, filename, contentType string) (*Artifact, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	if filename == "" {
		filename = id
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blobPath := s.blobPath(id)
	tmp, err := os.CreateTemp(s.dir, ".artifact-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to place blob: %w", err)
	}

	now := s.now().UTC()
	artifact := &Artifact{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, filename, content_type, size, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		artifact.ID, artifact.Filename, artifact.ContentType, artifact.Size,
		artifact.CreatedAt.UnixNano(), artifact.ExpiresAt.UnixNano())
	if err != nil {
		os.Remove(blobPath)
		return nil, fmt.Errorf("failed to record artifact metadata: %w", err)
	}

	s.logger.Debug("artifact stored",
		"id", artifact.ID,
		"filename", artifact.Filename,
		"size", artifact.Size,
		"expires_at", artifact.ExpiresAt,
	)
	return artifact, nil
}

// Open returns the metadata and an open reader for a live artifact.
// Expired artifacts return an ExpiredError; unknown identifiers return
// ErrNotFound. The caller owns closing the reader.
func (s *Store) Open(ctx context.Context, id string) (*Artifact, io.ReadCloser, error) {
	artifact, err := s.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if s.now().UTC().After(artifact.ExpiresAt) {
		return nil, nil, &ExpiredError{ID: id, ExpiredAt: artifact.ExpiresAt}
	}

	reader, err := os.Open(s.blobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			// Metadata without a blob means a sweep got halfway; treat
			// the artifact as gone.
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open blob %q: %w", id, err)
	}

	return artifact, reader, nil
}

// Stat returns the metadata for a live artifact without opening the blob.
func (s *Store) Stat(ctx context.Context, id string) (*Artifact, error) {
	artifact, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.now().UTC().After(artifact.ExpiresAt) {
		return nil, &ExpiredError{ID: id, ExpiredAt: artifact.ExpiresAt}
	}
	return artifact, nil
}

// Reclaim deletes expired artifacts, blobs first so metadata rows are only
// removed once their contents are gone. Returns how many were reclaimed.
func (s *Store) Reclaim(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().UnixNano()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM artifacts WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired artifacts: %w", err)
	}

	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan expired artifact: %w", err)
		}
		expired = append(expired, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to iterate expired artifacts: %w", err)
	}
	rows.Close()

	reclaimed := 0
	for _, id := range expired {
		if err := os.Remove(s.blobPath(id)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove expired blob",
				"id", id,
				"error", err,
			)
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM artifacts WHERE id = ?`, id); err != nil {
			return reclaimed, fmt.Errorf("failed to delete artifact row %q: %w", id, err)
		}
		reclaimed++
	}

	if reclaimed > 0 {
		s.logger.Info("reclaimed expired artifacts", "count", reclaimed)
	}
	return reclaimed, nil
}

// Close closes the metadata database.
func (s *Store) Close() error {
	return s.db.Close()
}

// lookup fetches the metadata row for an identifier.
func (s *Store) lookup(ctx context.Context, id string) (*Artifact, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_type, size, created_at, expires_at
		FROM artifacts WHERE id = ?`, id)

	var artifact Artifact
	var createdAt, expiresAt int64
	err := row.Scan(&artifact.ID, &artifact.Filename, &artifact.ContentType,
		&artifact.Size, &createdAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load artifact %q: %w", id, err)
	}

	artifact.CreatedAt = time.Unix(0, createdAt).UTC()
	artifact.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return &artifact, nil
}

// blobPath returns the on-disk path for an identifier.
func (s *Store) blobPath(id string) string {
	return filepath.Join(s.dir, id)
}

// newID generates a hex-encoded 96-bit random identifier.
func newID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate artifact id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// validID reports whether a raw identifier has the expected shape. Lookups
// reject malformed identifiers before touching storage so path traversal
// through the blob directory is impossible.
func validID(id string) bool {
	if len(id) != idBytes*2 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
