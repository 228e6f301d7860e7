package ledger

import (
	"context"
	"fmt"

	"fileworks-hq/vulcan/pkg/config"
	"fileworks-hq/vulcan/pkg/ledger/storage"
)

// OpenBackend creates the storage backend named by the quota configuration.
func OpenBackend(ctx context.Context, cfg *config.QuotaConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "file":
		return storage.NewFileBackend(cfg.FilePath)

	case "memory":
		return storage.NewMemoryBackend(), nil

	case "sqlite":
		return storage.NewSQLiteBackendWithConfig(storage.SQLiteBackendConfig{
			DBPath:       cfg.SQLite.Path,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
		})

	case "redis":
		return storage.NewRedisBackend(ctx, storage.RedisBackendConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})

	default:
		return nil, fmt.Errorf("unknown quota backend %q", cfg.Backend)
	}
}
