package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend using Redis hashes.
// It is the backend for multi-process deployments where several gateway
// instances share one ledger; increments use HINCRBY so concurrent chargers
// across processes never lose counts.
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
}

// RedisBackendConfig configures the Redis backend.
type RedisBackendConfig struct {
	// Addr is the Redis host:port.
	Addr string

	// Password is the Redis password, empty for none.
	Password string

	// DB is the Redis database number.
	DB int

	// KeyPrefix namespaces ledger keys. Default: "vulcan:usage:".
	KeyPrefix string
}

const (
	fieldCount    = "count"
	fieldLastUsed = "last_used_at"
)

// NewRedisBackend creates a Redis storage backend and verifies the connection.
func NewRedisBackend(ctx context.Context, cfg RedisBackendConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr cannot be empty")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "vulcan:usage:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

// Load retrieves the usage record for a key.
func (r *RedisBackend) Load(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, r.keyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load usage record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return r.recordFromFields(key, fields)
}

// Increment atomically adds one use to the key's record.
func (r *RedisBackend) Increment(ctx context.Context, key string) (*UsageRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	now := time.Now().UTC()

	pipe := r.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, r.keyPrefix+key, fieldCount, 1)
	pipe.HSet(ctx, r.keyPrefix+key, fieldLastUsed, now.Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to increment usage record: %w", err)
	}

	return &UsageRecord{
		Key:        key,
		Count:      int(incr.Val()),
		LastUsedAt: now,
	}, nil
}

// Reset removes the record for a key.
func (r *RedisBackend) Reset(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if err := r.client.Del(ctx, r.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset usage record: %w", err)
	}
	return nil
}

// Compact removes records not used since the given time.
func (r *RedisBackend) Compact(ctx context.Context, olderThan time.Time) (int, error) {
	deleted := 0

	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()

		lastUsed, err := r.client.HGet(ctx, redisKey, fieldLastUsed).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to read record %q: %w", redisKey, err)
		}

		ts, err := time.Parse(time.RFC3339Nano, lastUsed)
		if err != nil {
			continue
		}
		if !ts.Before(olderThan) {
			continue
		}

		if err := r.client.Del(ctx, redisKey).Err(); err != nil {
			return deleted, fmt.Errorf("failed to delete record %q: %w", redisKey, err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan ledger keys: %w", err)
	}

	return deleted, nil
}

// Close closes the Redis client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// recordFromFields decodes a hash into a usage record.
func (r *RedisBackend) recordFromFields(key string, fields map[string]string) (*UsageRecord, error) {
	record := &UsageRecord{Key: key}

	if raw, ok := fields[fieldCount]; ok {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed count for key %q: %w", key, err)
		}
		record.Count = count
	}
	if raw, ok := fields[fieldLastUsed]; ok {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("malformed timestamp for key %q: %w", key, err)
		}
		record.LastUsedAt = ts
	}

	return record, nil
}
