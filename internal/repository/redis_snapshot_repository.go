package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-proctor/internal/config"
)

// RedisSnapshotRepository stores snapshots as plain Redis strings.
type RedisSnapshotRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSnapshotRepository creates a RedisSnapshotRepository. A zero ttl keeps keys forever.
func NewRedisSnapshotRepository(rdb *redis.Client, ttl time.Duration) *RedisSnapshotRepository {
	return &RedisSnapshotRepository{rdb: rdb, ttl: ttl}
}

// Save writes the snapshot, refreshing its TTL.
func (r *RedisSnapshotRepository) Save(ctx context.Context, key string, payload []byte) error {
	if err := r.rdb.Set(ctx, config.CacheKey.SessionSnapshotKey(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot.
func (r *RedisSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.rdb.Get(ctx, config.CacheKey.SessionSnapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return payload, nil
}

// Clear removes the snapshot.
func (r *RedisSnapshotRepository) Clear(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, config.CacheKey.SessionSnapshotKey(key)).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
