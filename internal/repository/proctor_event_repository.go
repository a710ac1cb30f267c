package repository

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// ProctorEventRepository pushes session events to Redis: every event goes to
// the monitor Pub/Sub channel, violations are also queued for the audit worker.
type ProctorEventRepository struct {
	rdb     *redis.Client
	channel string
}

// NewProctorEventRepository creates a new ProctorEventRepository.
func NewProctorEventRepository(rdb *redis.Client, persistenceKey string) *ProctorEventRepository {
	return &ProctorEventRepository{
		rdb:     rdb,
		channel: config.CacheKey.ExamMonitorChannel(persistenceKey),
	}
}

// Channel returns the monitor channel name.
func (r *ProctorEventRepository) Channel() string {
	return r.channel
}

// Publish sends the event in a single pipeline round trip.
func (r *ProctorEventRepository) Publish(ctx context.Context, event model.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := r.rdb.Pipeline()
	pipe.Publish(ctx, r.channel, data)
	if event.Type == model.EventViolation {
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription on the monitor channel.
func (r *ProctorEventRepository) Subscribe(ctx context.Context) *redis.PubSub {
	return r.rdb.Subscribe(ctx, r.channel)
}
