package worker

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ViolationWriter persists audit rows. Implemented by repository.ViolationEventRepository.
type ViolationWriter interface {
	CopyViolations(ctx context.Context, batch []model.ViolationEvent) (int64, error)
	InsertViolation(ctx context.Context, e model.ViolationEvent) error
}

// ViolationWorker drains the violation queue into PostgreSQL in batches.
type ViolationWorker struct {
	writer ViolationWriter
	rdb    *redis.Client
	log    zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	retryDelay   time.Duration
}

// NewViolationWorker creates a new ViolationWorker.
func NewViolationWorker(writer ViolationWriter, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		writer:       writer,
		rdb:          rdb,
		log:          log.With().Str("component", "violation_worker").Logger(),
		batchSize:    BatchSize,
		batchTimeout: BatchTimeout,
		retryDelay:   2 * time.Second,
	}
}

// Start runs the consume loop until ctx is cancelled. Call in a goroutine.
func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	buffer := make([]model.ViolationEvent, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 && (len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= w.batchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlushTime = time.Now()
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. BLPop returns immediately if data exists, otherwise waits PollTimeout.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistViolationsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue // loop back to the shutdown branch
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleepCtx(ctx, 3*time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		event, ok := w.decode(result[1])
		if !ok {
			continue
		}
		if len(buffer) == 0 {
			lastFlushTime = time.Now()
		}
		buffer = append(buffer, event)
	}
}

// decode turns a queued session event into an audit row. Malformed items cannot be retried.
func (w *ViolationWorker) decode(raw string) (model.ViolationEvent, bool) {
	var event model.SessionEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed JSON")
		return model.ViolationEvent{}, false
	}
	if event.Type != model.EventViolation {
		w.log.Warn().Str("type", string(event.Type)).Msg("Discarding non-violation event")
		return model.ViolationEvent{}, false
	}

	recordedAt := event.At
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	return model.ViolationEvent{
		SessionID:      event.SessionID,
		Contact:        event.Contact,
		Reason:         event.Reason,
		ViolationCount: event.ViolationCount,
		RecordedAt:     recordedAt,
	}, true
}

// flushSafe attempts bulk insert, then row-by-row insert, then requeue.
func (w *ViolationWorker) flushSafe(ctx context.Context, batch []model.ViolationEvent) {
	n, err := w.writer.CopyViolations(ctx, batch)
	if err == nil {
		w.log.Debug().Int64("rows", n).Msg("Violation batch persisted")
		return
	}

	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
	w.fallbackInsert(ctx, batch)
}

func (w *ViolationWorker) fallbackInsert(ctx context.Context, batch []model.ViolationEvent) {
	var requeueList []model.ViolationEvent

	for _, e := range batch {
		if err := w.writer.InsertViolation(ctx, e); err != nil {
			w.log.Error().Err(err).Str("session_id", e.SessionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, e)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

// requeue pushes failed rows back as violation events so they are retried later.
func (w *ViolationWorker) requeue(ctx context.Context, items []model.ViolationEvent) {
	pipe := w.rdb.Pipeline()
	for _, e := range items {
		data, err := json.Marshal(model.SessionEvent{
			Type:           model.EventViolation,
			SessionID:      e.SessionID,
			Contact:        e.Contact,
			Reason:         e.Reason,
			ViolationCount: e.ViolationCount,
			At:             e.RecordedAt,
		})
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue violation events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down.
	sleepCtx(ctx, w.retryDelay)
}

func (w *ViolationWorker) shutdown(buffer []model.ViolationEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
	w.log.Info().Msg("Worker stopped")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
