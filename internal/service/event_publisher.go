package service

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// EventPublisher delivers session events outside the process. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event model.SessionEvent) error
}

// LogEventPublisher writes events to the structured log. Ticks are logged at debug.
type LogEventPublisher struct {
	log zerolog.Logger
}

// NewLogEventPublisher creates a new LogEventPublisher.
func NewLogEventPublisher(log zerolog.Logger) *LogEventPublisher {
	return &LogEventPublisher{log: log.With().Str("component", "session_events").Logger()}
}

func (p *LogEventPublisher) Publish(_ context.Context, event model.SessionEvent) error {
	ev := p.log.Info()
	if event.Type == model.EventTick {
		ev = p.log.Debug()
	}
	ev = ev.
		Str("event", string(event.Type)).
		Str("session_id", event.SessionID).
		Int("time_remaining", event.TimeRemaining).
		Int("current_index", event.CurrentIndex).
		Int("violations", event.ViolationCount)
	if event.Reason != "" {
		ev = ev.Str("reason", event.Reason)
	}
	if event.Result != nil {
		ev = ev.Int("score", event.Result.Score).Int("percentage", event.Result.Percentage).Bool("passed", event.Result.Passed)
	}
	ev.Msg("Session event")
	return nil
}

// MultiPublisher fans an event out to every publisher and aggregates failures.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event model.SessionEvent) error {
	var result *multierror.Error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
