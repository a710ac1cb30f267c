package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// ViolationEventRepository writes the violation audit trail.
type ViolationEventRepository struct {
	pool *pgxpool.Pool
}

// NewViolationEventRepository creates a new ViolationEventRepository.
func NewViolationEventRepository(pool *pgxpool.Pool) *ViolationEventRepository {
	return &ViolationEventRepository{pool: pool}
}

var violationEventColumns = []string{"session_id", "candidate_contact", "reason", "violation_count", "recorded_at"}

// CopyViolations bulk inserts a batch with COPY. Any bad row fails the whole batch.
func (r *ViolationEventRepository) CopyViolations(ctx context.Context, batch []model.ViolationEvent) (int64, error) {
	rows := make([][]interface{}, 0, len(batch))
	for _, e := range batch {
		sessionID, err := uuid.Parse(e.SessionID)
		if err != nil {
			return 0, fmt.Errorf("session id %q: %w", e.SessionID, err)
		}
		rows = append(rows, []interface{}{sessionID, e.Contact, e.Reason, e.ViolationCount, e.RecordedAt})
	}

	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{"violation_events"}, violationEventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy violation events: %w", err)
	}
	return n, nil
}

// InsertViolation inserts a single row.
func (r *ViolationEventRepository) InsertViolation(ctx context.Context, e model.ViolationEvent) error {
	sessionID, err := uuid.Parse(e.SessionID)
	if err != nil {
		return fmt.Errorf("session id %q: %w", e.SessionID, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO violation_events (session_id, candidate_contact, reason, violation_count, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID, e.Contact, e.Reason, e.ViolationCount, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert violation event: %w", err)
	}
	return nil
}

// ListBySession returns the audit trail of one session, oldest first.
func (r *ViolationEventRepository) ListBySession(ctx context.Context, sessionID string) ([]model.ViolationEvent, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session id %q: %w", sessionID, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT session_id, candidate_contact, reason, violation_count, recorded_at
		 FROM violation_events
		 WHERE session_id = $1
		 ORDER BY recorded_at, id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("list violation events: %w", err)
	}
	defer rows.Close()

	var events []model.ViolationEvent
	for rows.Next() {
		var (
			e   model.ViolationEvent
			sid uuid.UUID
		)
		if err := rows.Scan(&sid, &e.Contact, &e.Reason, &e.ViolationCount, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan violation event: %w", err)
		}
		e.SessionID = sid.String()
		events = append(events, e)
	}
	return events, rows.Err()
}
