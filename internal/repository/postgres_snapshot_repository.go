package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSnapshotRepository stores snapshots in the exam_snapshots table.
// The schema is owned by the migrations under migrations/.
type PostgresSnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotRepository creates a new PostgresSnapshotRepository.
func NewPostgresSnapshotRepository(pool *pgxpool.Pool) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{pool: pool}
}

// Save upserts the snapshot payload.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_snapshots (key, payload, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot payload.
func (r *PostgresSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM exam_snapshots WHERE key = $1`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return payload, nil
}

// Clear deletes the snapshot row.
func (r *PostgresSnapshotRepository) Clear(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM exam_snapshots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
