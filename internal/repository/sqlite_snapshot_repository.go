package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sqliteSnapshotSchema = `
CREATE TABLE IF NOT EXISTS exam_snapshots (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteSnapshotRepository stores snapshots in a local SQLite file.
type SQLiteSnapshotRepository struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepository creates the repository and ensures its table exists.
func NewSQLiteSnapshotRepository(ctx context.Context, db *sql.DB) (*SQLiteSnapshotRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteSnapshotSchema); err != nil {
		return nil, fmt.Errorf("create exam_snapshots: %w", err)
	}
	return &SQLiteSnapshotRepository{db: db}, nil
}

// Save upserts the snapshot payload.
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exam_snapshots (key, payload, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE
		 SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot payload.
func (r *SQLiteSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM exam_snapshots WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return payload, nil
}

// Clear deletes the snapshot row.
func (r *SQLiteSnapshotRepository) Clear(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exam_snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
