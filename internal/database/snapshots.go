package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SnapshotRepository stores one encoded snapshot under a fixed key.
type SnapshotRepository struct {
	db  *DB
	key string
}

func (db *DB) SnapshotRepository(key string) *SnapshotRepository {
	return &SnapshotRepository{db: db, key: key}
}

func (r *SnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.db.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, r.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", r.key, err)
	}
	return data, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, data []byte) error {
	query := `
        INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
    `
	if _, err := r.db.db.ExecContext(ctx, query, r.key, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("save snapshot %q: %w", r.key, err)
	}
	return nil
}

// UpdatedAt reports when the snapshot was last written; zero if never.
func (r *SnapshotRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := r.db.db.QueryRowContext(ctx, `SELECT updated_at FROM snapshots WHERE key = ?`, r.key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return ts, err
}
