package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursepocket/internal/repository"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// KVRepository persists key-value entries in a sqlite table. It is the
// general (non-secret) storage backend.
type KVRepository struct {
	db *sql.DB
}

func NewKVRepository(db *sql.DB) repository.KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createKVTable); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (r *KVRepository) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT value
FROM kv
WHERE key = ?`,
		key,
	)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
