package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresKV persists key/value pairs in a PostgreSQL table.
type PostgresKV struct {
	db *sql.DB
}

// NewPostgresKV opens a connection to PostgreSQL, runs the schema migration,
// and returns a ready-to-use PostgresKV.
func NewPostgresKV(ctx context.Context, dsn string) (*PostgresKV, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	kv := &PostgresKV{db: db}
	if err := kv.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return kv, nil
}

func (kv *PostgresKV) migrate(ctx context.Context) error {
	_, err := kv.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        VARCHAR(128) PRIMARY KEY,
			value      TEXT         NOT NULL,
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (kv *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres: get %q: %w", key, err)
	}
	return value, nil
}

func (kv *PostgresKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("postgres: set %q: %w", key, err)
	}
	return nil
}

func (kv *PostgresKV) Close() error {
	return kv.db.Close()
}
