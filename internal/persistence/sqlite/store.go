// Package sqlite implements persistence.KeyValueStore on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/event-planner/internal/persistence"
)

// Store is a SQLite-backed key/value store.
type Store struct {
	pool  *ConnectionPool
	retry RetryConfig
	now   func() time.Time
}

// Open opens the database at dsn with DefaultConfig.
func Open(dsn string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(dsn))
}

// OpenWithConfig opens the database described by config. Call Migrate before use.
func OpenWithConfig(config Config) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, retry: DefaultRetryConfig(), now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", persistence.ErrInvalidKey
	}

	var value string
	err := withRetry(ctx, s.retry, func() error {
		return s.pool.DB().QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return persistence.ErrInvalidKey
	}

	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	err := withRetry(ctx, s.retry, func() error {
		_, err := s.pool.DB().ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, updatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	var affected int64
	err := withRetry(ctx, s.retry, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
