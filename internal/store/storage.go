// Package store holds the SQL access functions for local persistent state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Record is one key of local storage.
type Record struct {
	Key       string
	Value     string
	Version   int64
	UpdatedAt time.Time
}

// GetRecord returns the record stored under key, or nil if there is none.
func GetRecord(ctx context.Context, db *sql.DB, key string) (*Record, error) {
	r := &Record{}
	err := db.QueryRowContext(ctx,
		`SELECT key, value, version, updated_at FROM storage WHERE key = ?`, key,
	).Scan(&r.Key, &r.Value, &r.Version, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying storage key %q: %w", key, err)
	}
	return r, nil
}

// PutRecord writes value under key and returns the new version. Versions
// come from a single counter, so a key that is deleted and written again
// never reuses an old version.
func PutRecord(ctx context.Context, db *sql.DB, key, value string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE storage_clock SET version = version + 1 WHERE id = 1`,
	); err != nil {
		return 0, fmt.Errorf("advancing storage clock: %w", err)
	}

	var version int64
	if err := tx.QueryRowContext(ctx,
		`SELECT version FROM storage_clock WHERE id = 1`,
	).Scan(&version); err != nil {
		return 0, fmt.Errorf("reading storage clock: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO storage (key, value, version, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version, updated_at = excluded.updated_at`,
		key, value, version, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("writing storage key %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return version, nil
}

// DeleteRecord removes key. Deleting a missing key is not an error.
func DeleteRecord(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting storage key %q: %w", key, err)
	}
	return nil
}

// RecordVersion returns the current version of key, or 0 if it is absent.
func RecordVersion(ctx context.Context, db *sql.DB, key string) (int64, error) {
	var version int64
	err := db.QueryRowContext(ctx,
		`SELECT version FROM storage WHERE key = ?`, key,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying storage version %q: %w", key, err)
	}
	return version, nil
}
