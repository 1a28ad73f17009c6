package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenAndMigrate(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewTestFile creates a SQLite file in a temp dir and returns its path.
// Opening the same path twice simulates two processes sharing storage.
func NewTestFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dormswap.db")
	db, err := OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("creating test database file: %v", err)
	}
	db.Close()

	return path
}
