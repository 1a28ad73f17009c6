package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// storage mirrors a browser's local storage: one row per key, with a
// version that is bumped on every write so other processes sharing the
// file can notice changes by polling.
const schema = `
CREATE TABLE IF NOT EXISTS storage (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    version    INTEGER NOT NULL DEFAULT 1,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS storage_clock (
    id      INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL
);

INSERT OR IGNORE INTO storage_clock (id, version) VALUES (1, 0);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
