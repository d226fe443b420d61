// Package storage persists uploaded-file records in a local SQLite database. The
// search engine holds the derived chunks; this registry is the source of truth for
// what was uploaded, where the original bytes live, and when.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the SQLite database at path and applies migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS files (
	id          TEXT PRIMARY KEY,
	card_id     TEXT NOT NULL,
	filename    TEXT NOT NULL,
	stored_path TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_files_card_id ON files(card_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_files_card_filename ON files(card_id, filename);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
