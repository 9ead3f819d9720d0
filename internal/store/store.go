// Package store provides SQLite persistence for OAuth credentials.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a credential record is not found.
var ErrNotFound = errors.New("record not found")

// Schema defines the SQL statements to create the credentials table.
const Schema = `
-- One credential record per user identity.
CREATE TABLE IF NOT EXISTS credentials (
    user_id TEXT PRIMARY KEY,
    realm_id TEXT NOT NULL,
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    expires_at INTEGER NOT NULL,       -- epoch seconds
    created_at TEXT NOT NULL,          -- RFC 3339
    updated_at TEXT NOT NULL           -- RFC 3339
);
`

// Store manages the SQLite connection holding credential records.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens the credentials database, enabling WAL mode and creating the
// schema if needed.
func Open(dbPath string) (*Store, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}
