// ABOUTME: SQLite handle for the sqlite checklist backend
// ABOUTME: Creates the database file on first use, enables WAL and applies the schema
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions turns on WAL and waits up to 5s for a lock held by another
// jaksim process (web server and CLI may share one file).
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000"

// OpenDatabase opens the checklist database at path, creating the parent
// directory and the checklist_entries table when missing.
func OpenDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// Saves rewrite a whole day set in one transaction; a single connection
	// keeps those writes serialized.
	conn.SetMaxOpenConns(1)

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize checklist schema: %w", err)
	}
	return conn, nil
}
