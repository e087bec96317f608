// ABOUTME: Database schema definitions
// ABOUTME: Creates the checklist_entries table used by the sqlite checklist backend
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS checklist_entries (
	date TEXT NOT NULL,
	position INTEGER NOT NULL,
	task TEXT NOT NULL,
	done INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (date, position)
);
`

// InitSchema creates tables that do not exist yet.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
