// ABOUTME: SQLite checklist backend
// ABOUTME: Delegates to the db package's checklist_entries table
package checklist

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jaksim/jaksim/db"
)

// SQLiteStore keeps the Book in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	database, err := db.OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checklist database: %w", err)
	}
	return &SQLiteStore{db: database}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Book, error) {
	book, err := db.LoadChecklist(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return Book(book), nil
}

func (s *SQLiteStore) Save(ctx context.Context, book Book) error {
	return db.SaveChecklist(ctx, s.db, book.compact())
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
