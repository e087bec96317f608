// ABOUTME: Database operations for the checklist_entries table
// ABOUTME: Loads the whole date-keyed checklist and overwrites it in one transaction
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jaksim/jaksim/models"
)

// LoadChecklist returns every stored entry grouped by date, in position order.
func LoadChecklist(ctx context.Context, db *sql.DB) (map[string][]models.ChecklistEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, task, done
		FROM checklist_entries
		ORDER BY date, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklist: %w", err)
	}
	defer rows.Close()

	book := make(map[string][]models.ChecklistEntry)
	for rows.Next() {
		var (
			date  string
			entry models.ChecklistEntry
		)
		if err := rows.Scan(&date, &entry.Task, &entry.Done); err != nil {
			return nil, fmt.Errorf("failed to scan checklist entry: %w", err)
		}
		book[date] = append(book[date], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checklist: %w", err)
	}

	return book, nil
}

// SaveChecklist replaces the stored checklist with book. Dates without
// entries are not stored.
func SaveChecklist(ctx context.Context, db *sql.DB, book map[string][]models.ChecklistEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checklist_entries`); err != nil {
		return fmt.Errorf("failed to clear checklist: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO checklist_entries (date, position, task, done, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare checklist insert: %w", err)
	}
	defer stmt.Close()

	dates := make([]string, 0, len(book))
	for date := range book {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		for i, entry := range book[date] {
			if _, err := stmt.ExecContext(ctx, date, i, entry.Task, entry.Done); err != nil {
				return fmt.Errorf("failed to insert checklist entry %s #%d: %w", date, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checklist: %w", err)
	}
	return nil
}
