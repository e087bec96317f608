// ABOUTME: Date-keyed checklist of {task, done} entries
// ABOUTME: In-memory Book edited by the web UI, the CLI, the TUI and the MCP tools
package checklist

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jaksim/jaksim/models"
)

var (
	// ErrEmptyTask is returned when adding a blank task.
	ErrEmptyTask = errors.New("task cannot be empty")
	// ErrNoSuchEntry is returned for an index outside a day's list.
	ErrNoSuchEntry = errors.New("no such checklist entry")
	// ErrInvalidDate is returned for keys not in 2006-01-02 form.
	ErrInvalidDate = errors.New("invalid checklist date")
)

// Book maps a calendar date ("2006-01-02") to that day's ordered entries.
type Book map[string][]models.ChecklistEntry

// DateKey returns the Book key for t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(models.DateLayout)
}

// ParseDate validates a Book key.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d, nil
}

// Entries returns a copy of the entries for date.
func (b Book) Entries(date string) []models.ChecklistEntry {
	return append([]models.ChecklistEntry(nil), b[date]...)
}

// Add appends an undone task to date.
func (b Book) Add(date, task string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return ErrEmptyTask
	}
	b[date] = append(b[date], models.ChecklistEntry{Task: task})
	return nil
}

// SetDone marks entry i of date as done or not done.
func (b Book) SetDone(date string, i int, done bool) error {
	entries := b[date]
	if i < 0 || i >= len(entries) {
		return fmt.Errorf("%w: %s #%d", ErrNoSuchEntry, date, i)
	}
	entries[i].Done = done
	return nil
}

// Toggle flips entry i of date and returns its new state.
func (b Book) Toggle(date string, i int) (bool, error) {
	entries := b[date]
	if i < 0 || i >= len(entries) {
		return false, fmt.Errorf("%w: %s #%d", ErrNoSuchEntry, date, i)
	}
	entries[i].Done = !entries[i].Done
	return entries[i].Done, nil
}

// PurgeDone removes completed entries for date and returns how many were removed.
// A day left without entries is dropped from the Book.
func (b Book) PurgeDone(date string) int {
	entries, ok := b[date]
	if !ok {
		return 0
	}
	kept := entries[:0]
	for _, e := range entries {
		if !e.Done {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	if len(kept) == 0 {
		delete(b, date)
	} else {
		b[date] = kept
	}
	return removed
}

// Dates returns the dates that have entries, ascending.
func (b Book) Dates() []string {
	dates := make([]string, 0, len(b))
	for date, entries := range b {
		if len(entries) > 0 {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// Clone returns a deep copy.
func (b Book) Clone() Book {
	out := make(Book, len(b))
	for date, entries := range b {
		out[date] = append([]models.ChecklistEntry(nil), entries...)
	}
	return out
}

// Progress returns the number of done entries and the total for date.
func (b Book) Progress(date string) (done, total int) {
	for _, e := range b[date] {
		if e.Done {
			done++
		}
	}
	return done, len(b[date])
}

// compact drops empty days so they are never persisted.
func (b Book) compact() Book {
	out := make(Book, len(b))
	for date, entries := range b {
		if len(entries) > 0 {
			out[date] = entries
		}
	}
	return out
}
