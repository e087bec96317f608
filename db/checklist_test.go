package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jaksim/jaksim/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistRoundTrip(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "checklist.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	book := map[string][]models.ChecklistEntry{
		"2024-01-01": {
			{Task: "read chapter 1", Done: true},
			{Task: "flashcards", Done: false},
			{Task: "problem set", Done: false},
		},
		"2024-01-02": {
			{Task: "review", Done: false},
		},
		"2024-01-03": {},
	}
	require.NoError(t, SaveChecklist(ctx, db, book))

	got, err := LoadChecklist(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, book["2024-01-01"], got["2024-01-01"])
	assert.Equal(t, book["2024-01-02"], got["2024-01-02"])
	assert.NotContains(t, got, "2024-01-03")
}

func TestSaveChecklistOverwrites(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "checklist.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, SaveChecklist(ctx, db, map[string][]models.ChecklistEntry{
		"2024-01-01": {{Task: "old"}},
		"2024-01-02": {{Task: "gone"}},
	}))
	require.NoError(t, SaveChecklist(ctx, db, map[string][]models.ChecklistEntry{
		"2024-01-01": {{Task: "new", Done: true}},
	}))

	got, err := LoadChecklist(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, map[string][]models.ChecklistEntry{
		"2024-01-01": {{Task: "new", Done: true}},
	}, got)
}

func TestLoadChecklistEmpty(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "checklist.db"))
	require.NoError(t, err)
	defer db.Close()

	got, err := LoadChecklist(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, got)
}
