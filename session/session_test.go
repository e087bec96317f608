package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/models"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryStartGetEnd(t *testing.T) {
	r := NewRegistry(time.Hour, "")
	s := r.Start()

	_, err := ulid.ParseStrict(s.ID)
	require.NoError(t, err)
	require.NotNil(t, s.Chat)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	other := r.Start()
	assert.NotEqual(t, s.ID, other.ID)
	assert.Equal(t, 2, r.Len())

	r.End(s.ID)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
}

func TestRegistryIdleExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(30*time.Minute, "")
	r.SetClock(func() time.Time { return now })

	active := r.Start()
	idle := r.Start()

	now = now.Add(20 * time.Minute)
	_, ok := r.Get(active.ID)
	require.True(t, ok)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	_, ok = r.Get(idle.ID)
	assert.False(t, ok)
	_, ok = r.Get(active.ID)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	_, ok = r.Get(active.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestSessionFlashes(t *testing.T) {
	s := NewRegistry(0, "").Start()
	s.AddFlash(FlashInfo, "saved")
	s.AddFlash(FlashError, "failed")

	assert.Equal(t, []Flash{{FlashInfo, "saved"}, {FlashError, "failed"}}, s.TakeFlashes())
	assert.Empty(t, s.TakeFlashes())
}

func TestSessionOAuthState(t *testing.T) {
	s := NewRegistry(0, "").Start()
	s.SetOAuthState("abc")
	assert.Equal(t, "abc", s.TakeOAuthState())
	assert.Empty(t, s.TakeOAuthState())
}

func TestSessionChecklistLoadsOnceAndSavesExplicitly(t *testing.T) {
	ctx := context.Background()
	store := checklist.NewFileStore(filepath.Join(t.TempDir(), "checklists.json"), zap.NewNop())
	require.NoError(t, store.Save(ctx, checklist.Book{"2024-01-01": {{Task: "stored"}}}))

	s := NewRegistry(0, "").Start()
	require.NoError(t, s.EditChecklist(ctx, store, func(b checklist.Book) error {
		return b.Add("2024-01-01", "new")
	}))
	assert.True(t, s.ChecklistDirty())

	// Not persisted until saved.
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored["2024-01-01"], 1)

	// The working copy is not reloaded from the store.
	require.NoError(t, store.Save(ctx, checklist.Book{}))
	require.NoError(t, s.ViewChecklist(ctx, store, func(b checklist.Book) {
		assert.Equal(t, []models.ChecklistEntry{{Task: "stored"}, {Task: "new"}}, b.Entries("2024-01-01"))
	}))

	require.NoError(t, s.SaveChecklist(ctx, store))
	assert.False(t, s.ChecklistDirty())
	stored, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored["2024-01-01"], 2)
}

func TestSessionEditChecklistError(t *testing.T) {
	ctx := context.Background()
	store := checklist.NewFileStore(filepath.Join(t.TempDir(), "checklists.json"), zap.NewNop())
	s := NewRegistry(0, "").Start()

	err := s.EditChecklist(ctx, store, func(b checklist.Book) error {
		return b.Add("2024-01-01", " ")
	})
	assert.True(t, errors.Is(err, checklist.ErrEmptyTask))
	assert.False(t, s.ChecklistDirty())
}
