// ABOUTME: Tests for checklist MCP tool, prompt and resource handlers
// ABOUTME: Backs each handler with a file store in a temporary directory
package handlers

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) checklist.Store {
	t.Helper()
	return checklist.NewFileStore(filepath.Join(t.TempDir(), "checklist.json"), zap.NewNop())
}

func newChecklistHandlers(t *testing.T, store checklist.Store) *ChecklistHandlers {
	t.Helper()
	h := NewChecklistHandlers(store, seoul(t))
	// 2024-01-01 23:30 UTC is already the 2nd in Seoul.
	h.now = func() time.Time { return time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC) }
	return h
}

func TestChecklistHandlersPersistEveryChange(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	h := newChecklistHandlers(t, store)

	_, day, err := h.AddChecklistTask(ctx, nil, AddChecklistTaskInput{Date: "2024-03-01", Task: "Read chapter 3"})
	require.NoError(t, err)
	assert.Equal(t, 1, day.Total)

	_, day, err = h.AddChecklistTask(ctx, nil, AddChecklistTaskInput{Date: "2024-03-01", Task: "Solve problems"})
	require.NoError(t, err)
	assert.Equal(t, 2, day.Total)

	_, day, err = h.SetChecklistTaskDone(ctx, nil, SetChecklistTaskDoneInput{Date: "2024-03-01", Index: 0, Done: true})
	require.NoError(t, err)
	assert.Equal(t, 1, day.Done)

	book, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ChecklistEntry{
		{Task: "Read chapter 3", Done: true},
		{Task: "Solve problems"},
	}, book["2024-03-01"])

	_, purged, err := h.PurgeChecklistDone(ctx, nil, PurgeChecklistDoneInput{Date: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, purged.Removed)
	assert.Equal(t, []models.ChecklistEntry{{Task: "Solve problems"}}, purged.Day.Entries)

	book, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ChecklistEntry{{Task: "Solve problems"}}, book["2024-03-01"])
}

func TestChecklistHandlersDefaultToToday(t *testing.T) {
	ctx := context.Background()
	h := newChecklistHandlers(t, newTestStore(t))

	_, day, err := h.AddChecklistTask(ctx, nil, AddChecklistTaskInput{Task: "Vocabulary"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", day.Date)

	_, out, err := h.GetChecklist(ctx, nil, GetChecklistInput{})
	require.NoError(t, err)
	require.Len(t, out.Days, 1)
	assert.Equal(t, "2024-01-02", out.Days[0].Date)
	assert.Equal(t, 1, out.Days[0].Total)
}

func TestChecklistHandlersRejectBadInput(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	h := newChecklistHandlers(t, store)

	_, _, err := h.AddChecklistTask(ctx, nil, AddChecklistTaskInput{Date: "2024-03-01", Task: "  "})
	assert.ErrorIs(t, err, checklist.ErrEmptyTask)

	_, _, err = h.AddChecklistTask(ctx, nil, AddChecklistTaskInput{Date: "March 1", Task: "x"})
	assert.ErrorIs(t, err, checklist.ErrInvalidDate)

	_, _, err = h.SetChecklistTaskDone(ctx, nil, SetChecklistTaskDoneInput{Date: "2024-03-01", Index: 3, Done: true})
	assert.ErrorIs(t, err, checklist.ErrNoSuchEntry)

	book, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, book)
}

func TestGetChecklistAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, checklist.Book{
		"2024-03-02": {{Task: "b"}},
		"2024-03-01": {{Task: "a", Done: true}},
	}))
	h := newChecklistHandlers(t, store)

	_, out, err := h.GetChecklist(ctx, nil, GetChecklistInput{All: true})
	require.NoError(t, err)
	require.Len(t, out.Days, 2)
	assert.Equal(t, "2024-03-01", out.Days[0].Date)
	assert.Equal(t, 1, out.Days[0].Done)
	assert.Equal(t, "2024-03-02", out.Days[1].Date)
}

func TestDailyReviewPrompt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, checklist.Book{
		"2024-03-01": {{Task: "Read", Done: true}, {Task: "Write"}},
	}))
	h := NewPromptHandlers(store, nil, seoul(t))

	result, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "daily-review",
		Arguments: map[string]string{"date": "2024-03-01"},
	}})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "1 of 2 done")
	assert.Contains(t, text, "- [x] Read")
	assert.Contains(t, text, "- [ ] Write")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "nope"}})
	assert.Error(t, err)
}

func TestStudyPlanPromptListsEvents(t *testing.T) {
	ctx := context.Background()
	svc := &memoryEvents{events: []models.CalendarEvent{
		{ID: "1", Title: "Exam", Start: models.EventTime{DateTime: "2024-03-05T10:00:00+09:00"}},
	}}
	h := NewPromptHandlers(newTestStore(t), func(context.Context) (EventService, error) { return svc, nil }, seoul(t))

	result, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "study-plan",
		Arguments: map[string]string{"goal": "Pass the exam"},
	}})
	require.NoError(t, err)
	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.True(t, strings.Contains(text, "2024-03-05T10:00:00+09:00: Exam"), text)
	assert.Equal(t, []int{gcal.DefaultUpcomingLimit}, svc.limits)

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "study-plan"}})
	assert.Error(t, err)
}

func TestReadChecklistResource(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, checklist.Book{"2024-03-01": {{Task: "a"}}}))
	h := NewResourceHandlers(store)

	result, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "jaksim://checklist"}})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	var book checklist.Book
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &book))
	assert.Equal(t, "a", book["2024-03-01"][0].Task)

	result, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "jaksim://checklist/2024-03-01"}})
	require.NoError(t, err)
	var day ChecklistDayOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &day))
	assert.Equal(t, 1, day.Total)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "file:///checklist"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "jaksim://checklist/someday"}})
	assert.Error(t, err)
}
