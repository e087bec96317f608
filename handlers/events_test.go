// ABOUTME: Tests for calendar event MCP tool handlers
// ABOUTME: Uses an in-memory event service to check validation and argument mapping
package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryEvents struct {
	mu      sync.Mutex
	events  []models.CalendarEvent
	created []models.EventFields
	updated map[string]models.EventFields
	deleted []string
	limits  []int
	calls   int
}

func (m *memoryEvents) ListUpcoming(_ context.Context, limit int) ([]models.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.limits = append(m.limits, limit)
	if limit > len(m.events) {
		limit = len(m.events)
	}
	return append([]models.CalendarEvent(nil), m.events[:limit]...), nil
}

func (m *memoryEvents) Create(_ context.Context, fields models.EventFields) (*models.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.created = append(m.created, fields)
	return &models.CalendarEvent{
		ID:    "evt-1",
		Title: fields.Title,
		Start: models.EventTime{DateTime: fields.Start.Format(time.RFC3339)},
		End:   models.EventTime{DateTime: fields.End.Format(time.RFC3339)},
	}, nil
}

func (m *memoryEvents) Update(_ context.Context, id string, fields models.EventFields) (*models.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.updated == nil {
		m.updated = make(map[string]models.EventFields)
	}
	m.updated[id] = fields
	return &models.CalendarEvent{ID: id, Title: fields.Title}, nil
}

func (m *memoryEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.deleted = append(m.deleted, id)
	return nil
}

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func newEventHandlers(t *testing.T, svc *memoryEvents) *EventHandlers {
	t.Helper()
	return NewEventHandlers(func(context.Context) (EventService, error) { return svc, nil }, seoul(t), 0)
}

func TestCreateEventHandler(t *testing.T) {
	svc := &memoryEvents{}
	h := newEventHandlers(t, svc)

	_, out, err := h.CreateEvent(context.Background(), nil, CreateEventInput{
		Title:          "Study",
		Date:           "2024-01-01",
		Start:          "09:00",
		End:            "10:30",
		Location:       " Library ",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", out.ID)
	assert.Equal(t, "2024-01-01T09:00:00+09:00", out.Start)
	assert.Equal(t, "2024-01-01T10:30:00+09:00", out.End)

	require.Len(t, svc.created, 1)
	fields := svc.created[0]
	assert.Equal(t, "Library", fields.Location)
	assert.Equal(t, "Asia/Seoul", fields.TimeZone)
	assert.Equal(t, "key-1", fields.IdempotencyKey)
}

func TestCreateEventSpansMidnight(t *testing.T) {
	svc := &memoryEvents{}
	h := newEventHandlers(t, svc)

	_, _, err := h.CreateEvent(context.Background(), nil, CreateEventInput{
		Title: "Night study", Date: "2024-01-01", Start: "23:00", EndDate: "2024-01-02", End: "01:00",
	})
	require.NoError(t, err)
	require.Len(t, svc.created, 1)
	assert.Equal(t, 2*time.Hour, svc.created[0].End.Sub(svc.created[0].Start))
}

func TestCreateEventRejectsBadInputWithoutRemoteCall(t *testing.T) {
	cases := map[string]CreateEventInput{
		"missing title":   {Date: "2024-01-01", Start: "09:00", End: "10:00"},
		"bad clock":       {Title: "x", Date: "2024-01-01", Start: "9am", End: "10:00"},
		"bad date":        {Title: "x", Date: "01/01/2024", Start: "09:00", End: "10:00"},
		"end before":      {Title: "x", Date: "2024-01-01", Start: "10:00", End: "09:00"},
		"end equal start": {Title: "x", Date: "2024-01-01", Start: "10:00", End: "10:00"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &memoryEvents{}
			h := newEventHandlers(t, svc)
			_, _, err := h.CreateEvent(context.Background(), nil, input)
			require.Error(t, err)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestCreateEventSurfacesInvalidEvent(t *testing.T) {
	h := newEventHandlers(t, &memoryEvents{})
	_, _, err := h.CreateEvent(context.Background(), nil, CreateEventInput{
		Title: "x", Date: "2024-01-01", Start: "10:00", End: "09:00",
	})
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
}

func TestUpdateEventHandler(t *testing.T) {
	svc := &memoryEvents{}
	h := newEventHandlers(t, svc)

	_, out, err := h.UpdateEvent(context.Background(), nil, UpdateEventInput{
		ID: "abc", Title: "Review", Date: "2024-02-03", Start: "14:00", End: "15:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", out.ID)

	fields, ok := svc.updated["abc"]
	require.True(t, ok)
	assert.Equal(t, "2024-02-03", fields.Start.Format(models.DateLayout))

	_, _, err = h.UpdateEvent(context.Background(), nil, UpdateEventInput{Title: "x", Date: "2024-02-03", Start: "14:00", End: "15:00"})
	assert.Error(t, err)
}

func TestDeleteEventHandler(t *testing.T) {
	svc := &memoryEvents{}
	h := newEventHandlers(t, svc)

	_, out, err := h.DeleteEvent(context.Background(), nil, DeleteEventInput{ID: "abc"})
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.Equal(t, []string{"abc"}, svc.deleted)

	_, _, err = h.DeleteEvent(context.Background(), nil, DeleteEventInput{ID: " "})
	assert.Error(t, err)
}

func TestListUpcomingEventsHandler(t *testing.T) {
	svc := &memoryEvents{events: []models.CalendarEvent{
		{ID: "1", Title: "Math", Start: models.EventTime{DateTime: "2024-01-01T09:00:00+09:00"}},
		{ID: "2", Start: models.EventTime{Date: "2024-01-02"}, End: models.EventTime{Date: "2024-01-03"}},
	}}
	h := newEventHandlers(t, svc)

	_, out, err := h.ListUpcomingEvents(context.Background(), nil, ListUpcomingInput{})
	require.NoError(t, err)
	require.Len(t, out.Events, 2)
	assert.Equal(t, "Math", out.Events[0].Title)
	assert.Equal(t, "(no title)", out.Events[1].Title)
	assert.True(t, out.Events[1].AllDay)
	assert.Equal(t, "2024-01-02", out.Events[1].Start)
	assert.Equal(t, []int{gcal.DefaultUpcomingLimit}, svc.limits)

	_, out, err = h.ListUpcomingEvents(context.Background(), nil, ListUpcomingInput{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.Events, 1)
}

func TestEventHandlersReportAuthorizationErrors(t *testing.T) {
	h := NewEventHandlers(func(context.Context) (EventService, error) {
		return nil, gcal.ErrReauthRequired
	}, nil, 0)

	_, _, err := h.ListUpcomingEvents(context.Background(), nil, ListUpcomingInput{})
	assert.True(t, errors.Is(err, gcal.ErrReauthRequired))
}
