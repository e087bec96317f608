package gcal

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/jaksim/jaksim/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportICS(t *testing.T) {
	loc := seoul(t)
	events := []models.CalendarEvent{
		{
			ID:       "abc",
			Title:    "Study",
			Location: "library",
			Start:    models.EventTime{DateTime: "2024-01-01T09:00:00+09:00"},
			End:      models.EventTime{DateTime: "2024-01-01T10:00:00+09:00"},
		},
		{
			ID:    "def",
			Title: "Holiday",
			Start: models.EventTime{Date: "2024-01-02"},
			End:   models.EventTime{Date: "2024-01-03"},
		},
		{ID: "bad", Title: "Broken", Start: models.EventTime{DateTime: "not a time"}},
	}

	doc := ExportICS(events, loc, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR"))

	cal, err := ics.ParseCalendar(strings.NewReader(doc))
	require.NoError(t, err)
	parsed := cal.Events()
	require.Len(t, parsed, 2)

	assert.Equal(t, "abc@jaksim", parsed[0].GetProperty(ics.ComponentPropertyUniqueId).Value)
	assert.Equal(t, "Study", parsed[0].GetProperty(ics.ComponentPropertySummary).Value)
	start, err := parsed[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "Holiday", parsed[1].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "20240102", parsed[1].GetProperty(ics.ComponentPropertyDtStart).Value)
}

func TestExportICSEmpty(t *testing.T) {
	doc := ExportICS(nil, time.UTC, time.Now())
	assert.Contains(t, doc, "BEGIN:VCALENDAR")
	assert.NotContains(t, doc, "BEGIN:VEVENT")
}
