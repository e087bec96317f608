// ABOUTME: Tests for calendar event and credential models
// ABOUTME: Covers validation, local time parsing, time resolution and expiry
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFieldsValidate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)

	tests := []struct {
		name    string
		fields  EventFields
		wantErr bool
	}{
		{"valid", EventFields{Start: start, End: start.Add(time.Hour)}, false},
		{"valid with zone", EventFields{Start: start, End: start.Add(time.Minute), TimeZone: "Asia/Seoul"}, false},
		{"missing start", EventFields{End: start}, true},
		{"missing end", EventFields{Start: start}, true},
		{"end equals start", EventFields{Start: start, End: start}, true},
		{"end before start", EventFields{Start: start, End: start.Add(-time.Hour)}, true},
		{"unknown zone", EventFields{Start: start, End: start.Add(time.Hour), TimeZone: "Mars/Olympus"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEvent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEventFieldsZoneName(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	assert.Equal(t, "UTC", EventFields{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TimeZone: "UTC"}.ZoneName())
	assert.Equal(t, "Asia/Seoul", EventFields{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, loc)}.ZoneName())
}

func TestParseLocalTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	ts, err := ParseLocalTime("2024-01-01", "09:00", loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T09:00:00+09:00", ts.Format(time.RFC3339))

	for _, in := range [][2]string{{"", "09:00"}, {"2024-01-01", ""}, {"2024-13-01", "09:00"}, {"2024-01-01", "25:00"}, {"2024-01-01", "9am"}} {
		_, err := ParseLocalTime(in[0], in[1], loc)
		assert.ErrorIs(t, err, ErrInvalidEvent, "%q %q", in[0], in[1])
	}
}

func TestEventTimeResolve(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	ts, err := EventTime{DateTime: "2024-01-01T09:00:00+09:00"}.Resolve(time.UTC)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	day, err := EventTime{Date: "2024-01-02"}.Resolve(loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T00:00:00+09:00", day.Format(time.RFC3339))

	day, err = EventTime{Date: "2024-01-02", TimeZone: "UTC"}.Resolve(loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T00:00:00Z", day.Format(time.RFC3339))

	_, err = EventTime{}.Resolve(loc)
	assert.Error(t, err)
	_, err = EventTime{DateTime: "tomorrow"}.Resolve(loc)
	assert.Error(t, err)
}

func TestEventTimeAccessors(t *testing.T) {
	allDay := EventTime{Date: "2024-01-02"}
	assert.True(t, allDay.AllDay())
	assert.Equal(t, "2024-01-02", allDay.Raw())

	timed := EventTime{DateTime: "2024-01-01T09:00:00+09:00", Date: "2024-01-01"}
	assert.False(t, timed.AllDay())
	assert.Equal(t, "2024-01-01T09:00:00+09:00", timed.Raw())

	assert.True(t, EventTime{}.IsZero())
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "(no title)", CalendarEvent{}.DisplayTitle())
	assert.Equal(t, "(no title)", CalendarEvent{Title: "  "}.DisplayTitle())
	assert.Equal(t, "Study", CalendarEvent{Title: "Study"}.DisplayTitle())
}

func TestCredentialExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (*Credential)(nil).Expired(now))
	assert.True(t, (&Credential{}).Expired(now))
	assert.False(t, (&Credential{Token: "t"}).Expired(now))
	assert.False(t, (&Credential{Token: "t", Expiry: &future}).Expired(now))
	assert.True(t, (&Credential{Token: "t", Expiry: &past}).Expired(now))
	assert.True(t, (&Credential{Token: "t", Expiry: &now}).Expired(now))

	assert.False(t, (&Credential{Token: "t"}).CanRefresh())
	assert.True(t, (&Credential{RefreshToken: "r"}).CanRefresh())
}
