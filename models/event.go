// ABOUTME: Calendar event models shared by the gateway, the web UI and the tools
// ABOUTME: Defines CalendarEvent, EventTime and the validated EventFields input
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidEvent is returned when event input fails validation.
var ErrInvalidEvent = errors.New("invalid event")

const (
	// DateLayout is the calendar date format used for form input and checklist keys.
	DateLayout = "2006-01-02"
	// ClockLayout is the "HH:MM" format accepted for start and end times.
	ClockLayout = "15:04"
)

// EventTime mirrors the provider's start/end object: either a timestamp
// (DateTime) or an all-day date (Date), plus an optional IANA zone.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// IsZero reports whether neither a timestamp nor a date is set.
func (t EventTime) IsZero() bool {
	return t.DateTime == "" && t.Date == ""
}

// AllDay reports whether the time is a bare date.
func (t EventTime) AllDay() bool {
	return t.DateTime == "" && t.Date != ""
}

// Raw returns the timestamp or the date exactly as the calendar service sent it.
func (t EventTime) Raw() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// Resolve converts the value to a time.Time. All-day dates resolve to
// midnight in the event's own zone, or in fallback when the zone is unknown.
func (t EventTime) Resolve(fallback *time.Location) (time.Time, error) {
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse event time %q: %w", t.DateTime, err)
		}
		return ts, nil
	}
	if t.Date == "" {
		return time.Time{}, fmt.Errorf("event time is empty")
	}

	loc := fallback
	if t.TimeZone != "" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			loc = l
		}
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, t.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse event date %q: %w", t.Date, err)
	}
	return day, nil
}

// CalendarEvent is a transient copy of a remote calendar event.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Status      string    `json:"status,omitempty"`
	HTMLLink    string    `json:"html_link,omitempty"`
}

// DisplayTitle returns the title, or a placeholder for untitled events.
func (e CalendarEvent) DisplayTitle() string {
	if strings.TrimSpace(e.Title) == "" {
		return "(no title)"
	}
	return e.Title
}

// EventFields is the user-supplied content of a create or update request.
// Updates replace the whole remote object with these fields.
type EventFields struct {
	Title       string
	Location    string
	Description string
	Start       time.Time
	End         time.Time

	// TimeZone is the IANA zone sent with start and end. Empty means the
	// zone of Start.
	TimeZone string

	// IdempotencyKey makes repeated creates with the same key resolve to one
	// remote event. Ignored by updates.
	IdempotencyKey string
}

// Validate enforces the single start/end rule: both set, end strictly after start.
func (f EventFields) Validate() error {
	if f.Start.IsZero() || f.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidEvent)
	}
	if !f.End.After(f.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidEvent,
			f.End.Format(time.RFC3339), f.Start.Format(time.RFC3339))
	}
	if f.TimeZone != "" {
		if _, err := time.LoadLocation(f.TimeZone); err != nil {
			return fmt.Errorf("%w: unknown time zone %q", ErrInvalidEvent, f.TimeZone)
		}
	}
	return nil
}

// ZoneName returns the zone to send alongside start and end.
func (f EventFields) ZoneName() string {
	if f.TimeZone != "" {
		return f.TimeZone
	}
	if name := f.Start.Location().String(); name != "" && name != "Local" {
		return name
	}
	return ""
}

// ParseLocalTime combines a "2006-01-02" date and an "HH:MM" clock in loc.
func ParseLocalTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("%w: date and time are required", ErrInvalidEvent)
	}
	ts, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q is not a valid date and HH:MM time", ErrInvalidEvent, date, clock)
	}
	return ts, nil
}
