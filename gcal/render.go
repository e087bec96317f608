// ABOUTME: Render Adapter turning calendar events into month-grid widget input
// ABOUTME: Produces the [{title, start}] array consumed by FullCalendar
package gcal

import (
	"encoding/json"

	"github.com/jaksim/jaksim/models"
)

// WidgetEvent is one entry of the calendar widget's event source.
type WidgetEvent struct {
	Title string `json:"title"`
	Start string `json:"start"`
}

// RenderWidgetEvents maps events to widget entries. Start is the remote
// timestamp, or the date for all-day events, unmodified. The result is never nil.
func RenderWidgetEvents(events []models.CalendarEvent) []WidgetEvent {
	out := make([]WidgetEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, WidgetEvent{
			Title: ev.DisplayTitle(),
			Start: ev.Start.Raw(),
		})
	}
	return out
}

// RenderWidgetJSON encodes RenderWidgetEvents as JSON; no events encode as [].
func RenderWidgetJSON(events []models.CalendarEvent) ([]byte, error) {
	return json.Marshal(RenderWidgetEvents(events))
}
