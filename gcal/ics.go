// ABOUTME: iCalendar export of upcoming events
// ABOUTME: Serializes gateway results with arran4/golang-ical
package gcal

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/jaksim/jaksim/models"
)

const icsProductID = "-//jaksim//study calendar//EN"

// ExportICS renders events as an iCalendar document. Events whose start or
// end cannot be read are skipped.
func ExportICS(events []models.CalendarEvent, loc *time.Location, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, ev := range events {
		start, err := ev.Start.Resolve(loc)
		if err != nil {
			continue
		}

		item := cal.AddEvent(eventUID(ev))
		item.SetDtStampTime(stamp.UTC())
		item.SetSummary(ev.DisplayTitle())
		if ev.Location != "" {
			item.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			item.SetDescription(ev.Description)
		}
		if ev.HTMLLink != "" {
			item.SetURL(ev.HTMLLink)
		}

		if ev.Start.AllDay() {
			item.SetAllDayStartAt(start)
			if end, err := ev.End.Resolve(loc); err == nil && ev.End.AllDay() {
				item.SetAllDayEndAt(end)
			}
			continue
		}

		item.SetStartAt(start)
		if end, err := ev.End.Resolve(loc); err == nil {
			item.SetEndAt(end)
		}
	}

	return cal.Serialize()
}

func eventUID(ev models.CalendarEvent) string {
	if ev.ID == "" {
		return fmt.Sprintf("%s@jaksim", EventIDForKey(ev.Title+ev.Start.Raw()))
	}
	return ev.ID + "@jaksim"
}
