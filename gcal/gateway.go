// ABOUTME: Event Gateway over the Google Calendar v3 API
// ABOUTME: Lists upcoming events and creates, replaces and deletes events on one calendar
package gcal

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jaksim/jaksim/models"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultCalendarID is the signed-in user's own calendar.
	DefaultCalendarID = "primary"
	// DefaultUpcomingLimit is the number of events shown by the calendar page.
	DefaultUpcomingLimit = 10

	statusCancelled = "cancelled"
)

var eventIDEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// NewCalendarService creates a Calendar API service that sends requests through httpClient.
func NewCalendarService(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*calendar.Service, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// CalendarGateway performs event operations against one calendar. Every
// operation is a single synchronous remote call (listing may page); nothing
// is cached or retried.
type CalendarGateway struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewCalendarGateway wraps svc. loc resolves all-day events to instants.
func NewCalendarGateway(svc *calendar.Service, calendarID string, loc *time.Location, logger *zap.Logger) *CalendarGateway {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarGateway{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the time source that defines "upcoming".
func (g *CalendarGateway) SetClock(now func() time.Time) {
	g.now = now
}

// ListUpcoming returns at most limit events starting at or after now,
// ascending by start. A non-positive limit uses DefaultUpcomingLimit.
func (g *CalendarGateway) ListUpcoming(ctx context.Context, limit int) ([]models.CalendarEvent, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	now := g.now()

	type dated struct {
		at    time.Time
		event models.CalendarEvent
	}
	var found []dated

	pageToken := ""
	for len(found) < limit {
		call := g.svc.Events.List(g.calendarID).
			TimeMin(now.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(int64(limit)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", apiError(err))
		}

		for _, item := range resp.Items {
			if item == nil || item.Status == statusCancelled {
				continue
			}
			ev := eventFromAPI(item)
			if ev.Start.IsZero() {
				continue
			}
			at, err := ev.Start.Resolve(g.loc)
			if err != nil {
				g.logger.Debug("skipping event with unreadable start",
					zap.String("event_id", ev.ID), zap.Error(err))
				continue
			}
			// timeMin also matches events already in progress.
			if at.Before(now) {
				continue
			}
			found = append(found, dated{at: at, event: ev})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].at.Before(found[j].at) })
	if len(found) > limit {
		found = found[:limit]
	}

	events := make([]models.CalendarEvent, 0, len(found))
	for _, d := range found {
		events = append(events, d.event)
	}
	return events, nil
}

// Get fetches one event by id.
func (g *CalendarGateway) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", models.ErrInvalidEvent)
	}
	item, err := g.svc.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, apiError(err))
	}
	ev := eventFromAPI(item)
	return &ev, nil
}

// Create inserts a new event. With an idempotency key the event id is
// derived from the key, so a repeated create returns the existing event.
func (g *CalendarGateway) Create(ctx context.Context, fields models.EventFields) (*models.CalendarEvent, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	body := eventToAPI(fields)
	if fields.IdempotencyKey != "" {
		body.Id = EventIDForKey(fields.IdempotencyKey)
	}

	created, err := g.svc.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		if body.Id != "" && isConflict(err) {
			return g.existingForKey(ctx, body.Id)
		}
		return nil, fmt.Errorf("failed to create event: %w", apiError(err))
	}

	g.logger.Info("event created", zap.String("event_id", created.Id))
	ev := eventFromAPI(created)
	return &ev, nil
}

func (g *CalendarGateway) existingForKey(ctx context.Context, id string) (*models.CalendarEvent, error) {
	existing, err := g.svc.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event for repeated create: %w", apiError(err))
	}
	if existing.Status == statusCancelled {
		return nil, fmt.Errorf("failed to create event: id %s belongs to a deleted event", id)
	}
	g.logger.Info("repeated create resolved to existing event", zap.String("event_id", id))
	ev := eventFromAPI(existing)
	return &ev, nil
}

// Update replaces the whole event identified by id with fields.
func (g *CalendarGateway) Update(ctx context.Context, id string, fields models.EventFields) (*models.CalendarEvent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", models.ErrInvalidEvent)
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	updated, err := g.svc.Events.Update(g.calendarID, id, eventToAPI(fields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", id, apiError(err))
	}

	g.logger.Info("event updated", zap.String("event_id", id))
	ev := eventFromAPI(updated)
	return &ev, nil
}

// Delete removes the event identified by id.
func (g *CalendarGateway) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: event id is required", models.ErrInvalidEvent)
	}
	if err := g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, apiError(err))
	}
	g.logger.Info("event deleted", zap.String("event_id", id))
	return nil
}

// EventIDForKey maps an idempotency key to a valid client-supplied event id:
// lowercase base32hex (a-v, 0-9) of the key's SHA-256.
func EventIDForKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return strings.ToLower(eventIDEncoding.EncodeToString(sum[:]))
}

// IsNotFound reports whether err is a 404 or 410 from the Calendar API.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

// apiError marks a 401 as ErrReauthRequired and keeps the googleapi error
// reachable for callers.
func apiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	return err
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}

func eventToAPI(f models.EventFields) *calendar.Event {
	zone := f.ZoneName()
	return &calendar.Event{
		Summary:     f.Title,
		Location:    f.Location,
		Description: f.Description,
		Start: &calendar.EventDateTime{
			DateTime: f.Start.Format(time.RFC3339),
			TimeZone: zone,
		},
		End: &calendar.EventDateTime{
			DateTime: f.End.Format(time.RFC3339),
			TimeZone: zone,
		},
	}
}

func eventFromAPI(item *calendar.Event) models.CalendarEvent {
	ev := models.CalendarEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Location:    item.Location,
		Description: item.Description,
		Status:      item.Status,
		HTMLLink:    item.HtmlLink,
	}
	if item.Start != nil {
		ev.Start = models.EventTime{DateTime: item.Start.DateTime, Date: item.Start.Date, TimeZone: item.Start.TimeZone}
	}
	if item.End != nil {
		ev.End = models.EventTime{DateTime: item.End.DateTime, Date: item.End.Date, TimeZone: item.End.TimeZone}
	}
	return ev
}
