// ABOUTME: MCP tool handlers for Google Calendar events
// ABOUTME: Lists, creates, updates and deletes events on the configured calendar
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EventService performs calendar event operations.
type EventService interface {
	ListUpcoming(ctx context.Context, limit int) ([]models.CalendarEvent, error)
	Create(ctx context.Context, fields models.EventFields) (*models.CalendarEvent, error)
	Update(ctx context.Context, id string, fields models.EventFields) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
}

// EventsFactory returns an EventService authorized for the stored credential.
type EventsFactory func(ctx context.Context) (EventService, error)

type EventHandlers struct {
	events EventsFactory
	loc    *time.Location
	limit  int
}

func NewEventHandlers(events EventsFactory, loc *time.Location, limit int) *EventHandlers {
	if loc == nil {
		loc = time.Local
	}
	if limit <= 0 {
		limit = gcal.DefaultUpcomingLimit
	}
	return &EventHandlers{events: events, loc: loc, limit: limit}
}

type ListUpcomingInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of events to return (default 10)"`
}

type EventOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"all_day,omitempty"`
	Link        string `json:"link,omitempty"`
}

type ListUpcomingOutput struct {
	Events []EventOutput `json:"events"`
}

type CreateEventInput struct {
	Title          string `json:"title" jsonschema:"Event title (required)"`
	Date           string `json:"date" jsonschema:"Start date as YYYY-MM-DD (required)"`
	Start          string `json:"start" jsonschema:"Start time as HH:MM in the configured time zone (required)"`
	EndDate        string `json:"end_date,omitempty" jsonschema:"End date as YYYY-MM-DD (defaults to date)"`
	End            string `json:"end" jsonschema:"End time as HH:MM, must be after the start (required)"`
	Location       string `json:"location,omitempty" jsonschema:"Where the event takes place"`
	Description    string `json:"description,omitempty" jsonschema:"Notes for the event"`
	IdempotencyKey string `json:"idempotency_key,omitempty" jsonschema:"Repeating a create with the same key returns the existing event"`
}

type UpdateEventInput struct {
	ID          string `json:"id" jsonschema:"Event ID (required)"`
	Title       string `json:"title" jsonschema:"Event title (required)"`
	Date        string `json:"date" jsonschema:"Start date as YYYY-MM-DD (required)"`
	Start       string `json:"start" jsonschema:"Start time as HH:MM (required)"`
	EndDate     string `json:"end_date,omitempty" jsonschema:"End date as YYYY-MM-DD (defaults to date)"`
	End         string `json:"end" jsonschema:"End time as HH:MM (required)"`
	Location    string `json:"location,omitempty" jsonschema:"Where the event takes place"`
	Description string `json:"description,omitempty" jsonschema:"Notes for the event"`
}

type DeleteEventInput struct {
	ID string `json:"id" jsonschema:"Event ID (required)"`
}

type DeleteEventOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *EventHandlers) ListUpcomingEvents(ctx context.Context, request *mcp.CallToolRequest, input ListUpcomingInput) (*mcp.CallToolResult, ListUpcomingOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = h.limit
	}

	svc, err := h.events(ctx)
	if err != nil {
		return nil, ListUpcomingOutput{}, err
	}
	events, err := svc.ListUpcoming(ctx, limit)
	if err != nil {
		return nil, ListUpcomingOutput{}, fmt.Errorf("failed to list events: %w", err)
	}

	out := ListUpcomingOutput{Events: make([]EventOutput, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, eventToOutput(ev))
	}
	return nil, out, nil
}

func (h *EventHandlers) CreateEvent(ctx context.Context, request *mcp.CallToolRequest, input CreateEventInput) (*mcp.CallToolResult, EventOutput, error) {
	fields, err := h.fields(input.Title, input.Date, input.Start, input.EndDate, input.End)
	if err != nil {
		return nil, EventOutput{}, err
	}
	fields.Location = strings.TrimSpace(input.Location)
	fields.Description = strings.TrimSpace(input.Description)
	fields.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)

	svc, err := h.events(ctx)
	if err != nil {
		return nil, EventOutput{}, err
	}
	ev, err := svc.Create(ctx, fields)
	if err != nil {
		return nil, EventOutput{}, fmt.Errorf("failed to create event: %w", err)
	}
	return nil, eventToOutput(*ev), nil
}

func (h *EventHandlers) UpdateEvent(ctx context.Context, request *mcp.CallToolRequest, input UpdateEventInput) (*mcp.CallToolResult, EventOutput, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, EventOutput{}, fmt.Errorf("id is required")
	}
	fields, err := h.fields(input.Title, input.Date, input.Start, input.EndDate, input.End)
	if err != nil {
		return nil, EventOutput{}, err
	}
	fields.Location = strings.TrimSpace(input.Location)
	fields.Description = strings.TrimSpace(input.Description)

	svc, err := h.events(ctx)
	if err != nil {
		return nil, EventOutput{}, err
	}
	ev, err := svc.Update(ctx, input.ID, fields)
	if err != nil {
		return nil, EventOutput{}, fmt.Errorf("failed to update event: %w", err)
	}
	return nil, eventToOutput(*ev), nil
}

func (h *EventHandlers) DeleteEvent(ctx context.Context, request *mcp.CallToolRequest, input DeleteEventInput) (*mcp.CallToolResult, DeleteEventOutput, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, DeleteEventOutput{}, fmt.Errorf("id is required")
	}

	svc, err := h.events(ctx)
	if err != nil {
		return nil, DeleteEventOutput{}, err
	}
	if err := svc.Delete(ctx, input.ID); err != nil {
		return nil, DeleteEventOutput{}, fmt.Errorf("failed to delete event: %w", err)
	}
	return nil, DeleteEventOutput{ID: input.ID, Deleted: true}, nil
}

// fields builds validated EventFields from tool arguments. Nothing reaches
// the calendar when this fails.
func (h *EventHandlers) fields(title, date, start, endDate, end string) (models.EventFields, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.EventFields{}, fmt.Errorf("title is required")
	}
	startAt, err := models.ParseLocalTime(date, start, h.loc)
	if err != nil {
		return models.EventFields{}, err
	}
	if strings.TrimSpace(endDate) == "" {
		endDate = date
	}
	endAt, err := models.ParseLocalTime(endDate, end, h.loc)
	if err != nil {
		return models.EventFields{}, err
	}

	fields := models.EventFields{
		Title:    title,
		Start:    startAt,
		End:      endAt,
		TimeZone: h.loc.String(),
	}
	if err := fields.Validate(); err != nil {
		return models.EventFields{}, err
	}
	return fields, nil
}

func eventToOutput(ev models.CalendarEvent) EventOutput {
	return EventOutput{
		ID:          ev.ID,
		Title:       ev.DisplayTitle(),
		Location:    ev.Location,
		Description: ev.Description,
		Start:       ev.Start.Raw(),
		End:         ev.End.Raw(),
		AllDay:      ev.Start.AllDay(),
		Link:        ev.HTMLLink,
	}
}
