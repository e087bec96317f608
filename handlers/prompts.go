// ABOUTME: MCP prompt handlers for study planning templates
// ABOUTME: Builds daily review and weekly plan prompts from the checklist and calendar
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/gcal"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store  checklist.Store
	events EventsFactory
	loc    *time.Location
	now    func() time.Time
}

// NewPromptHandlers builds prompt handlers. events may be nil when the
// calendar is not connected; prompts then omit the schedule.
func NewPromptHandlers(store checklist.Store, events EventsFactory, loc *time.Location) *PromptHandlers {
	if loc == nil {
		loc = time.Local
	}
	return &PromptHandlers{store: store, events: events, loc: loc, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "daily-review":
		return h.getDailyReviewPrompt(ctx, arguments)
	case "study-plan":
		return h.getStudyPlanPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getDailyReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	date := strings.TrimSpace(args["date"])
	if date == "" {
		date = checklist.DateKey(h.now().In(h.loc))
	}
	if _, err := checklist.ParseDate(date); err != nil {
		return nil, err
	}

	book, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist: %w", err)
	}
	done, total := book.Progress(date)

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Here is my study checklist for %s (%d of %d done):\n\n", date, done, total))
	if total == 0 {
		promptText.WriteString("(no tasks recorded)\n")
	}
	for _, e := range book.Entries(date) {
		mark := " "
		if e.Done {
			mark = "x"
		}
		promptText.WriteString(fmt.Sprintf("- [%s] %s\n", mark, e.Task))
	}

	promptText.WriteString("\nPlease review my day and provide:")
	promptText.WriteString("\n1. A short reflection on what got done")
	promptText.WriteString("\n2. Which unfinished tasks to carry over to tomorrow")
	promptText.WriteString("\n3. One concrete suggestion to stay on track")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Daily review for %s", date),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getStudyPlanPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	goal := strings.TrimSpace(args["goal"])
	if goal == "" {
		return nil, fmt.Errorf("goal is required")
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("My study goal: %s\n\n", goal))

	if h.events != nil {
		promptText.WriteString("Upcoming calendar events:\n")
		svc, err := h.events(ctx)
		if err == nil {
			var events []eventLine
			events, err = upcomingLines(ctx, svc)
			for _, ev := range events {
				promptText.WriteString(fmt.Sprintf("- %s: %s\n", ev.start, ev.title))
			}
			if err == nil && len(events) == 0 {
				promptText.WriteString("(none)\n")
			}
		}
		if err != nil {
			promptText.WriteString("(calendar unavailable)\n")
		}
	}

	promptText.WriteString("\nPlease draft a study plan for the coming week that:")
	promptText.WriteString("\n1. Fits around the events above")
	promptText.WriteString("\n2. Breaks the goal into daily checklist tasks")
	promptText.WriteString("\n3. Leaves room for review")

	return &mcp.GetPromptResult{
		Description: "Study plan for: " + goal,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

type eventLine struct {
	start string
	title string
}

func upcomingLines(ctx context.Context, svc EventService) ([]eventLine, error) {
	events, err := svc.ListUpcoming(ctx, gcal.DefaultUpcomingLimit)
	if err != nil {
		return nil, err
	}
	lines := make([]eventLine, 0, len(events))
	for _, ev := range events {
		lines = append(lines, eventLine{start: ev.Start.Raw(), title: ev.DisplayTitle()})
	}
	return lines, nil
}
