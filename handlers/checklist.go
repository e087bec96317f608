// ABOUTME: MCP tool handlers for the daily study checklist
// ABOUTME: Each call loads the stored checklist, applies one change and saves it back
package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ChecklistHandlers struct {
	store checklist.Store
	loc   *time.Location
	now   func() time.Time

	// mu serializes load-modify-save cycles within this process.
	mu sync.Mutex
}

func NewChecklistHandlers(store checklist.Store, loc *time.Location) *ChecklistHandlers {
	if loc == nil {
		loc = time.Local
	}
	return &ChecklistHandlers{store: store, loc: loc, now: time.Now}
}

type GetChecklistInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD (defaults to today)"`
	All  bool   `json:"all,omitempty" jsonschema:"Return every day that has tasks instead of a single day"`
}

type ChecklistDayOutput struct {
	Date    string                  `json:"date"`
	Entries []models.ChecklistEntry `json:"entries"`
	Done    int                     `json:"done"`
	Total   int                     `json:"total"`
}

type GetChecklistOutput struct {
	Days []ChecklistDayOutput `json:"days"`
}

type AddChecklistTaskInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD (defaults to today)"`
	Task string `json:"task" jsonschema:"Task description (required)"`
}

type SetChecklistTaskDoneInput struct {
	Date  string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD (defaults to today)"`
	Index int    `json:"index" jsonschema:"Zero-based position of the task within the day"`
	Done  bool   `json:"done" jsonschema:"Whether the task is completed"`
}

type PurgeChecklistDoneInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD (defaults to today)"`
}

type PurgeChecklistDoneOutput struct {
	Day     ChecklistDayOutput `json:"day"`
	Removed int                `json:"removed"`
}

func (h *ChecklistHandlers) GetChecklist(ctx context.Context, request *mcp.CallToolRequest, input GetChecklistInput) (*mcp.CallToolResult, GetChecklistOutput, error) {
	book, err := h.store.Load(ctx)
	if err != nil {
		return nil, GetChecklistOutput{}, fmt.Errorf("failed to load checklist: %w", err)
	}

	out := GetChecklistOutput{Days: []ChecklistDayOutput{}}
	if input.All {
		for _, date := range book.Dates() {
			out.Days = append(out.Days, dayOutput(book, date))
		}
		return nil, out, nil
	}

	date, err := h.date(input.Date)
	if err != nil {
		return nil, GetChecklistOutput{}, err
	}
	out.Days = append(out.Days, dayOutput(book, date))
	return nil, out, nil
}

func (h *ChecklistHandlers) AddChecklistTask(ctx context.Context, request *mcp.CallToolRequest, input AddChecklistTaskInput) (*mcp.CallToolResult, ChecklistDayOutput, error) {
	date, err := h.date(input.Date)
	if err != nil {
		return nil, ChecklistDayOutput{}, err
	}

	var out ChecklistDayOutput
	err = h.edit(ctx, func(book checklist.Book) error {
		if err := book.Add(date, input.Task); err != nil {
			return err
		}
		out = dayOutput(book, date)
		return nil
	})
	if err != nil {
		return nil, ChecklistDayOutput{}, err
	}
	return nil, out, nil
}

func (h *ChecklistHandlers) SetChecklistTaskDone(ctx context.Context, request *mcp.CallToolRequest, input SetChecklistTaskDoneInput) (*mcp.CallToolResult, ChecklistDayOutput, error) {
	date, err := h.date(input.Date)
	if err != nil {
		return nil, ChecklistDayOutput{}, err
	}

	var out ChecklistDayOutput
	err = h.edit(ctx, func(book checklist.Book) error {
		if err := book.SetDone(date, input.Index, input.Done); err != nil {
			return err
		}
		out = dayOutput(book, date)
		return nil
	})
	if err != nil {
		return nil, ChecklistDayOutput{}, err
	}
	return nil, out, nil
}

func (h *ChecklistHandlers) PurgeChecklistDone(ctx context.Context, request *mcp.CallToolRequest, input PurgeChecklistDoneInput) (*mcp.CallToolResult, PurgeChecklistDoneOutput, error) {
	date, err := h.date(input.Date)
	if err != nil {
		return nil, PurgeChecklistDoneOutput{}, err
	}

	var out PurgeChecklistDoneOutput
	err = h.edit(ctx, func(book checklist.Book) error {
		out.Removed = book.PurgeDone(date)
		out.Day = dayOutput(book, date)
		return nil
	})
	if err != nil {
		return nil, PurgeChecklistDoneOutput{}, err
	}
	return nil, out, nil
}

func (h *ChecklistHandlers) edit(ctx context.Context, fn func(checklist.Book) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	book, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checklist: %w", err)
	}
	if book == nil {
		book = checklist.Book{}
	}
	if err := fn(book); err != nil {
		return err
	}
	if err := h.store.Save(ctx, book); err != nil {
		return fmt.Errorf("failed to save checklist: %w", err)
	}
	return nil
}

func (h *ChecklistHandlers) date(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return checklist.DateKey(h.now().In(h.loc)), nil
	}
	if _, err := checklist.ParseDate(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func dayOutput(book checklist.Book, date string) ChecklistDayOutput {
	done, total := book.Progress(date)
	entries := book.Entries(date)
	if entries == nil {
		entries = []models.ChecklistEntry{}
	}
	return ChecklistDayOutput{Date: date, Entries: entries, Done: done, Total: total}
}
