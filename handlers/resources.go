// ABOUTME: MCP resource handlers for exposing checklist data
// ABOUTME: Provides read-only access to the whole checklist or a single day via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaksim/jaksim/checklist"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "jaksim://"

type ResourceHandlers struct {
	store checklist.Store
}

func NewResourceHandlers(store checklist.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	path := strings.TrimPrefix(uri, resourceScheme)
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "checklist":
		if len(parts) == 1 || parts[1] == "" {
			return h.readChecklist(ctx, uri)
		}
		return h.readChecklistDay(ctx, uri, parts[1])
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readChecklist(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	book, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist: %w", err)
	}
	if book == nil {
		book = checklist.Book{}
	}
	return jsonResource(uri, book)
}

func (h *ResourceHandlers) readChecklistDay(ctx context.Context, uri, date string) (*mcp.ReadResourceResult, error) {
	if _, err := checklist.ParseDate(date); err != nil {
		return nil, err
	}
	book, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist: %w", err)
	}
	return jsonResource(uri, dayOutput(book, date))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
