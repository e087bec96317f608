// ABOUTME: MCP server subcommand
// ABOUTME: Serves calendar and checklist tools, prompts and resources on stdio
package cli

import (
	"context"

	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openChecklist()
			if err != nil {
				return err
			}
			defer store.Close()

			var events handlers.EventsFactory
			flow, err := a.newFlow("")
			if err != nil {
				a.logger.Warn("calendar tools disabled", zap.Error(err))
			} else {
				events = func(ctx context.Context) (handlers.EventService, error) {
					gw, err := a.gateway(ctx, flow)
					if err != nil {
						return nil, err
					}
					return gw, nil
				}
			}

			a.logger.Info("starting MCP server")
			server := newMCPServer(store, events, a)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

// newMCPServer registers every tool, prompt and resource. events may be nil
// when Google is not configured; calendar tools are then left out.
func newMCPServer(store checklist.Store, events handlers.EventsFactory, a *app) *mcp.Server {
	loc := a.cfg.Location()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "jaksim",
		Version: Version,
	}, nil)

	if events != nil {
		eventHandlers := handlers.NewEventHandlers(events, loc, a.cfg.Google.UpcomingLimit)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "list_upcoming_events",
			Description: "List upcoming Google Calendar events in start order",
		}, eventHandlers.ListUpcomingEvents)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "create_event",
			Description: "Create a calendar event from a date and HH:MM start and end times",
		}, eventHandlers.CreateEvent)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "update_event",
			Description: "Replace an existing calendar event's title, times, location and description",
		}, eventHandlers.UpdateEvent)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "delete_event",
			Description: "Delete a calendar event by ID",
		}, eventHandlers.DeleteEvent)
	}

	checklistHandlers := handlers.NewChecklistHandlers(store, loc)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_checklist",
		Description: "Get the study checklist for a day, or for every day",
	}, checklistHandlers.GetChecklist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_checklist_task",
		Description: "Add a task to a day's study checklist",
	}, checklistHandlers.AddChecklistTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_checklist_task_done",
		Description: "Mark a checklist task as done or not done",
	}, checklistHandlers.SetChecklistTaskDone)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "purge_checklist_done",
		Description: "Remove completed tasks from a day's checklist",
	}, checklistHandlers.PurgeChecklistDone)

	promptHandlers := handlers.NewPromptHandlers(store, events, loc)

	server.AddPrompt(&mcp.Prompt{
		Name:        "daily-review",
		Description: "Review a day's checklist and plan what to carry over",
		Arguments: []*mcp.PromptArgument{
			{Name: "date", Description: "Day as YYYY-MM-DD (default today)"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "study-plan",
		Description: "Draft a weekly study plan around upcoming events",
		Arguments: []*mcp.PromptArgument{
			{Name: "goal", Description: "What you are studying for", Required: true},
		},
	}, promptHandlers.GetPrompt)

	resourceHandlers := handlers.NewResourceHandlers(store)

	server.AddResource(&mcp.Resource{
		URI:         "jaksim://checklist",
		Name:        "checklist",
		Description: "Every day's checklist entries",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "jaksim://checklist/{date}",
		Name:        "checklist-day",
		Description: "One day's checklist entries and progress",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	return server
}
