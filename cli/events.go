// ABOUTME: events subcommands for Google Calendar
// ABOUTME: Lists, adds, updates, deletes and exports upcoming events
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
	"github.com/spf13/cobra"
)

type eventFlags struct {
	title       string
	date        string
	start       string
	endDate     string
	end         string
	location    string
	description string
	key         string
}

func (f *eventFlags) register(cmd *cobra.Command, withKey bool) {
	cmd.Flags().StringVar(&f.title, "title", "", "event title (required)")
	cmd.Flags().StringVar(&f.date, "date", "", "start date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&f.start, "start", "", "start time, HH:MM (required)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "end date, YYYY-MM-DD (defaults to --date)")
	cmd.Flags().StringVar(&f.end, "end", "", "end time, HH:MM (required)")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	if withKey {
		cmd.Flags().StringVar(&f.key, "idempotency-key", "", "reuse to avoid creating the event twice (default: random)")
	}
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *eventFlags) fields(a *app) (models.EventFields, error) {
	title := strings.TrimSpace(f.title)
	if title == "" {
		return models.EventFields{}, fmt.Errorf("title cannot be empty")
	}
	fields, err := a.eventFields(title, f.date, f.start, f.endDate, f.end)
	if err != nil {
		return models.EventFields{}, err
	}
	fields.Location = strings.TrimSpace(f.location)
	fields.Description = strings.TrimSpace(f.description)
	fields.IdempotencyKey = strings.TrimSpace(f.key)
	return fields, nil
}

func newEventsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage Google Calendar events",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List upcoming events",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			events, err := gw.ListUpcoming(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), events, a.cfg.Location())
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", gcal.DefaultUpcomingLimit, "maximum number of events")

	var addFlags eventFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		Example: `  jaksim events add --title "Algorithms study" --date 2024-01-01 --start 09:00 --end 11:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := addFlags.fields(a)
			if err != nil {
				return err
			}
			if fields.IdempotencyKey == "" {
				fields.IdempotencyKey = uuid.New().String()
			}
			gw, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ev, err := gw.Create(cmd.Context(), fields)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "✓ Event created: %s (ID: %s)\n", ev.DisplayTitle(), ev.ID)
			if ev.HTMLLink != "" {
				printf(cmd.OutOrStdout(), "  %s\n", ev.HTMLLink)
			}
			return nil
		},
	}
	addFlags.register(add, true)

	var updateFlags eventFlags
	update := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Replace an event's title, time, location and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := updateFlags.fields(a)
			if err != nil {
				return err
			}
			gw, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ev, err := gw.Update(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "✓ Event updated: %s (ID: %s)\n", ev.DisplayTitle(), ev.ID)
			return nil
		},
	}
	updateFlags.register(update, false)

	del := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := gw.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "✓ Event deleted: %s\n", args[0])
			return nil
		},
	}

	var output string
	var exportLimit int
	export := &cobra.Command{
		Use:   "export",
		Short: "Export upcoming events as iCalendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			events, err := gw.ListUpcoming(cmd.Context(), exportLimit)
			if err != nil {
				return err
			}
			doc := gcal.ExportICS(events, a.cfg.Location(), time.Now())
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), doc)
				return err
			}
			if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			printf(cmd.ErrOrStderr(), "Exported %d event(s) to %s\n", len(events), output)
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	export.Flags().IntVarP(&exportLimit, "limit", "n", 50, "maximum number of events")

	cmd.AddCommand(list, add, update, del, export)
	return cmd
}

func printEvents(out io.Writer, events []models.CalendarEvent, loc *time.Location) {
	if len(events) == 0 {
		printf(out, "No upcoming events.\n")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTITLE\tLOCATION\tID")
	fmt.Fprintln(w, "----\t-----\t--------\t--")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", eventWhen(ev, loc), ev.DisplayTitle(), ev.Location, ev.ID)
	}
	w.Flush()

	printf(out, "\nTotal: %d event(s)\n", len(events))
}

func eventWhen(ev models.CalendarEvent, loc *time.Location) string {
	start, err := ev.Start.Resolve(loc)
	if err != nil {
		return ev.Start.Raw()
	}
	if ev.Start.AllDay() {
		return start.Format(models.DateLayout) + " (all day)"
	}
	return start.In(loc).Format("2006-01-02 15:04")
}
