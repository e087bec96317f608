// ABOUTME: checklist subcommands for the daily study checklist
// ABOUTME: Shows, adds, completes and purges tasks, opens the board and syncs Charm storage
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/tui"
	"github.com/spf13/cobra"
)

func newChecklistCommand(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "checklist",
		Aliases: []string{"cl"},
		Short:   "Manage the daily study checklist",
	}
	cmd.PersistentFlags().StringVarP(&date, "date", "d", "", "day as YYYY-MM-DD (default today)")

	var all bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the tasks for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withChecklist(func(store checklist.Store) error {
				book, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				if all {
					dates := book.Dates()
					if len(dates) == 0 {
						printf(cmd.OutOrStdout(), "No tasks recorded.\n")
					}
					for _, d := range dates {
						printDay(cmd.OutOrStdout(), book, d)
					}
					return nil
				}
				day, err := a.checklistDate(date)
				if err != nil {
					return err
				}
				printDay(cmd.OutOrStdout(), book, day)
				return nil
			})
		},
	}
	show.Flags().BoolVar(&all, "all", false, "show every day with tasks")

	add := &cobra.Command{
		Use:   "add <task>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.checklistDate(date)
			if err != nil {
				return err
			}
			task := strings.Join(args, " ")
			return a.editChecklist(cmd.Context(), func(book checklist.Book) error {
				if err := book.Add(day, task); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "✓ Added to %s: %s\n", day, strings.TrimSpace(task))
				return nil
			})
		},
	}

	var undo bool
	done := &cobra.Command{
		Use:   "done <number>",
		Short: "Mark a task as done (numbers as shown by \"checklist show\")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.checklistDate(date)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task number %q", args[0])
			}
			return a.editChecklist(cmd.Context(), func(book checklist.Book) error {
				if err := book.SetDone(day, n-1, !undo); err != nil {
					return err
				}
				printDay(cmd.OutOrStdout(), book, day)
				return nil
			})
		},
	}
	done.Flags().BoolVar(&undo, "undo", false, "mark the task as not done")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove completed tasks for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.checklistDate(date)
			if err != nil {
				return err
			}
			return a.editChecklist(cmd.Context(), func(book checklist.Book) error {
				removed := book.PurgeDone(day)
				printf(cmd.OutOrStdout(), "✓ Removed %d completed task(s) from %s\n", removed, day)
				return nil
			})
		},
	}

	board := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive checklist board",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.checklistDate(date)
			if err != nil {
				return err
			}
			return a.withChecklist(func(store checklist.Store) error {
				model, err := tui.NewModel(cmd.Context(), store, day, a.cfg.Location())
				if err != nil {
					return err
				}
				_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
				if errors.Is(err, tea.ErrProgramKilled) {
					return nil
				}
				return err
			})
		},
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Sync the checklist with Charm Cloud (charm backend only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withChecklist(func(store checklist.Store) error {
				kv, ok := store.(*checklist.KVStore)
				if !ok || !kv.Client().Remote() {
					return fmt.Errorf("checklist backend %q does not sync; set checklist.backend to %q", a.cfg.Checklist.Backend, "charm")
				}
				if err := kv.Client().Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				id, err := kv.Client().ID()
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "✓ Synced with %s as %s\n", a.cfg.Checklist.CharmHost, id)
				return nil
			})
		},
	}

	cmd.AddCommand(show, add, done, purge, board, sync)
	return cmd
}

func (a *app) withChecklist(fn func(checklist.Store) error) error {
	store, err := a.openChecklist()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// editChecklist loads the stored checklist, applies fn and saves the result.
func (a *app) editChecklist(ctx context.Context, fn func(checklist.Book) error) error {
	return a.withChecklist(func(store checklist.Store) error {
		book, err := store.Load(ctx)
		if err != nil {
			return err
		}
		if err := fn(book); err != nil {
			return err
		}
		return store.Save(ctx, book)
	})
}

func (a *app) checklistDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return checklist.DateKey(time.Now().In(a.cfg.Location())), nil
	}
	if _, err := checklist.ParseDate(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func printDay(out io.Writer, book checklist.Book, date string) {
	done, total := book.Progress(date)
	printf(out, "%s  (%d/%d)\n", date, done, total)
	entries := book.Entries(date)
	if len(entries) == 0 {
		printf(out, "  No tasks.\n")
		return
	}
	for i, e := range entries {
		mark := " "
		if e.Done {
			mark = "x"
		}
		printf(out, "  %d. [%s] %s\n", i+1, mark, e.Task)
	}
}
