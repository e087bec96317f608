// ABOUTME: serve subcommand
// ABOUTME: Runs the web dashboard until interrupted
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaksim/jaksim/chat"
	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
	"github.com/jaksim/jaksim/session"
	"github.com/jaksim/jaksim/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.openChecklist()
	if err != nil {
		return err
	}
	defer store.Close()

	var auth web.Authorizer
	var events web.EventsFactory
	flow, err := a.newFlow("")
	if err != nil {
		// The rest of the dashboard works without Google.
		a.logger.Warn("google calendar disabled", zap.Error(err))
		auth = unconfiguredAuth{err: err}
		events = func(context.Context) (web.EventService, error) { return nil, err }
	} else {
		auth = flow
		events = func(ctx context.Context) (web.EventService, error) {
			gw, err := a.gateway(ctx, flow)
			if err != nil {
				return nil, err
			}
			return gw, nil
		}
	}

	streamer, chatErr := chat.NewStreamer(ctx, a.cfg.Chat)
	if chatErr != nil {
		a.logger.Warn("chat disabled", zap.Error(chatErr))
	}

	srv, err := web.NewServer(web.Deps{
		Config:    a.cfg,
		Auth:      auth,
		Events:    events,
		Checklist: store,
		Sessions:  session.NewRegistry(a.cfg.SessionIdle, a.cfg.Chat.SystemPrompt),
		Logger:    a.logger,
		Chat:      streamer,
		ChatErr:   chatErr,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// unconfiguredAuth stands in for the OAuth flow when no client is configured.
type unconfiguredAuth struct {
	err error
}

func (u unconfiguredAuth) State() gcal.AuthState {
	return gcal.Unauthenticated
}

func (u unconfiguredAuth) BeginLogin(string) (string, string, error) {
	return "", "", u.err
}

func (u unconfiguredAuth) Complete(context.Context, string, string) (*models.Credential, error) {
	return nil, u.err
}

func (u unconfiguredAuth) Logout() error {
	return nil
}
