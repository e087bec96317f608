// ABOUTME: Root command of the jaksim binary
// ABOUTME: Loads configuration and builds the zap logger before any subcommand runs
package cli

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jaksim/jaksim/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0"

// app holds state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "jaksim",
		Short: "Study dashboard with Google Calendar, a daily checklist and a chatbot",
		Long: `jaksim keeps your study plan in one place.

Run "jaksim serve" for the web dashboard, or use the subcommands to manage
calendar events, the daily checklist and the chatbot from a terminal.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/jaksim/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(a),
		newAuthCommand(a),
		newEventsCommand(a),
		newChecklistCommand(a),
		newChatCommand(a),
		newMCPCommand(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	zc := zap.NewProductionConfig()
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	if !a.verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded",
		zap.String("timezone", cfg.Timezone),
		zap.String("checklist_backend", cfg.Checklist.Backend),
		zap.String("chat_provider", cfg.Chat.Provider))
	return nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
