// Package cli implements helpdeskctl, the operator command line for the
// ticket store.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/app"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// skipRuntime marks commands that never touch the store.
const skipRuntime = "helpdeskctl/skip-runtime"

// Runtime is what the commands operate on.
type Runtime struct {
	Tickets *service.TicketService
	Reports *service.ReportService
	Close   func()
}

// Loader builds the Runtime; verbose raises the log level to info.
type Loader func(ctx context.Context, verbose bool) (*Runtime, error)

type state struct {
	load    Loader
	rt      *Runtime
	verbose bool
}

// NewRootCmd assembles the command tree.
func NewRootCmd(load Loader) *cobra.Command {
	st := &state{load: load}
	root := &cobra.Command{
		Use:           "helpdeskctl",
		Short:         "Inspect and manage helpdesk tickets",
		Long:          "helpdeskctl reads the configured ticket store (TICKET_STORE, see .env) and classifies issues from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipRuntime] == "true" || st.rt != nil {
				return nil
			}
			rt, err := st.load(cmd.Context(), st.verbose)
			if err != nil {
				return err
			}
			st.rt = rt
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if st.rt != nil && st.rt.Close != nil {
				st.rt.Close()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "log at info level to stderr")

	root.AddCommand(
		statsCmd(st),
		listCmd(st),
		showCmd(st),
		exportCmd(st),
		kbCmd(st),
		classifyCmd(st),
		setStatusCmd(st),
		hashPasswordCmd(),
	)
	return root
}

// DefaultLoader wires the services from environment configuration.
func DefaultLoader(ctx context.Context, verbose bool) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.App.ApplyTimezone()
	if !verbose && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &Runtime{
		Tickets: container.TicketService,
		Reports: container.ReportService,
		Close: func() {
			container.Close()
			_ = logger.Sync()
		},
	}, nil
}
