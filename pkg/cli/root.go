// Package cli provides the taskweave command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/evanmoss/taskweave/pkg/backend"
	"github.com/evanmoss/taskweave/pkg/calsync"
	"github.com/evanmoss/taskweave/pkg/gcal"
	"github.com/evanmoss/taskweave/pkg/prefs"
	"github.com/evanmoss/taskweave/pkg/store"
	"github.com/spf13/cobra"
)

// env is checked when the corresponding flag is empty.
const (
	envAPIURL = "TASKWEAVE_API_URL"
	envToken  = "TASKWEAVE_API_TOKEN"
)

type options struct {
	apiURL   string
	apiToken string
	calendar string
	noSync   bool
	verbose  bool
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "taskweave",
		Short:         "Task scheduling with Google Calendar sync",
		Long:          "taskweave keeps a hierarchical task collection and mirrors scheduled tasks\nonto a Google Calendar. Mutations commit to the data service first; calendar\nsync runs afterwards and never blocks a command.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "task service base URL (defaults to $"+envAPIURL+")")
	root.PersistentFlags().StringVar(&opts.apiToken, "token", "", "task service bearer token (defaults to $"+envToken+")")
	root.PersistentFlags().StringVar(&opts.calendar, "calendar", "", "destination calendar name (overrides preferences)")
	root.PersistentFlags().BoolVar(&opts.noSync, "no-sync", false, "skip calendar synchronization")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newAuthCommand(),
		newSetCalendarCommand(),
		newAddCommand(opts),
		newListCommand(opts),
		newDoneCommand(opts),
		newRemoveCommand(opts),
		newDepCommand(opts),
		newTimerCommand(opts),
		newSyncCommand(opts),
	)
	return root
}

func (o *options) openPrefs() (*prefs.Store, error) {
	path, err := prefs.DefaultPath()
	if err != nil {
		return nil, err
	}
	return prefs.Open(path)
}

// openStore wires the full engine: preference store, backend client,
// and (unless --no-sync) an authenticated calendar reconciler. The
// returned store is loaded; the caller must Close it.
func (o *options) openStore(ctx context.Context, withSync bool) (*store.Store, error) {
	p, err := o.openPrefs()
	if err != nil {
		return nil, err
	}

	apiURL := o.apiURL
	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		return nil, fmt.Errorf("no task service URL: pass --api-url or set $%s", envAPIURL)
	}
	token := o.apiToken
	if token == "" {
		token = os.Getenv(envToken)
	}

	cfg := store.Config{
		Backend: backend.New(apiURL, token),
		Prefs:   p,
		Logger:  slog.Default(),
	}

	if withSync && !o.noSync {
		calendarName := o.calendar
		if calendarName == "" {
			calendarName = p.Get().Calendar
		}
		gc, err := gcal.NewClient(ctx, calendarName)
		if err != nil {
			// Mutations must not be blocked by a broken calendar setup.
			slog.Warn("calendar unavailable, continuing without sync", "error", err)
		} else {
			cfg.Reconciler = calsync.New(gc, slog.Default())
		}
	}

	s, err := store.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// closeAndReport drains the store and prints each side-effect outcome.
func closeAndReport(cmd *cobra.Command, s *store.Store) error {
	err := s.Close()
	for n := range s.Notices() {
		if n.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s for task %s: %v\n", n.Kind, n.TaskID, n.Err)
			continue
		}
		if n.Kind == store.NoticeSync && n.Outcome != calsync.OutcomeNoop {
			fmt.Fprintf(cmd.OutOrStdout(), "calendar: %s (task %s)\n", n.Outcome, n.TaskID)
		}
		if n.Kind == store.NoticeRecurrence {
			fmt.Fprintf(cmd.OutOrStdout(), "next occurrence created: %s\n", n.TaskID)
		}
	}
	return err
}
