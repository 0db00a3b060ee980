package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stravasync/stravasync/internal/app"
)

var svc *app.App

var rootCmd = &cobra.Command{
	Use:   "stravasync",
	Short: "Operate the Strava activity store from the command line",
	Long: `stravasync runs the same sync and maintenance jobs as the HTTP server
against the configured database.

Configuration is read from .env.local, the YAML file named by
STRAVASYNC_CONFIG and the environment.

  $ stravasync check                 # Verify Strava credentials
  $ stravasync sync --limit 30       # Import recent activities
  $ stravasync backfill --dry-run    # Preview PR segment geometry backfill
  $ stravasync activity delete 123   # Remove an activity and its efforts`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		// PersistentPostRunE is skipped when RunE fails
		if svc != nil {
			_ = svc.Close()
		}
		a, err := app.New(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		svc = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		err := svc.Close()
		svc = nil
		return err
	},
}
