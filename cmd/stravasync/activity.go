package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage stored activities",
}

var activityDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an activity and its segment efforts",
	Long: `Delete a stored activity by its Strava id. Its segment efforts are
removed with it. The next sync will import the activity again if it is
still among the most recent activities.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseActivityID(args[0])
		if err != nil {
			return err
		}
		deleted, err := svc.Store.DeleteActivity(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		if !deleted {
			return fmt.Errorf("activity not found: %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %d\n", id)
		return nil
	},
}

func parseActivityID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid activity id %q", s)
	}
	return id, nil
}

func init() {
	activityCmd.AddCommand(activityDeleteCmd)
	rootCmd.AddCommand(activityCmd)
}
