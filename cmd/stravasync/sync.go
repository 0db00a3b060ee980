package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncLimit int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import recent activities and their segment efforts",
	Long: `Fetch the most recent page of activities from Strava and store every
activity that is not already in the database, together with its segment
efforts. Activities already stored are skipped without a detail fetch.

A limit of 0 uses the configured default. The page size is capped at 200.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := svc.Syncer.Sync(cmd.Context(), syncLimit)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted activities: %d\n", res.InsertedActivities)
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted segments:   %d\n", res.InsertedSegments)
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVarP(&syncLimit, "limit", "l", 0, "number of recent activities to request (0 = configured default)")
	rootCmd.AddCommand(syncCmd)
}
