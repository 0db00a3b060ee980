package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the Strava credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		athlete, err := svc.Strava.HealthCheck(cmd.Context())
		if err != nil {
			return fmt.Errorf("strava health check failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Strava API: OK (athlete %d %s %s)\n", athlete.ID, athlete.Firstname, athlete.Lastname)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
