package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backfillDryRun bool

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill missing geometry on personal-record efforts",
	Long: `Fetch the segment detail for every personal-record effort stored without
a segment polyline and save the polyline. Rows that fail are logged and
skipped. Rate limited requests are retried after the configured backoff.

With --dry-run nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if backfillDryRun {
			fmt.Fprintln(out, "Mode: DRY RUN (no database writes)")
		} else {
			fmt.Fprintln(out, "Mode: LIVE (will write to database)")
		}

		summary, err := svc.Backfiller(backfillDryRun).Run(cmd.Context())
		fmt.Fprintf(out, "Run %s\n", summary.RunID)
		fmt.Fprintf(out, "Candidates: %d, Filled: %d, Empty: %d, Failed: %d\n",
			summary.Candidates, summary.Filled, summary.Empty, summary.Failed)
		if err != nil {
			return fmt.Errorf("backfill interrupted: %w", err)
		}
		if backfillDryRun {
			fmt.Fprintln(out, "(dry run, no changes written)")
		}
		return nil
	},
}

func init() {
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "fetch segments but do not write polylines")
	rootCmd.AddCommand(backfillCmd)
}
