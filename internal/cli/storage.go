package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage against the quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := o.client().StorageStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get storage stats: %w", err)
			}
			return printYAML(cmd.OutOrStdout(), newStatsView(stats))
		},
	}
}

func newCleanupCmd(o *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove highlights and notes older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("days") && days <= 0 {
				return fmt.Errorf("--days must be > 0 (got %d)", days)
			}
			res, err := o.client().Cleanup(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("removed %d records, deleted %d keys", res.Removed, res.KeysDeleted))
			if res.KeysFailed > 0 {
				printWarn(cmd.OutOrStdout(), fmt.Sprintf("%d collections could not be swept, see the server log", res.KeysFailed))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "age threshold in days (default: the server's)")
	return cmd
}

func newClearCmd(o *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the highlights and notes of the --page domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := o.client()
			res, err := client.ClearAll(cmd.Context(), all)
			if err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			if all {
				printOK(cmd.OutOrStdout(), fmt.Sprintf("cleared all data (%d keys)", res.Keys))
				return nil
			}
			printOK(cmd.OutOrStdout(), "cleared data of "+client.Sender().Domain())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every domain's data, settings kept")
	return cmd
}
