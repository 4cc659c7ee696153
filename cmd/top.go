package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"comment-radar/internal/store"

	"github.com/spf13/cobra"
)

var topN int

// topCmd prints the best comments from the latest snapshot.
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the top comments from the latest snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		_, snapshots, closeStores, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer closeStores()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		snap, err := snapshots.Latest(ctx)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No snapshot yet.")
			return nil
		}
		if err != nil {
			return err
		}
		items := snap.Items
		if topN > 0 && len(items) > topN {
			items = items[:topN]
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s (%d items from %d batches, scores %.1f-%.1f)\n",
			snap.GeneratedAt.UTC().Format(time.RFC3339),
			snap.Summary.TotalItems, snap.Summary.SourceBatches,
			snap.Summary.MinScore, snap.Summary.MaxScore)
		for i, it := range items {
			pin := ""
			if it.IsPinned {
				pin = " [pinned]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %6.1f%s  %s\n", i+1, it.FinalScore, pin, it.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntVarP(&topN, "count", "n", 10, "how many comments to print")
}
