package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// purgeCmd clears both stores, e.g. before starting a new collection run.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored batches and snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		batches, snapshots, closeStores, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer closeStores()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Purge each store independently so a failure in one still reports
		// the other's removals.
		nb, batchErr := batches.Purge(ctx)
		ns, snapErr := snapshots.Purge(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d batches, %d snapshots\n", nb, ns)
		if batchErr != nil {
			return fmt.Errorf("purge batches: %w", batchErr)
		}
		if snapErr != nil {
			return fmt.Errorf("purge snapshots: %w", snapErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
