package cmd

import (
	"context"
	"fmt"
	"time"

	"comment-radar/internal/merge"

	"github.com/spf13/cobra"
)

// mergeCmd runs a single merge over the current batch store.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge all stored batches into a new snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		batches, snapshots, closeStores, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer closeStores()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		res, err := merge.New(batches, snapshots).Run(ctx)
		if err != nil {
			return err
		}
		if res.NoOp {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to merge.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d items (%d unscored dropped, %d malformed records skipped)\n",
			res.SnapshotID, res.Merged, res.Unscored, res.Malformed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
