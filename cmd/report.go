package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"comment-radar/internal/report"
	"comment-radar/internal/store"

	"github.com/spf13/cobra"
)

// reportCmd renders the latest snapshot into a markdown digest file.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a markdown digest of the latest snapshot",
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
			return errors.New("no snapshot to report; run a merge first")
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		title := strings.TrimSpace(cfg.Report.Title)
		if title == "" {
			title = fmt.Sprintf("Top comments %s", now.Format("2006-01-02"))
		}
		title = report.ExpandVars(title, now)

		md, err := report.Render(title, snap, cfg.Report.TopN)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
			return err
		}
		outPath := filepath.Join(cfg.Report.OutputDir, fmt.Sprintf("digest-%s.md", now.Format("20060102-150405")))
		if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
