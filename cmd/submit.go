package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"comment-radar/internal/ai"
	"comment-radar/internal/merge"
	"comment-radar/internal/model"

	"github.com/spf13/cobra"
)

var submitNoMerge bool

// submitCmd scores a batch of comments from a JSON file and appends it to the
// batch store without going through the HTTP gateway.
var submitCmd = &cobra.Command{
	Use:   "submit <comments.json>",
	Short: "Score and append a batch of comments from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var comments []model.Comment
		if err := json.Unmarshal(b, &comments); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		if len(comments) == 0 {
			return fmt.Errorf("%s contains no comments", args[0])
		}
		if len(comments) > model.MaxBatchItems {
			return fmt.Errorf("too many comments: %d (max %d)", len(comments), model.MaxBatchItems)
		}

		batches, snapshots, closeStores, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer closeStores()

		instructions := strings.TrimSpace(cfg.Scoring.Instructions)
		if instructions == "" {
			instructions = ai.DefaultInstructions
		}

		scores := map[string]float64{}
		unpinned := make([]model.Comment, 0, len(comments))
		for _, c := range comments {
			if c.IsPinned {
				scores[strconv.Itoa(c.ID)] = model.PinnedScore
				continue
			}
			unpinned = append(unpinned, c)
		}
		if cfg.OpenAI.APIKey != "" && len(unpinned) > 0 {
			scorer := ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
			ctxScore, cancel := context.WithTimeout(context.Background(), 180*time.Second)
			got, err := scorer.ScoreComments(ctxScore, unpinned, instructions)
			cancel()
			if err != nil {
				return fmt.Errorf("score comments: %w", err)
			}
			for id, sc := range got {
				scores[id] = sc
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		id, err := batches.Append(ctx, model.BatchRecord{
			CreatedAt: time.Now().UTC(),
			Items:     comments,
			Scores:    scores,
			Prompt:    instructions,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Appended %s: %d items, %d scored\n", id, len(comments), len(scores))

		if submitNoMerge {
			return nil
		}
		res, err := merge.New(batches, snapshots).Run(ctx)
		if err != nil {
			return err
		}
		if !res.NoOp {
			fmt.Fprintf(cmd.OutOrStdout(), "Merged into %s (%d items)\n", res.SnapshotID, res.Merged)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().BoolVar(&submitNoMerge, "no-merge", false, "append only, skip the merge run")
}
