// Package merge consolidates all stored scored batches into a single
// deduplicated, rank-ordered snapshot.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"comment-radar/internal/model"
	"comment-radar/internal/store"
)

// Engine folds every record in the batch store into one ranked snapshot.
// Runs are idempotent over an unchanged store: iteration order is fixed
// (records ascending by createdAt, then in-record order), so the output is
// reproducible byte for byte apart from timestamps.
type Engine struct {
	Batches   store.BatchStore
	Snapshots store.SnapshotStore
}

func New(batches store.BatchStore, snapshots store.SnapshotStore) *Engine {
	return &Engine{Batches: batches, Snapshots: snapshots}
}

// RunResult describes the outcome of one merge run.
type RunResult struct {
	SnapshotID string
	Merged     int // items in the written snapshot
	Unscored   int // items dropped for having no score entry
	Malformed  int // stored records skipped as unreadable
	NoOp       bool
}

// Run merges all currently stored batches and writes a new snapshot. An empty
// or fully-unscored store is a no-op, not an error; no snapshot is written.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	records, malformed, err := e.Batches.ListAll(ctx)
	if err != nil {
		return RunResult{Malformed: malformed}, fmt.Errorf("load batches: %w", err)
	}
	res := RunResult{Malformed: malformed}
	if len(records) == 0 {
		res.NoOp = true
		slog.Info("merge: nothing to merge", "malformed", malformed)
		return res, nil
	}

	// Fix the iteration order regardless of what the store returned.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	merged := make([]model.MergedComment, 0, 64)
	byContent := map[string]int{} // content -> index into merged
	for _, rec := range records {
		for _, c := range rec.Items {
			score, ok := rec.Scores[strconv.Itoa(c.ID)]
			if !ok {
				// Never scored, e.g. a partial upstream failure. Expected.
				res.Unscored++
				continue
			}
			mc := model.MergedComment{Comment: c, FinalScore: score, SourceBatch: rec.CreatedAt}
			if at, seen := byContent[c.Content]; seen {
				// Keep the strictly higher score; on a tie the earlier
				// occurrence wins, keeping output stable across runs.
				if mc.FinalScore > merged[at].FinalScore {
					merged[at] = mc
				}
				continue
			}
			byContent[c.Content] = len(merged)
			merged = append(merged, mc)
		}
	}

	if len(merged) == 0 {
		res.NoOp = true
		slog.Info("merge: no scored items to merge", "records", len(records), "unscored", res.Unscored, "malformed", malformed)
		return res, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FinalScore > merged[j].FinalScore
	})

	snap := model.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Items:       merged,
		Summary:     summarize(merged, len(records)),
	}
	id, err := e.Snapshots.Write(ctx, snap)
	if err != nil {
		return res, fmt.Errorf("write snapshot: %w", err)
	}
	res.SnapshotID = id
	res.Merged = len(merged)
	slog.Info("merge: snapshot written",
		"snapshot", id,
		"items", res.Merged,
		"batches", len(records),
		"unscored", res.Unscored,
		"malformed", malformed)
	return res, nil
}

func summarize(items []model.MergedComment, batches int) model.Summary {
	s := model.Summary{
		TotalItems:    len(items),
		SourceBatches: batches,
	}
	if len(items) == 0 {
		return s
	}
	s.MinScore = items[0].FinalScore
	s.MaxScore = items[0].FinalScore
	for _, it := range items[1:] {
		if it.FinalScore < s.MinScore {
			s.MinScore = it.FinalScore
		}
		if it.FinalScore > s.MaxScore {
			s.MaxScore = it.FinalScore
		}
	}
	return s
}
