package worker

import (
	"context"
	"log/slog"
	"time"

	"comment-radar/internal/merge"
)

// MergeWorker runs merges one at a time. Appends request a merge through
// RequestMerge; the worker waits a short settle delay so the append's write
// lands before the merge reads the store back, and coalesces a burst of
// requests into a single run. Each run is idempotent, so anything that lands
// mid-run is picked up by the next one.
type MergeWorker struct {
	Engine        *merge.Engine
	Delay         time.Duration // settle time between a request and the run
	SweepInterval time.Duration // optional periodic catch-up; <=0 disables

	requests chan struct{}
}

func NewMergeWorker(engine *merge.Engine, delay time.Duration) *MergeWorker {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &MergeWorker{
		Engine:   engine,
		Delay:    delay,
		requests: make(chan struct{}, 1),
	}
}

// RequestMerge is best-effort: if a run is already pending the request is
// folded into it.
func (w *MergeWorker) RequestMerge() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

func (w *MergeWorker) Start(ctx context.Context) error {
	var sweep <-chan time.Time
	if w.SweepInterval > 0 {
		t := time.NewTicker(w.SweepInterval)
		defer t.Stop()
		sweep = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.requests:
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.Delay):
			}
			w.runOnce(ctx)
		case <-sweep:
			w.runOnce(ctx)
		}
	}
}

func (w *MergeWorker) runOnce(ctx context.Context) {
	res, err := w.Engine.Run(ctx)
	if err != nil {
		// Merge is off every request's critical path; failures are logged,
		// never propagated to a caller.
		slog.Error("merge worker: run failed", "error", err)
		return
	}
	if res.NoOp {
		return
	}
	slog.Info("merge worker: run completed", "snapshot", res.SnapshotID, "items", res.Merged)
}
