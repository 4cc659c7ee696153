package worker

import (
	"context"
	"testing"
	"time"

	"comment-radar/internal/merge"
	"comment-radar/internal/model"
	"comment-radar/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWorkerRunsAfterRequest(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	_, err := batches.Append(context.Background(), model.BatchRecord{
		CreatedAt: time.Now().UTC(),
		Items:     []model.Comment{{ID: 1, Content: "hi"}},
		Scores:    map[string]float64{"1": 10},
	})
	require.NoError(t, err)

	w := NewMergeWorker(merge.New(batches, snapshots), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	w.RequestMerge()
	require.Eventually(t, func() bool {
		_, err := snapshots.Latest(context.Background())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "expected a snapshot after the settle delay")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestMergeWorkerCoalescesBursts(t *testing.T) {
	w := NewMergeWorker(nil, time.Second)
	// Channel capacity is one: a burst collapses into a single pending run.
	for i := 0; i < 10; i++ {
		w.RequestMerge()
	}
	assert.Len(t, w.requests, 1)
}

func TestMergeWorkerEmptyStoreStaysQuiet(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	w := NewMergeWorker(merge.New(batches, snapshots), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Start(ctx) }()
	w.RequestMerge()
	time.Sleep(100 * time.Millisecond)
	cancel()

	_, err := snapshots.Latest(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
