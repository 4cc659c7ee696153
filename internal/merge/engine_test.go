package merge

import (
	"context"
	"testing"
	"time"

	"comment-radar/internal/model"
	"comment-radar/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, batches store.BatchStore, recs ...model.BatchRecord) {
	t.Helper()
	for _, r := range recs {
		_, err := batches.Append(context.Background(), r)
		require.NoError(t, err)
	}
}

func record(createdAt time.Time, items []model.Comment, scores map[string]float64) model.BatchRecord {
	return model.BatchRecord{CreatedAt: createdAt, Items: items, Scores: scores}
}

func TestMergeDedupKeepsHigherScore(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, batches,
		record(t0,
			[]model.Comment{{ID: 1, Content: "X"}, {ID: 2, Content: "Y"}},
			map[string]float64{"1": 40, "2": 90}),
		record(t0.Add(time.Minute),
			[]model.Comment{{ID: 5, Content: "X"}},
			map[string]float64{"5": 70}),
	)

	res, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.NoOp)
	assert.Equal(t, 2, res.Merged)

	snap, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "Y", snap.Items[0].Content)
	assert.Equal(t, 90.0, snap.Items[0].FinalScore)
	assert.Equal(t, "X", snap.Items[1].Content)
	assert.Equal(t, 70.0, snap.Items[1].FinalScore)
	// The winning duplicate carries its own batch's timestamp.
	assert.Equal(t, t0.Add(time.Minute), snap.Items[1].SourceBatch)
}

func TestMergeDedupTieKeepsFirstEncountered(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Same content, same score, later batch has a different id and likes.
	seed(t, batches,
		record(t0,
			[]model.Comment{{ID: 1, Content: "X", Likes: "3"}},
			map[string]float64{"1": 50}),
		record(t0.Add(time.Minute),
			[]model.Comment{{ID: 9, Content: "X", Likes: "7"}},
			map[string]float64{"9": 50}),
	)

	_, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	snap, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].ID)
	assert.Equal(t, "3", snap.Items[0].Likes)
	assert.Equal(t, t0, snap.Items[0].SourceBatch)
}

func TestMergeIterationOrderByCreatedAtNotStoreOrder(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Appended newest first: the engine must still treat the older record as
	// first-encountered for tie-breaking.
	seed(t, batches,
		record(t0.Add(time.Hour),
			[]model.Comment{{ID: 2, Content: "X", Likes: "late"}},
			map[string]float64{"2": 50}),
		record(t0,
			[]model.Comment{{ID: 1, Content: "X", Likes: "early"}},
			map[string]float64{"1": 50}),
	)

	_, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	snap, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "early", snap.Items[0].Likes)
}

func TestMergeSkipsUnscoredItems(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, batches,
		record(t0,
			[]model.Comment{{ID: 1, Content: "scored"}, {ID: 3, Content: "Z"}},
			map[string]float64{"1": 10}),
	)

	res, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, 1, res.Unscored)

	snap, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "scored", snap.Items[0].Content)
}

func TestMergePinnedOutranksEverything(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, batches,
		record(t0,
			[]model.Comment{
				{ID: 1, Content: "perfect organic"},
				{ID: 2, Content: "pinned", IsPinned: true},
			},
			map[string]float64{"1": 100, "2": model.PinnedScore}),
	)

	_, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	snap, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "pinned", snap.Items[0].Content)
	// The sentinel is preserved above the nominal ceiling, never clamped.
	assert.Equal(t, 101.0, snap.Items[0].FinalScore)
	assert.Equal(t, 101.0, snap.Summary.MaxScore)
}

func TestMergeRankOrderAndSummary(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, batches,
		record(t0,
			[]model.Comment{{ID: 1, Content: "a"}, {ID: 2, Content: "b"}, {ID: 3, Content: "c"}},
			map[string]float64{"1": 12.5, "2": 80, "3": 3}),
		record(t0.Add(time.Minute),
			[]model.Comment{{ID: 1, Content: "d"}, {ID: 2, Content: "e"}},
			map[string]float64{"1": 55, "2": 80}),
	)

	_, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	snap, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 5)
	for i := 1; i < len(snap.Items); i++ {
		assert.GreaterOrEqual(t, snap.Items[i-1].FinalScore, snap.Items[i].FinalScore)
	}
	// Stable sort: b (earlier) before e at equal score 80.
	assert.Equal(t, "b", snap.Items[0].Content)
	assert.Equal(t, "e", snap.Items[1].Content)

	assert.Equal(t, 5, snap.Summary.TotalItems)
	assert.Equal(t, 2, snap.Summary.SourceBatches)
	assert.Equal(t, 3.0, snap.Summary.MinScore)
	assert.Equal(t, 80.0, snap.Summary.MaxScore)
}

func TestMergeIsReproducible(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, batches,
		record(t0,
			[]model.Comment{{ID: 1, Content: "a"}, {ID: 2, Content: "b"}, {ID: 3, Content: "a"}},
			map[string]float64{"1": 20, "2": 20, "3": 20}),
		record(t0.Add(time.Second),
			[]model.Comment{{ID: 1, Content: "c"}, {ID: 2, Content: "b"}},
			map[string]float64{"1": 20, "2": 35}),
	)

	eng := New(batches, snapshots)
	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	first, err := snapshots.Latest(context.Background())
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.NoError(t, err)
	second, err := snapshots.Latest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestMergeEmptyStoreIsNoOp(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()

	res, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Empty(t, res.SnapshotID)

	_, err = snapshots.Latest(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMergeAllUnscoredIsNoOp(t *testing.T) {
	batches := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, batches, record(t0, []model.Comment{{ID: 1, Content: "Z"}}, nil))

	res, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, 1, res.Unscored)

	_, err = snapshots.Latest(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// malformedBatchStore wraps a store and pretends some records were unreadable.
type malformedBatchStore struct {
	store.BatchStore
	malformed int
}

func (s *malformedBatchStore) ListAll(ctx context.Context) ([]model.BatchRecord, int, error) {
	recs, _, err := s.BatchStore.ListAll(ctx)
	return recs, s.malformed, err
}

func TestMergeReportsMalformedRecords(t *testing.T) {
	inner := store.NewMemoryBatchStore()
	snapshots := store.NewMemorySnapshotStore()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seed(t, inner, record(t0, []model.Comment{{ID: 1, Content: "ok"}}, map[string]float64{"1": 5}))

	batches := &malformedBatchStore{BatchStore: inner, malformed: 2}
	res, err := New(batches, snapshots).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Malformed)
	assert.Equal(t, 1, res.Merged)
}
