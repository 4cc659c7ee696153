package store

import (
	"context"
	"testing"
	"time"

	"comment-radar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBatchStoreRoundtrip(t *testing.T) {
	s := NewMemoryBatchStore()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	id1, err := s.Append(context.Background(), testRecord(at))
	require.NoError(t, err)
	id2, err := s.Append(context.Background(), testRecord(at))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	recs, malformed, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, malformed)
	assert.Len(t, recs, 2)

	n, err := s.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = s.Purge(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemorySnapshotStoreLatest(t *testing.T) {
	s := NewMemorySnapshotStore()

	_, err := s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	first := model.Snapshot{GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	second := model.Snapshot{GeneratedAt: first.GeneratedAt.Add(time.Minute)}
	_, err = s.Write(context.Background(), first)
	require.NoError(t, err)
	_, err = s.Write(context.Background(), second)
	require.NoError(t, err)

	got, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.True(t, got.GeneratedAt.Equal(second.GeneratedAt))

	n, err := s.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
