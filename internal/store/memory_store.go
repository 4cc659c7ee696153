package store

import (
	"context"
	"sync"

	"comment-radar/internal/model"
)

// MemoryBatchStore is an in-memory BatchStore, used in tests and as the
// "memory" backend for throwaway runs.
type MemoryBatchStore struct {
	mu      sync.Mutex
	records []model.BatchRecord
	ids     []string
}

func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{}
}

func (s *MemoryBatchStore) Append(ctx context.Context, rec model.BatchRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID("batch", rec.CreatedAt)
	s.records = append(s.records, rec)
	s.ids = append(s.ids, id)
	return id, nil
}

func (s *MemoryBatchStore) ListAll(ctx context.Context) ([]model.BatchRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BatchRecord, len(s.records))
	copy(out, s.records)
	return out, 0, nil
}

func (s *MemoryBatchStore) Purge(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	s.records = nil
	s.ids = nil
	return n, nil
}

// MemorySnapshotStore is the in-memory SnapshotStore counterpart.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	snaps []model.Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Write(ctx context.Context, snap model.Snapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID("snapshot", snap.GeneratedAt)
	s.snaps = append(s.snaps, snap)
	return id, nil
}

func (s *MemorySnapshotStore) Latest(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 0 {
		return model.Snapshot{}, ErrNotFound
	}
	return s.snaps[len(s.snaps)-1], nil
}

func (s *MemorySnapshotStore) Purge(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.snaps)
	s.snaps = nil
	return n, nil
}
