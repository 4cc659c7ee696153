package store

import (
	"context"
	"errors"

	"comment-radar/internal/model"
)

// ErrNotFound is returned by SnapshotStore.Latest when no snapshot exists.
var ErrNotFound = errors.New("store: not found")

// BatchStore persists scored batches append-only. Append must hand out a
// distinct, lexicographically sortable id even for two appends within the
// same timestamp resolution. ListAll's ordering is unspecified; callers that
// need a deterministic order sort by BatchRecord.CreatedAt themselves.
// Records that fail to decode are skipped and reported through the malformed
// counter, never as an error.
type BatchStore interface {
	Append(ctx context.Context, rec model.BatchRecord) (string, error)
	ListAll(ctx context.Context) (records []model.BatchRecord, malformed int, err error)
	Purge(ctx context.Context) (removed int, err error)
}

// SnapshotStore persists merge outputs append-only. Write always creates a
// new snapshot, never overwrites. Latest resolves the most recent snapshot by
// id ordering and returns ErrNotFound on an empty store.
type SnapshotStore interface {
	Write(ctx context.Context, snap model.Snapshot) (string, error)
	Latest(ctx context.Context) (model.Snapshot, error)
	Purge(ctx context.Context) (removed int, err error)
}
