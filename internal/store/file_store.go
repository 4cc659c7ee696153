package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"comment-radar/internal/model"
)

// File ids embed a UTC nanosecond timestamp plus a fixed-width sequence
// suffix. The timestamp keeps ids lexicographically ordered by creation time;
// the sequence keeps two appends within the same nanosecond from colliding.
const idTimeLayout = "20060102T150405.000000000Z"

var idSeq atomic.Uint64

func newID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, now.UTC().Format(idTimeLayout), idSeq.Add(1)%10000)
}

// FileBatchStore keeps one JSON file per batch in a single directory.
type FileBatchStore struct {
	Dir string
}

func NewFileBatchStore(dir string) (*FileBatchStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch dir: %w", err)
	}
	return &FileBatchStore{Dir: dir}, nil
}

func (s *FileBatchStore) Append(ctx context.Context, rec model.BatchRecord) (string, error) {
	id := newID("batch", rec.CreatedAt)
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	path := filepath.Join(s.Dir, id+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write batch %s: %w", id, err)
	}
	return id, nil
}

func (s *FileBatchStore) ListAll(ctx context.Context) ([]model.BatchRecord, int, error) {
	names, err := listJSON(s.Dir, "batch-")
	if err != nil {
		return nil, 0, fmt.Errorf("list batch dir: %w", err)
	}
	out := make([]model.BatchRecord, 0, len(names))
	malformed := 0
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(s.Dir, name))
		if err != nil {
			slog.Warn("batch store: unreadable record, skipping", "file", name, "error", err)
			malformed++
			continue
		}
		var rec model.BatchRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			slog.Warn("batch store: malformed record, skipping", "file", name, "error", err)
			malformed++
			continue
		}
		out = append(out, rec)
	}
	return out, malformed, nil
}

func (s *FileBatchStore) Purge(ctx context.Context) (int, error) {
	return purgeDir(s.Dir, "batch-")
}

// FileSnapshotStore keeps one JSON file per snapshot in a single directory.
type FileSnapshotStore struct {
	Dir string
}

func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileSnapshotStore{Dir: dir}, nil
}

func (s *FileSnapshotStore) Write(ctx context.Context, snap model.Snapshot) (string, error) {
	id := newID("snapshot", snap.GeneratedAt)
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	path := filepath.Join(s.Dir, id+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", id, err)
	}
	return id, nil
}

func (s *FileSnapshotStore) Latest(ctx context.Context) (model.Snapshot, error) {
	names, err := listJSON(s.Dir, "snapshot-")
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list snapshot dir: %w", err)
	}
	if len(names) == 0 {
		return model.Snapshot{}, ErrNotFound
	}
	// listJSON returns names sorted ascending; the greatest id is the newest.
	name := names[len(names)-1]
	b, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snap, nil
}

func (s *FileSnapshotStore) Purge(ctx context.Context) (int, error) {
	return purgeDir(s.Dir, "snapshot-")
}

func listJSON(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func purgeDir(dir, prefix string) (int, error) {
	names, err := listJSON(dir, prefix)
	if err != nil {
		return 0, fmt.Errorf("list for purge: %w", err)
	}
	removed := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			// Report what was removed so far; partial failure must not look
			// like total success.
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
