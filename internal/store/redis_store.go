package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"comment-radar/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisBatchStore keeps each batch as a JSON value plus a sorted-set index
// scored by append time, so listing and purging never scan the keyspace.
type RedisBatchStore struct {
	rdb *redis.Client
}

func NewRedisBatchStore(rdb *redis.Client) *RedisBatchStore {
	return &RedisBatchStore{rdb: rdb}
}

func batchKey(id string) string {
	return "radar:batch:" + id
}

const batchIndexKey = "radar:batches"

func (s *RedisBatchStore) Append(ctx context.Context, rec model.BatchRecord) (string, error) {
	id := newID("batch", rec.CreatedAt)
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}
	if err := s.rdb.Set(ctx, batchKey(id), b, 0).Err(); err != nil {
		return "", fmt.Errorf("store batch %s: %w", id, err)
	}
	z := redis.Z{Score: float64(rec.CreatedAt.UnixNano()), Member: id}
	if err := s.rdb.ZAdd(ctx, batchIndexKey, z).Err(); err != nil {
		return "", fmt.Errorf("index batch %s: %w", id, err)
	}
	return id, nil
}

func (s *RedisBatchStore) ListAll(ctx context.Context) ([]model.BatchRecord, int, error) {
	ids, err := s.rdb.ZRange(ctx, batchIndexKey, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	out := make([]model.BatchRecord, 0, len(ids))
	malformed := 0
	for _, id := range ids {
		b, err := s.rdb.Get(ctx, batchKey(id)).Bytes()
		if err == redis.Nil {
			malformed++
			continue
		}
		if err != nil {
			return nil, malformed, fmt.Errorf("read batch %s: %w", id, err)
		}
		var rec model.BatchRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			slog.Warn("batch store: malformed record, skipping", "id", id, "error", err)
			malformed++
			continue
		}
		out = append(out, rec)
	}
	return out, malformed, nil
}

func (s *RedisBatchStore) Purge(ctx context.Context) (int, error) {
	return purgeIndexed(ctx, s.rdb, batchIndexKey, batchKey)
}

// RedisSnapshotStore mirrors RedisBatchStore for merge outputs.
type RedisSnapshotStore struct {
	rdb *redis.Client
}

func NewRedisSnapshotStore(rdb *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb}
}

func snapshotKey(id string) string {
	return "radar:snapshot:" + id
}

const snapshotIndexKey = "radar:snapshots"

func (s *RedisSnapshotStore) Write(ctx context.Context, snap model.Snapshot) (string, error) {
	id := newID("snapshot", snap.GeneratedAt)
	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, snapshotKey(id), b, 0).Err(); err != nil {
		return "", fmt.Errorf("store snapshot %s: %w", id, err)
	}
	z := redis.Z{Score: float64(snap.GeneratedAt.UnixNano()), Member: id}
	if err := s.rdb.ZAdd(ctx, snapshotIndexKey, z).Err(); err != nil {
		return "", fmt.Errorf("index snapshot %s: %w", id, err)
	}
	return id, nil
}

func (s *RedisSnapshotStore) Latest(ctx context.Context) (model.Snapshot, error) {
	ids, err := s.rdb.ZRevRange(ctx, snapshotIndexKey, 0, 0).Result()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) == 0 {
		return model.Snapshot{}, ErrNotFound
	}
	b, err := s.rdb.Get(ctx, snapshotKey(ids[0])).Bytes()
	if err == redis.Nil {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot %s: %w", ids[0], err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", ids[0], err)
	}
	return snap, nil
}

func (s *RedisSnapshotStore) Purge(ctx context.Context) (int, error) {
	return purgeIndexed(ctx, s.rdb, snapshotIndexKey, snapshotKey)
}

func purgeIndexed(ctx context.Context, rdb *redis.Client, indexKey string, keyFn func(string) string) (int, error) {
	ids, err := rdb.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("list for purge: %w", err)
	}
	removed := 0
	for _, id := range ids {
		if err := rdb.Del(ctx, keyFn(id)).Err(); err != nil {
			return removed, fmt.Errorf("remove %s: %w", id, err)
		}
		if err := rdb.ZRem(ctx, indexKey, id).Err(); err != nil {
			return removed, fmt.Errorf("unindex %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}
