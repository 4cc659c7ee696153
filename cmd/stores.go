package cmd

import (
	"fmt"

	"comment-radar/internal/config"
	"comment-radar/internal/redisclient"
	"comment-radar/internal/store"
)

// openStores builds the batch and snapshot stores for the configured backend.
// The returned closer is a no-op for file and memory backends.
func openStores(cfg config.Config) (store.BatchStore, store.SnapshotStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Backend {
	case "file":
		batches, err := store.NewFileBatchStore(cfg.Storage.BatchDir)
		if err != nil {
			return nil, nil, nil, err
		}
		snapshots, err := store.NewFileSnapshotStore(cfg.Storage.SnapshotDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return batches, snapshots, noop, nil
	case "redis":
		rdb := redisclient.New(cfg.Redis)
		return store.NewRedisBatchStore(rdb), store.NewRedisSnapshotStore(rdb), rdb.Close, nil
	case "memory":
		return store.NewMemoryBatchStore(), store.NewMemorySnapshotStore(), noop, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
