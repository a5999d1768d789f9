package storage

import (
	"context"
	"fmt"

	"github.com/albeorla/task-pri-lite-sub001/internal/config"
)

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Path)
	case config.BackendNATS:
		return DialNATS(ctx, cfg.NATSURL, cfg.Bucket)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
