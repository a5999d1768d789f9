// Package storage persists tasks and projects.
//
// BlobStore is a small keyed byte store with file, NATS JetStream
// key-value and in-memory backends. GraphRepository stores the task graph
// on top of any BlobStore as flat records that reference each other by id,
// and rebuilds the in-memory links on load.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidKey is returned for keys outside [A-Za-z0-9][A-Za-z0-9_=.-]*.
var ErrInvalidKey = errors.New("invalid storage key")

// BlobStore is a keyed byte store.
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) error
	// Load returns nil data and nil error when key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	// ListKeys returns all keys in lexical order.
	ListKeys(ctx context.Context) ([]string, error)
	Close() error
}

// validKey matches keys that are safe as file names and as JetStream
// key-value keys.
var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_=.-]*$`)

func checkKey(key string) error {
	if len(key) > 255 || !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
