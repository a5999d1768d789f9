package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the key-value bucket used when none is configured.
const DefaultBucket = "taskpri"

// NATSStore keeps blobs in a JetStream key-value bucket.
type NATSStore struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	ownsNC bool
}

// DialNATS connects to url and opens (or creates) bucket.
func DialNATS(ctx context.Context, url, bucket string) (*NATSStore, error) {
	nc, err := nats.Connect(url, nats.Name("taskpri"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	s, err := NewNATSStore(ctx, nc, bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.ownsNC = true
	return s, nil
}

// NewNATSStore opens (or creates) bucket on an existing connection. The
// connection stays owned by the caller.
func NewNATSStore(ctx context.Context, nc *nats.Conn, bucket string) (*NATSStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "taskpri task graph",
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", bucket, err)
	}
	return &NATSStore{nc: nc, kv: kv}, nil
}

func (s *NATSStore) Save(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *NATSStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the connection if DialNATS opened it.
func (s *NATSStore) Close() error {
	if s.ownsNC {
		s.nc.Close()
	}
	return nil
}

var _ BlobStore = (*NATSStore)(nil)
