// Package objectstore keeps relay payloads, request text and synthesized
// audio, in NATS JetStream object store buckets.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Bucket implements core.ObjectStore on one object store bucket.
type Bucket struct {
	name  string
	store nats.ObjectStore
}

// Open creates the bucket, or binds to it if it already exists. Objects
// expire after ttl; zero keeps them forever.
func Open(jetstreamContext nats.JetStreamContext, name string, ttl time.Duration) (*Bucket, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      name,
		Description: fmt.Sprintf("speech-desk relay payloads (%s)", name),
		TTL:         ttl,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", name, err)
		}

		store, err = jetstreamContext.ObjectStore(name)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", name, err)
		}
	}

	return &Bucket{name: name, store: store}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Download reads an object fully.
func (b *Bucket) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := b.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, b.name, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload stores data under key, replacing any previous object.
func (b *Bucket) Upload(_ context.Context, key string, data []byte) error {
	_, err := b.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, b.name, err)
	}

	return nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (b *Bucket) Delete(_ context.Context, key string) error {
	err := b.store.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", key, b.name, err)
	}

	return nil
}
