package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/okian/graphboard/internal/domain/model"
)

// ObjectStore reads and writes whole objects in one bucket.
type ObjectStore interface {
	// Read returns storage.ErrObjectNotExist when the object is absent.
	Read(ctx context.Context, object string) ([]byte, error)
	Write(ctx context.Context, object string, data []byte) error
	Close() error
}

// GCSStore keeps the leaderboard in a Cloud Storage object. An object
// becomes visible only when its upload completes, so readers never see a
// partial document.
type GCSStore struct {
	object  string
	objects ObjectStore
}

// NewGCSStore connects to bucket with application default credentials.
func NewGCSStore(ctx context.Context, bucket, object string, opts ...GCSOption) (*GCSStore, error) {
	s := &GCSStore{object: object}
	for _, opt := range opts {
		opt(s)
	}
	if s.objects == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create GCS storage client: %w", err)
		}
		s.objects = &bucketObjects{client: client, bucket: client.Bucket(bucket)}
	}
	return s, nil
}

// Load reads the object. A missing object is the empty state.
func (s *GCSStore) Load(ctx context.Context) (model.State, error) {
	data, err := s.objects.Read(ctx, s.object)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return model.EmptyState(), nil
	}
	if err != nil {
		return model.State{}, fmt.Errorf("read gs object %s: %w", s.object, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.EmptyState(), nil
	}
	state, err := Decode(data)
	if err != nil {
		return model.State{}, fmt.Errorf("gs object %s: %w", s.object, err)
	}
	return state, nil
}

// Save uploads the whole document as a new object generation.
func (s *GCSStore) Save(ctx context.Context, state model.State) error {
	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.objects.Write(ctx, s.object, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Raw returns the persisted bytes, or nil when nothing has been saved yet.
func (s *GCSStore) Raw(ctx context.Context) ([]byte, error) {
	data, err := s.objects.Read(ctx, s.object)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}
	return data, err
}

// Close releases the client.
func (s *GCSStore) Close() error { return s.objects.Close() }

// bucketObjects is the Cloud Storage implementation of ObjectStore.
type bucketObjects struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func (b *bucketObjects) Read(ctx context.Context, object string) ([]byte, error) {
	r, err := b.bucket.Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

func (b *bucketObjects) Write(ctx context.Context, object string, data []byte) error {
	w := b.bucket.Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer for %s: %w", object, err)
	}
	return nil
}

func (b *bucketObjects) Close() error { return b.client.Close() }
