package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"

	"github.com/soc-pilot/drc/internal/result"
)

// GCSStore keeps one JSON object per project in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
	owned  bool
}

// NewGCSStore creates a storage client using application default credentials
// (STORAGE_EMULATOR_HOST is honoured).
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	s := NewGCSStoreWithClient(client, bucket, prefix)
	s.owned = true
	return s, nil
}

// NewGCSStoreWithClient wraps an existing client; Close leaves it open.
func NewGCSStoreWithClient(client *storage.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *GCSStore) objectName(projectID string) string {
	return path.Join(s.prefix, projectID+".json")
}

func (s *GCSStore) object(projectID string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectName(projectID))
}

func (s *GCSStore) Get(ctx context.Context, projectID string) (*result.DRCResult, error) {
	r, err := s.object(projectID).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", projectID, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", projectID, err)
	}
	return decodeJSON(b)
}

func (s *GCSStore) Put(ctx context.Context, projectID string, res *result.DRCResult) error {
	b, err := encodeJSON(res)
	if err != nil {
		return err
	}
	w := s.object(projectID).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	if _, err := w.Write(b); err != nil {
		w.Close()
		return fmt.Errorf("put report %s: %w", projectID, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put report %s: %w", projectID, err)
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, projectID string) error {
	err := s.object(projectID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete report %s: %w", projectID, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
