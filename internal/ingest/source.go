package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/clipquery/clipquery/internal/storage"
)

// ObjectStoreFactory returns the object store for a bucket.
type ObjectStoreFactory func(ctx context.Context, bucket string) (storage.ObjectStore, error)

// OpenSource opens a dataset for reading from a file or an object store.
// Remote datasets are checked with Stat first; an empty object is an error.
func OpenSource(ctx context.Context, location storage.Location, objects ObjectStoreFactory) (io.ReadCloser, error) {
	if !location.Remote() {
		file, err := os.Open(location.Path)
		if err != nil {
			return nil, fmt.Errorf("open dataset file: %w", err)
		}
		return file, nil
	}
	store, err := objectStore(ctx, location, objects)
	if err != nil {
		return nil, err
	}
	info, err := store.Stat(ctx, location.Key)
	if err != nil {
		return nil, fmt.Errorf("stat dataset %s: %w", location, err)
	}
	if info.Size == 0 {
		return nil, fmt.Errorf("dataset %s is empty", location)
	}
	reader, err := store.Get(ctx, location.Key)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", location, err)
	}
	return reader, nil
}

// Publish writes dataset to location, replacing any existing content.
func Publish(ctx context.Context, location storage.Location, objects ObjectStoreFactory, dataset Dataset) error {
	var buf bytes.Buffer
	if err := Encode(&buf, dataset); err != nil {
		return err
	}
	if !location.Remote() {
		if err := os.WriteFile(location.Path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write dataset file: %w", err)
		}
		return nil
	}
	store, err := objectStore(ctx, location, objects)
	if err != nil {
		return err
	}
	size := int64(buf.Len())
	if _, err := store.Put(ctx, location.Key, &buf, size, storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("publish dataset %s: %w", location, err)
	}
	return nil
}

func objectStore(ctx context.Context, location storage.Location, objects ObjectStoreFactory) (storage.ObjectStore, error) {
	if objects == nil {
		return nil, fmt.Errorf("object store is not configured for %s", location)
	}
	store, err := objects(ctx, location.Bucket)
	if err != nil {
		return nil, fmt.Errorf("object store for bucket %q: %w", location.Bucket, err)
	}
	return store, nil
}
