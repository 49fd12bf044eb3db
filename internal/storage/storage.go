package storage

import (
	"context"
	"io"
)

// Client is the narrow object-store contract the pipeline depends on.
type Client interface {
	// Put stores the body under bucket/key and returns the public URL.
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	// Get opens the object for reading.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}
