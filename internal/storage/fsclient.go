package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSClient implements Client on the local filesystem. Objects live under
// root/bucket/key and public URLs are formed from the configured base URL.
type FSClient struct {
	root    string
	baseURL string
}

// NewFSClient constructs a filesystem-backed client rooted at root.
func NewFSClient(root, baseURL string) *FSClient {
	return &FSClient{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *FSClient) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	target, err := c.objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	// Write to a sibling temp file and rename so readers never observe a
	// partial object.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close object %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize object %s/%s: %w", bucket, key, err)
	}

	return c.baseURL + "/" + bucket + "/" + key, nil
}

func (c *FSClient) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	target, err := c.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open object %s/%s: %w", bucket, key, err)
	}
	return file, nil
}

func (c *FSClient) Delete(ctx context.Context, bucket, key string) error {
	target, err := c.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *FSClient) objectPath(bucket, key string) (string, error) {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("bucket and key are required")
	}
	target := filepath.Join(c.root, bucket, filepath.FromSlash(key))
	rootPrefix := filepath.Clean(c.root) + string(filepath.Separator)
	if !strings.HasPrefix(filepath.Clean(target), rootPrefix) {
		return "", fmt.Errorf("object key %q escapes storage root", key)
	}
	return target, nil
}
