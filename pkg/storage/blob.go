// Package storage provides the blob stores holding case documents and
// exported custody reports. Keys are slash separated paths such as
// "reference-letters/2026-0007/1718000000-letter.pdf"; the store never
// interprets content.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// BlobStore is implemented by the local filesystem and MinIO drivers.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	// List returns every object below prefix, recursively, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error)
}

// CleanKey validates a blob key and returns its canonical form.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", fmt.Errorf("blob key required")
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", fmt.Errorf("blob key %q escapes the store", key)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("blob key required")
	}
	return cleaned, nil
}
