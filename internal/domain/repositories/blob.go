package repositories

import (
	"context"
	"io"
)

// BlobStore stores file bytes under slash-separated paths ("<room key>/<name>").
type BlobStore interface {
	// Put uploads size bytes from r and returns the object's public URL
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error)

	// Delete removes one object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// DeletePrefix removes every object under prefix and returns how many were removed
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
