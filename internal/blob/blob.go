// Package blob stores attachment binaries. The live implementation is
// Cloudinary; the in-memory implementation backs mock mode and tests.
package blob

import (
	"context"
	"io"
)

// UploadResult identifies a stored blob. ID is the store's public id and
// is what Delete expects; URL is directly fetchable by clients.
type UploadResult struct {
	ID   string
	URL  string
	Size int64
}

// Store uploads and deletes attachment binaries.
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder string) (UploadResult, error)
	Delete(ctx context.Context, blobID string) error
}

// ReleaseQueue remembers blob ids whose delete failed so a background
// sweep can retry them later.
type ReleaseQueue interface {
	Enqueue(ctx context.Context, blobID string) error
	Dequeue(ctx context.Context, max int64) ([]string, error)
}
