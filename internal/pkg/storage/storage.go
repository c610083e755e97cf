package storage

import (
	"context"
	"io"
)

// Storage is the blob store behind car image uploads. Paths are relative
// and forward-slash separated; implementations decide where bytes live.
type Storage interface {
	// Save writes the content at the given relative path, creating parent
	// directories as needed and overwriting any existing file.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get opens the file at the given relative path. The caller closes
	// the returned reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the file. Deleting a missing file is not an error,
	// which keeps cleanup paths idempotent.
	Delete(ctx context.Context, path string) error
}
