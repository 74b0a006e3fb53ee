// Package fsx abstracts file storage so services can run against S3 in
// production and a local directory in development.
package fsx

import (
	"context"
	"io"
)

// FileReader is the read-only subset used by workers.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileSystem is the full storage contract.
type FileSystem interface {
	FileReader

	WriteFile(ctx context.Context, path string, data []byte) error
	WriteFileStream(ctx context.Context, path string, r io.Reader) error
	DeleteFile(ctx context.Context, path string) error

	// Join builds a storage path from segments using the backend's separator.
	Join(parts ...string) string
}
