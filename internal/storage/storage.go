// Package storage provides scratch-file handling and durable media uploads.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for scratch files and durable uploads.
// Scratch files are private to one pipeline run and deleted when the run
// ends; uploads produce public HTTPS URLs that downstream job APIs can fetch.
type Storage interface {
	// SaveScratch saves data to a uniquely-named scratch file and returns
	// the file path. The name parameter is used as a hint for the filename.
	SaveScratch(ctx context.Context, name string, data io.Reader) (path string, err error)

	// CleanupScratch removes the specified scratch files.
	// It continues cleanup even if some files fail to delete.
	CleanupScratch(ctx context.Context, paths []string) error

	// UploadFile uploads a local file to durable storage under the given key
	// and returns a public URL. Repeated uploads of the same file may produce
	// different URLs; callers must not assume URL stability across calls.
	// Returns ErrUploadsNotConfigured if durable storage is not configured.
	UploadFile(ctx context.Context, key, localPath string) (url string, err error)
}
