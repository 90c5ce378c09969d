package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"AppMovin/models"
)

// Backend is the capability set every storage implementation offers to the
// facade.
type Backend interface {
	Kind() models.BackendKind
	Name() string

	// Init is idempotent setup. Callers log its error; it is never fatal.
	Init(ctx context.Context) error
	// ListApps never fails; problems degrade to an empty list.
	ListApps(ctx context.Context) []models.AppRecord
	UploadApp(ctx context.Context, sourcePath string, meta models.UploadMetadata) (models.AppRecord, error)
	GetDownloadURL(ctx context.Context, id string) (string, error)
	DeleteApp(ctx context.Context, id string) error
}

// prepareUpload checks that sourcePath is a readable regular file and fills
// metadata defaults from it.
func prepareUpload(sourcePath string, meta models.UploadMetadata) (models.UploadMetadata, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return meta, fmt.Errorf("%w: source file: %w", models.ErrIOFailure, err)
	}
	if !info.Mode().IsRegular() {
		return meta, fmt.Errorf("%w: source %s is not a regular file", models.ErrIOFailure, sourcePath)
	}

	if meta.Name == "" {
		meta.Name = filepath.Base(sourcePath)
	}
	if meta.Version == "" {
		meta.Version = models.DefaultVersion
	}
	if meta.Size <= 0 {
		meta.Size = info.Size()
	}
	return meta, nil
}
