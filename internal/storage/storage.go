// Package storage provides the object storage backends used to archive
// partition files off the local pool. The pool stays fully functional
// without an archive; archiving is an operator-enabled copy.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/gridiron/gridiron/internal/config"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts the archive backend. Object paths use forward
// slashes and mirror the pool-relative partition layout, so an archived
// pool can be restored byte for byte.
type ObjectStorage interface {
	// Upload copies a local file to objectPath in the archive.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Download copies objectPath from the archive to localPath.
	// Returns ErrObjectNotFound when the object does not exist.
	Download(ctx context.Context, objectPath, localPath string) error

	// Exists reports whether objectPath is present in the archive.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Delete removes objectPath. Deleting a missing object is not an
	// error, matching S3 semantics.
	Delete(ctx context.Context, objectPath string) error

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// NewFromConfig builds the archive backend selected by cfg. A nil
// backend with a nil error means archiving is disabled.
func NewFromConfig(ctx context.Context, cfg config.ArchiveConfig) (ObjectStorage, error) {
	switch cfg.Type {
	case config.ArchiveNone, "":
		return nil, nil
	case config.ArchiveLocal:
		return NewLocalStorage(cfg.Path)
	case config.ArchiveS3:
		return NewS3Storage(ctx, cfg.S3.Bucket, S3Options{
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
	default:
		return nil, fmt.Errorf("storage: unknown archive type %q", cfg.Type)
	}
}

// ArchivePartition uploads a partition's parquet file and, when
// present, its bloom sidecar. relPath is the pool-relative partition
// file path; files are addressed in the archive under the same layout.
func ArchivePartition(ctx context.Context, store ObjectStorage, poolRoot, relPath, sidecarName string) error {
	localFile := filepath.Join(poolRoot, filepath.FromSlash(relPath))
	if err := store.Upload(ctx, localFile, path.Clean(filepath.ToSlash(relPath))); err != nil {
		return fmt.Errorf("storage: failed to archive %s: %w", relPath, err)
	}

	// Sidecars are optional pruning hints; skip silently when absent.
	sidecarRel := path.Join(path.Dir(filepath.ToSlash(relPath)), sidecarName)
	sidecarLocal := filepath.Join(poolRoot, filepath.FromSlash(sidecarRel))
	if _, err := os.Stat(sidecarLocal); err != nil {
		return nil
	}
	if err := store.Upload(ctx, sidecarLocal, sidecarRel); err != nil {
		return fmt.Errorf("storage: failed to archive sidecar %s: %w", sidecarRel, err)
	}
	return nil
}
