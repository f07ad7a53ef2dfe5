package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// FS stores objects as files under {basePath}/{bucket}/{key}. The files are
// expected to be served by a static file handler mounted at publicURL.
type FS struct {
	basePath  string
	publicURL string
	mu        sync.RWMutex
}

// NewFS creates a filesystem store rooted at basePath.
func NewFS(basePath, publicURL string) (*FS, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FS{basePath: basePath, publicURL: publicURL}, nil
}

func (s *FS) Upload(ctx context.Context, bucket, key, _ string, data []byte) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}
	if len(data) == 0 {
		return domainerrors.Validation("object data cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.basePath, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domainerrors.Storage(err, "failed to create bucket directory")
	}

	f, err := os.OpenFile(filepath.Join(dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domainerrors.Conflictf("object %s/%s already exists", bucket, key)
		}
		return domainerrors.Storage(err, "failed to create object file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return domainerrors.Storage(err, "failed to write object file")
	}
	if err := f.Close(); err != nil {
		return domainerrors.Storage(err, "failed to close object file")
	}
	return nil
}

func (s *FS) Remove(ctx context.Context, bucket string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range keys {
		if err := validateKey(bucket, key); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(filepath.Join(s.basePath, bucket, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, domainerrors.Storage(err, "failed to delete object file"))
		}
	}
	return errors.Join(errs...)
}

func (s *FS) PublicURL(bucket, key string) string {
	return publicURL(s.publicURL, bucket, key)
}

// Root returns the directory holding the buckets.
func (s *FS) Root() string {
	return s.basePath
}
