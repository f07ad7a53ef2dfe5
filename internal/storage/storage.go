// Package storage stores image objects in public buckets.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/galeriaarte/galeria-server/internal/config"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// Store writes and removes objects in named buckets. Objects are publicly
// readable at PublicURL.
type Store interface {
	// Upload writes data under key. An existing object is never
	// overwritten; uploading to a taken key is a conflict.
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) error
	// Remove deletes keys from bucket. Missing keys are not an error.
	Remove(ctx context.Context, bucket string, keys ...string) error
	// PublicURL returns the URL an object is served from.
	PublicURL(bucket, key string) string
}

// Open builds the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3UsePathStyle,
			PublicURL:       cfg.PublicURL,
		})
	case "fs":
		return NewFS(cfg.BasePath, cfg.PublicURL)
	case "memory", "":
		return NewMemory(cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// KeyFromURL returns the object key of a public URL: its last path
// segment. Empty when the URL has no usable segment.
func KeyFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	key := path.Base(p)
	if key == "." || key == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	return key
}

func publicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

func validateKey(bucket, key string) error {
	if bucket == "" {
		return domainerrors.Validation("bucket cannot be empty")
	}
	if key == "" {
		return domainerrors.Validation("object key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return domainerrors.Validationf("invalid object key %q", key)
	}
	return nil
}
