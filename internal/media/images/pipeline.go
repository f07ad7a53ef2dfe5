package images

import (
	"context"
	"fmt"
	"strings"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/storage"
)

// UploadOptions selects the destination bucket and the title the object
// name is derived from.
type UploadOptions struct {
	Bucket string
	Title  string
}

// Uploaded describes a stored image.
type Uploaded struct {
	URL         string
	Key         string
	ContentType string
	Size        int64
	BlurHash    string
}

// Pipeline validates, compresses and stores images.
type Pipeline struct {
	store   storage.Store
	namer   Namer
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewPipeline creates a Pipeline writing to store.
func NewPipeline(store storage.Store, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	return &Pipeline{store: store, metrics: m, logger: log}
}

// WithNamer replaces the object namer.
func (p *Pipeline) WithNamer(n Namer) *Pipeline {
	p.namer = n
	return p
}

// Upload checks f against the bucket profile, compresses it (GIFs are kept
// as uploaded), stores it under a generated name and returns its public URL.
func (p *Pipeline) Upload(ctx context.Context, f File, opts UploadOptions) (res Uploaded, err error) {
	defer func() { p.metrics.UploadDone(opts.Bucket, err) }()

	prof := ProfileFor(opts.Bucket)

	if f.Size() == 0 {
		return Uploaded{}, domainerrors.Validation("El archivo está vacío")
	}
	if f.ContentType == "" {
		f.ContentType = DetectContentType(f.Data)
	}
	if !prof.Allows(f.ContentType) {
		return Uploaded{}, domainerrors.Validationf("Tipo de archivo no permitido. Tipos permitidos: %s",
			strings.Join(prof.AllowedTypes, ", "))
	}
	if f.Size() > prof.MaxSize {
		return Uploaded{}, domainerrors.Validationf("El archivo es demasiado grande. Máximo: %dMB", prof.MaxSize/MiB)
	}

	out := f
	if !f.IsGIF() {
		if out, err = Compress(f, prof); err != nil {
			return Uploaded{}, err
		}
	}

	key := p.namer.Name(opts.Title, opts.Bucket)
	if out.IsGIF() {
		key = strings.TrimSuffix(key, "."+prof.Ext) + ".gif"
	}

	hash, hashErr := ComputeBlurHash(out.Data)
	if hashErr != nil {
		p.logger.Warn("blurhash skipped", "key", key, "error", hashErr)
	}

	if err := p.store.Upload(ctx, opts.Bucket, key, out.ContentType, out.Data); err != nil {
		p.logger.Error("image upload failed", "bucket", opts.Bucket, "key", key, "error", err)
		return Uploaded{}, err
	}

	p.logger.Debug("image uploaded",
		"bucket", opts.Bucket,
		"key", key,
		"original_size", f.Size(),
		"stored_size", out.Size(),
	)

	return Uploaded{
		URL:         p.store.PublicURL(opts.Bucket, key),
		Key:         key,
		ContentType: out.ContentType,
		Size:        out.Size(),
		BlurHash:    hash,
	}, nil
}

// Delete removes the object a public URL points to. An empty URL is a
// no-op.
func (p *Pipeline) Delete(ctx context.Context, url, bucket string) error {
	key := storage.KeyFromURL(url)
	if key == "" {
		return nil
	}
	if err := p.store.Remove(ctx, bucket, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}
