package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/galeriaarte/galeria-server/internal/cache"
	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/storage"
)

// ProvideObjectStore provides the object storage driver selected by config.
func ProvideObjectStore(i do.Injector) (storage.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := storage.Open(context.Background(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	log.Info("Object storage initialized",
		"driver", cfg.Storage.Driver,
		"public_url", cfg.Storage.PublicURL,
	)

	return store, nil
}

// ProvideImagePipeline provides the upload pipeline for work and
// inspiration images.
func ProvideImagePipeline(i do.Injector) (*images.Pipeline, error) {
	store := do.MustInvoke[storage.Store](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewPipeline(store, m, log.Component("images")), nil
}

// CacheHandle wraps the reference data cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the Badger cache holding the category list.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.Open(cfg.Cache.Path, log.Component("cache"))
	if err != nil {
		return nil, err
	}
	return &CacheHandle{Cache: c}, nil
}
