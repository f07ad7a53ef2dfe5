package providers

import (
	"github.com/samber/do/v2"

	"github.com/galeriaarte/galeria-server/internal/api"
	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/postgres"
	"github.com/galeriaarte/galeria-server/internal/service"
	"github.com/galeriaarte/galeria-server/internal/store"
)

// ProvideStores provides the entity stores over the repository.
func ProvideStores(i do.Injector) (*api.Stores, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	repo := do.MustInvoke[*postgres.Repository](i)
	pipeline := do.MustInvoke[*images.Pipeline](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	log = log.Component("store")
	works := store.NewWorkStore(repo, pipeline, log, m)
	works.SetSearchIndexer(searchHandle.SearchIndex)

	return &api.Stores{
		Works:        works,
		Inspirations: store.NewInspirationStore(repo, pipeline, log, m),
		Categories:   store.NewCategoryStore(repo, cacheHandle.Cache, cfg.Cache.CategoryTTL, log, m),
		Colors:       store.NewColorStore(repo, log, m),
	}, nil
}

// PreloaderHandle wraps the preloader with shutdown capability.
type PreloaderHandle struct {
	*service.Preloader
}

// Shutdown implements do.Shutdownable.
func (h *PreloaderHandle) Shutdown() error {
	return h.Close()
}

// ProvidePreloader provides the store preloader run on the first
// authenticated request.
func ProvidePreloader(i do.Injector) (*PreloaderHandle, error) {
	stores := do.MustInvoke[*api.Stores](i)
	hub := do.MustInvoke[*HubHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	p := service.NewPreloader(service.PreloaderDeps{
		Works:        stores.Works,
		Inspirations: stores.Inspirations,
		Categories:   stores.Categories,
		Colors:       stores.Colors,
		Hub:          hub.Hub,
		Index:        searchHandle.SearchIndex,
	}, log)

	return &PreloaderHandle{Preloader: p}, nil
}

// ProvideServices provides the workflows used by the API.
func ProvideServices(i do.Injector) (*api.Services, error) {
	stores := do.MustInvoke[*api.Stores](i)
	pipeline := do.MustInvoke[*images.Pipeline](i)
	preloader := do.MustInvoke[*PreloaderHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &api.Services{
		Works:        service.NewWorkService(stores.Works, pipeline, log),
		Inspirations: service.NewInspirationService(stores.Inspirations, stores.Colors, pipeline, log),
		Preloader:    preloader.Preloader,
	}, nil
}
