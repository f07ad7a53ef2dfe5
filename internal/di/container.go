// Package di provides dependency injection configuration for the gallery server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/galeriaarte/galeria-server/internal/api"
	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/di/providers"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/postgres"
	"github.com/galeriaarte/galeria-server/internal/storage"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Backend
	do.Provide(injector, providers.ProvidePool)
	do.Provide(injector, providers.ProvideRepository)
	do.Provide(injector, providers.ProvideObjectStore)
	do.Provide(injector, providers.ProvideVerifier)

	// Realtime
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideHub)

	// Local state
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideImagePipeline)

	// Stores and services
	do.Provide(injector, providers.ProvideStores)
	do.Provide(injector, providers.ProvidePreloader)
	do.Provide(injector, providers.ProvideServices)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Invoking the HTTP server last makes
// it the first to shut down.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	for _, invoke := range []func(do.Injector) error{
		invokeAs[*providers.PoolHandle],
		invokeAs[*postgres.Repository],
		invokeAs[storage.Store],
		invokeAs[*auth.Verifier],
		invokeAs[*providers.SSEManagerHandle],
		invokeAs[*providers.HubHandle],
		invokeAs[*providers.CacheHandle],
		invokeAs[*providers.SearchIndexHandle],
		invokeAs[*images.Pipeline],
		invokeAs[*api.Stores],
		invokeAs[*providers.PreloaderHandle],
		invokeAs[*api.Services],
		invokeAs[*providers.HTTPServerHandle],
	} {
		if err := invoke(injector); err != nil {
			return err
		}
	}
	return nil
}

func invokeAs[T any](i do.Injector) error {
	_, err := do.Invoke[T](i)
	return err
}
