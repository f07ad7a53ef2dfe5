package providers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"

	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/postgres"
)

// PoolHandle wraps the connection pool with shutdown capability.
type PoolHandle struct {
	*pgxpool.Pool
}

// Shutdown implements do.Shutdownable.
func (h *PoolHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvidePool provides the Postgres connection pool, applying migrations
// first when configured to.
func ProvidePool(i do.Injector) (*PoolHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, cfg.Database.DSN, log.Component("migrate")); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	log.Info("Database connected",
		"max_conns", pool.Config().MaxConns,
		"migrated", cfg.Database.MigrateOnStart,
	)

	return &PoolHandle{Pool: pool}, nil
}

// ProvideRepository provides the table gateway shared by every store.
func ProvideRepository(i do.Injector) (*postgres.Repository, error) {
	pool := do.MustInvoke[*PoolHandle](i)
	return postgres.NewRepository(pool.Pool), nil
}
