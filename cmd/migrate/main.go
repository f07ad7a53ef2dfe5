// Package main applies the database migrations without starting the server.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/migrate
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/postgres"
)

var (
	dsn     = flag.String("dsn", "", "Postgres connection string (default: $DATABASE_URL)")
	timeout = flag.Duration("timeout", 2*time.Minute, "Maximum time to spend migrating")
)

func main() {
	flag.Parse()

	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "no connection string: pass -dsn or set DATABASE_URL")
		os.Exit(2)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Environment: "development",
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := postgres.Migrate(ctx, *dsn, log.Component("migrate")); err != nil {
		log.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("Database is up to date")
}
