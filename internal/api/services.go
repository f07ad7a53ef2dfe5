package api

import (
	"context"

	"github.com/galeriaarte/galeria-server/internal/search"
	"github.com/galeriaarte/galeria-server/internal/service"
	"github.com/galeriaarte/galeria-server/internal/store"
)

// Services groups the workflows used by the API server.
type Services struct {
	Works        *service.WorkService
	Inspirations *service.InspirationService
	Preloader    *service.Preloader
}

// Stores groups the entity stores read by the API server.
type Stores struct {
	Works        *store.WorkStore
	Inspirations *store.InspirationStore
	Categories   *store.CategoryStore
	Colors       *store.ColorStore
}

// WorkSearcher runs full-text queries over works. *search.SearchIndex
// implements it.
type WorkSearcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
	DocumentCount() (uint64, error)
}

// Pinger checks the backend connection. *postgres.Repository implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// preloader returns the configured Preloader, or nil.
func (s *Server) preloader() Preloader {
	if s.services == nil || s.services.Preloader == nil {
		return nil
	}
	return s.services.Preloader
}
