package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/store"
)

// IndexRebuilder rebuilds the works search index. *search.SearchIndex
// implements it.
type IndexRebuilder interface {
	Rebuild(works []domain.Work) error
}

// Preloader fills the stores and subscribes them to realtime changes once
// a user is present.
type Preloader struct {
	works        *store.WorkStore
	inspirations *store.InspirationStore
	categories   *store.CategoryStore
	colors       *store.ColorStore
	hub          store.Subscriber
	index        IndexRebuilder
	logger       *logger.Logger

	mu     sync.Mutex
	loaded bool
	unsubs []store.Unsubscribe
}

// PreloaderDeps are the collaborators of a Preloader. Index is optional.
type PreloaderDeps struct {
	Works        *store.WorkStore
	Inspirations *store.InspirationStore
	Categories   *store.CategoryStore
	Colors       *store.ColorStore
	Hub          store.Subscriber
	Index        IndexRebuilder
}

// NewPreloader creates a Preloader.
func NewPreloader(deps PreloaderDeps, log *logger.Logger) *Preloader {
	return &Preloader{
		works:        deps.Works,
		inspirations: deps.Inspirations,
		categories:   deps.Categories,
		colors:       deps.Colors,
		hub:          deps.Hub,
		index:        deps.Index,
		logger:       log.Component("preload"),
	}
}

// Loaded reports whether the stores have been filled and subscribed.
func (p *Preloader) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Ensure preloads the stores for user unless that already succeeded.
// Without a user nothing is fetched. A failed preload is retried on the
// next call.
func (p *Preloader) Ensure(ctx context.Context, user *auth.User) error {
	if user == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := p.works.FetchAll(gctx)
		return err
	})
	g.Go(func() error {
		_, err := p.inspirations.FetchAll(gctx)
		return err
	})
	if p.colors.Len() == 0 {
		g.Go(func() error {
			_, err := p.colors.FetchAll(gctx)
			return err
		})
	}
	if p.categories.Len() == 0 {
		g.Go(func() error {
			_, err := p.categories.FetchAll(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.WithError(err).Error("preload failed", "user_id", user.ID)
		return err
	}

	if p.index != nil {
		if err := p.index.Rebuild(p.works.Works()); err != nil {
			p.logger.WithError(err).Warn("failed to rebuild search index")
		}
	}

	p.unsubs = []store.Unsubscribe{
		p.works.Subscribe(p.hub),
		p.inspirations.Subscribe(p.hub),
		p.categories.Subscribe(p.hub),
		p.colors.Subscribe(p.hub),
	}
	p.loaded = true

	p.logger.Info("stores preloaded",
		"user_id", user.ID,
		"works", p.works.Len(),
		"inspirations", p.inspirations.Len(),
		"categories", p.categories.Len(),
		"colors", p.colors.Len(),
	)
	return nil
}

// Close releases every store subscription.
func (p *Preloader) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, unsubscribe := range p.unsubs {
		unsubscribe()
	}
	p.unsubs = nil
	p.loaded = false
	return nil
}
