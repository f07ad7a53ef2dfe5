package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

const (
	categoriesCacheKey = "categorias"

	// DefaultCategoryTTL is how long a cached category list is served.
	DefaultCategoryTTL = 60 * time.Minute

	refreshTimeout = 30 * time.Second
)

// Cache is a TTL key-value cache. *cache.Cache implements it.
type Cache interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any, ttl time.Duration) error
}

// CategoryStore holds categories sorted by name. Lists are served from the
// cache while it is fresh and refreshed in the background.
type CategoryStore struct {
	table   CategoryTable
	cache   Cache
	ttl     time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
	list    *collection[domain.Category]

	refreshing atomic.Bool
	wg         sync.WaitGroup

	subMu sync.Mutex
	subs  subscriptions
}

// NewCategoryStore creates an empty CategoryStore. A nil cache disables
// caching; a zero ttl uses DefaultCategoryTTL.
func NewCategoryStore(table CategoryTable, c Cache, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *CategoryStore {
	if ttl <= 0 {
		ttl = DefaultCategoryTTL
	}
	return &CategoryStore{
		table:   table,
		cache:   c,
		ttl:     ttl,
		logger:  log.Component("categories"),
		metrics: m,
		list:    newCollection(func(c domain.Category) uuid.UUID { return c.ID }, domain.SortCategories),
	}
}

// Categories returns a copy of the current list.
func (s *CategoryStore) Categories() []domain.Category { return s.list.snapshot() }

// Len returns the number of categories held.
func (s *CategoryStore) Len() int { return s.list.len() }

// Loading reports whether an action is in flight.
func (s *CategoryStore) Loading() bool { return s.list.isLoading() }

// Err returns the error of the last action, or nil.
func (s *CategoryStore) Err() error { return s.list.lastErr() }

// Name returns the name of the category with id.
func (s *CategoryStore) Name(id uuid.UUID) (string, bool) {
	c, ok := s.list.get(id)
	return c.Name, ok
}

// FetchAll replaces the list with every category. A cached list is
// returned immediately and refreshed in the background.
func (s *CategoryStore) FetchAll(ctx context.Context) (_ []domain.Category, err error) {
	defer s.list.begin()(&err)

	if cached, ok := s.cached(); ok {
		s.list.replace(cached)
		cats := s.list.snapshot()
		s.refreshInBackground()
		return cats, nil
	}

	if err := s.load(ctx); err != nil {
		return nil, s.fail("fetch", err)
	}
	return s.list.snapshot(), nil
}

// Wait blocks until a running background refresh finishes.
func (s *CategoryStore) Wait() { s.wg.Wait() }

// Subscribe follows changes on categories and rewrites the cached copy.
// Subscribing again releases the previous subscription first.
func (s *CategoryStore) Subscribe(sub Subscriber) Unsubscribe {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subs.replace(sub.Subscribe(TableCategories, s.onChange))
	return s.Unsubscribe
}

// Unsubscribe releases the store's realtime subscription.
func (s *CategoryStore) Unsubscribe() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs.release()
}

func (s *CategoryStore) onChange(c realtime.Change) {
	s.metrics.ChangeReceived(c.Table, string(c.Type))

	if c.Truncated {
		s.refreshInBackground()
		return
	}

	switch c.Type {
	case realtime.Delete:
		id, err := changeID(c)
		if err != nil {
			s.logger.WithError(err).Warn("malformed category change", "type", c.Type)
			return
		}
		s.list.remove(id)
	case realtime.Insert, realtime.Update:
		var row domain.CategoryRow
		if err := c.DecodeNew(&row); err != nil {
			s.logger.WithError(err).Warn("malformed category change", "type", c.Type)
			return
		}
		if c.Type == realtime.Insert {
			s.list.insert(domain.NewCategory(row))
		} else {
			s.list.update(domain.NewCategory(row))
		}
	}
	s.store(s.list.snapshot())
}

func (s *CategoryStore) load(ctx context.Context) error {
	rows, err := s.table.ListCategories(ctx)
	if err != nil {
		return err
	}
	cats := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, domain.NewCategory(row))
	}
	s.list.replace(cats)
	s.store(s.list.snapshot())
	return nil
}

func (s *CategoryStore) refreshInBackground() {
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := s.load(ctx); err != nil {
			s.metrics.StoreFailed("categories", "refresh")
			s.logger.WithError(err).Warn("background category refresh failed")
		}
	}()
}

func (s *CategoryStore) cached() ([]domain.Category, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cats []domain.Category
	ok, err := s.cache.Get(categoriesCacheKey, &cats)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read cached categories")
		return nil, false
	}
	return cats, ok
}

func (s *CategoryStore) store(cats []domain.Category) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(categoriesCacheKey, cats, s.ttl); err != nil {
		s.logger.WithError(err).Warn("failed to cache categories")
	}
}

func (s *CategoryStore) fail(action string, err error, attrs ...any) error {
	s.metrics.StoreFailed("categories", action)
	s.logger.WithError(err).Error("category "+action+" failed", attrs...)
	return err
}
