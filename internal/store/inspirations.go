package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

// InspirationStore holds inspirations newest first, each with its colors.
type InspirationStore struct {
	table   InspirationTable
	images  ImageRemover
	logger  *logger.Logger
	metrics *metrics.Metrics
	list    *collection[domain.Inspiration]

	subMu sync.Mutex
	subs  subscriptions
}

// NewInspirationStore creates an empty InspirationStore.
func NewInspirationStore(table InspirationTable, remover ImageRemover, log *logger.Logger, m *metrics.Metrics) *InspirationStore {
	return &InspirationStore{
		table:   table,
		images:  remover,
		logger:  log.Component("inspirations"),
		metrics: m,
		list:    newCollection(func(i domain.Inspiration) uuid.UUID { return i.ID }, nil),
	}
}

// Inspirations returns a copy of the current list.
func (s *InspirationStore) Inspirations() []domain.Inspiration { return s.list.snapshot() }

// Len returns the number of inspirations held.
func (s *InspirationStore) Len() int { return s.list.len() }

// Loading reports whether an action is in flight.
func (s *InspirationStore) Loading() bool { return s.list.isLoading() }

// Err returns the error of the last action, or nil.
func (s *InspirationStore) Err() error { return s.list.lastErr() }

// Get returns the held inspiration with id.
func (s *InspirationStore) Get(id uuid.UUID) (domain.Inspiration, bool) { return s.list.get(id) }

// FetchAll replaces the list with every inspiration, newest first.
func (s *InspirationStore) FetchAll(ctx context.Context) (_ []domain.Inspiration, err error) {
	defer s.list.begin()(&err)

	recs, err := s.table.ListInspirations(ctx)
	if err != nil {
		return nil, s.fail("fetch", err)
	}
	return s.replace(recs), nil
}

// FetchByColor replaces the list with the inspirations tagged with colorID.
func (s *InspirationStore) FetchByColor(ctx context.Context, colorID uuid.UUID) (_ []domain.Inspiration, err error) {
	defer s.list.begin()(&err)

	recs, err := s.table.ListInspirationsByColor(ctx, colorID)
	if err != nil {
		return nil, s.fail("fetch by color", err, "color_id", colorID)
	}
	return s.replace(recs), nil
}

// FetchByID reads a single inspiration.
func (s *InspirationStore) FetchByID(ctx context.Context, id uuid.UUID) (_ domain.Inspiration, err error) {
	defer s.list.begin()(&err)

	rec, err := s.table.GetInspiration(ctx, id)
	if err != nil {
		return domain.Inspiration{}, s.fail("fetch", err, "inspiration_id", id)
	}
	return domain.NewInspiration(rec), nil
}

// Create inserts an inspiration and prepends it.
func (s *InspirationStore) Create(ctx context.Context, f domain.InspirationFields) (_ domain.Inspiration, err error) {
	defer s.list.begin()(&err)

	row, err := s.table.InsertInspiration(ctx, f)
	if err != nil {
		return domain.Inspiration{}, s.fail("create", err)
	}
	rec, err := s.table.GetInspiration(ctx, row.ID)
	if err != nil {
		return domain.Inspiration{}, s.fail("create", err, "inspiration_id", row.ID)
	}

	insp := domain.NewInspiration(rec)
	s.list.insert(insp)
	s.logger.Info("inspiration created", "inspiration_id", insp.ID)
	return insp, nil
}

// Update overwrites an inspiration's image URL.
func (s *InspirationStore) Update(ctx context.Context, id uuid.UUID, f domain.InspirationFields) (_ domain.Inspiration, err error) {
	defer s.list.begin()(&err)

	if _, err := s.table.UpdateInspiration(ctx, id, f); err != nil {
		return domain.Inspiration{}, s.fail("update", err, "inspiration_id", id)
	}
	return s.reload(ctx, id, "update")
}

// Refresh re-reads an inspiration, for instance after its colors changed.
func (s *InspirationStore) Refresh(ctx context.Context, id uuid.UUID) (_ domain.Inspiration, err error) {
	defer s.list.begin()(&err)
	return s.reload(ctx, id, "refresh")
}

// Delete removes an inspiration and its color links in one transaction,
// then removes its stored image. Object removal failures are logged and
// counted but do not fail the delete.
func (s *InspirationStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer s.list.begin()(&err)

	row, err := s.table.DeleteInspiration(ctx, id)
	if err != nil {
		return s.fail("delete", err, "inspiration_id", id)
	}

	s.list.remove(id)
	if row.ImageURL != nil {
		s.RemoveImage(ctx, *row.ImageURL)
	}
	s.logger.Info("inspiration deleted", "inspiration_id", id)
	return nil
}

// RemoveImage deletes a stored inspiration image best-effort.
func (s *InspirationStore) RemoveImage(ctx context.Context, url string) {
	if err := s.images.Delete(ctx, url, images.BucketInspirations); err != nil {
		s.metrics.CleanupFailed(images.BucketInspirations)
		s.logger.WithError(err).Warn("failed to remove inspiration image object", "url", url)
	}
}

// Subscribe follows changes on inspirations. Subscribing again releases
// the previous subscription first.
func (s *InspirationStore) Subscribe(sub Subscriber) Unsubscribe {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subs.replace(sub.Subscribe(TableInspirations, s.onChange))
	return s.Unsubscribe
}

// Unsubscribe releases the store's realtime subscription.
func (s *InspirationStore) Unsubscribe() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs.release()
}

func (s *InspirationStore) onChange(c realtime.Change) {
	s.metrics.ChangeReceived(c.Table, string(c.Type))

	id, err := changeID(c)
	if err != nil {
		s.logger.WithError(err).Warn("malformed inspiration change", "type", c.Type)
		return
	}

	if c.Type == realtime.Delete {
		s.list.remove(id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), changeTimeout)
	defer cancel()

	rec, err := s.table.GetInspiration(ctx, id)
	if domainerrors.Is(err, domainerrors.ErrNotFound) {
		s.list.remove(id)
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("failed to re-read changed inspiration", "inspiration_id", id)
		return
	}
	insp := domain.NewInspiration(rec)
	if c.Type == realtime.Insert {
		s.list.insert(insp)
	} else {
		s.list.update(insp)
	}
}

func (s *InspirationStore) replace(recs []domain.InspirationRecord) []domain.Inspiration {
	items := make([]domain.Inspiration, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.NewInspiration(rec))
	}
	s.list.replace(items)
	return items
}

func (s *InspirationStore) reload(ctx context.Context, id uuid.UUID, action string) (domain.Inspiration, error) {
	rec, err := s.table.GetInspiration(ctx, id)
	if err != nil {
		return domain.Inspiration{}, s.fail(action, err, "inspiration_id", id)
	}
	insp := domain.NewInspiration(rec)
	s.list.update(insp)
	return insp, nil
}

func (s *InspirationStore) fail(action string, err error, attrs ...any) error {
	s.metrics.StoreFailed("inspirations", action)
	s.logger.WithError(err).Error("inspiration "+action+" failed", attrs...)
	return err
}
