package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

// ColorStore holds the palette ordered by position.
type ColorStore struct {
	table   ColorTable
	logger  *logger.Logger
	metrics *metrics.Metrics
	list    *collection[domain.Color]

	subMu sync.Mutex
	subs  subscriptions
}

// NewColorStore creates an empty ColorStore.
func NewColorStore(table ColorTable, log *logger.Logger, m *metrics.Metrics) *ColorStore {
	return &ColorStore{
		table:   table,
		logger:  log.Component("colors"),
		metrics: m,
		list:    newCollection(func(c domain.Color) uuid.UUID { return c.ID }, domain.SortColors),
	}
}

// Colors returns a copy of the current list.
func (s *ColorStore) Colors() []domain.Color { return s.list.snapshot() }

// Len returns the number of colors held.
func (s *ColorStore) Len() int { return s.list.len() }

// Loading reports whether an action is in flight.
func (s *ColorStore) Loading() bool { return s.list.isLoading() }

// Err returns the error of the last action, or nil.
func (s *ColorStore) Err() error { return s.list.lastErr() }

// FetchAll replaces the list with every color.
func (s *ColorStore) FetchAll(ctx context.Context) (_ []domain.Color, err error) {
	defer s.list.begin()(&err)

	rows, err := s.table.ListColors(ctx)
	if err != nil {
		return nil, s.fail("fetch", err)
	}
	colors := make([]domain.Color, 0, len(rows))
	for _, row := range rows {
		colors = append(colors, domain.NewColor(row))
	}
	s.list.replace(colors)
	return s.list.snapshot(), nil
}

// Get returns the held copy of a color.
func (s *ColorStore) Get(id uuid.UUID) (domain.Color, bool) { return s.list.get(id) }

// FetchByID reads one color without changing the list.
func (s *ColorStore) FetchByID(ctx context.Context, id uuid.UUID) (_ domain.Color, err error) {
	defer s.list.begin()(&err)

	row, err := s.table.GetColor(ctx, id)
	if err != nil {
		return domain.Color{}, s.fail("fetch", err, "color_id", id)
	}
	return domain.NewColor(row), nil
}

// Create inserts a color. Colors without a position go to
// domain.DefaultColorPosition.
func (s *ColorStore) Create(ctx context.Context, f domain.ColorFields) (_ domain.Color, err error) {
	defer s.list.begin()(&err)

	row, err := s.table.InsertColor(ctx, f)
	if err != nil {
		return domain.Color{}, s.fail("create", err, "name", f.Name)
	}
	c := domain.NewColor(row)
	s.list.insert(c)
	return c, nil
}

// Update overwrites a color and re-sorts the palette.
func (s *ColorStore) Update(ctx context.Context, id uuid.UUID, f domain.ColorFields) (_ domain.Color, err error) {
	defer s.list.begin()(&err)

	row, err := s.table.UpdateColor(ctx, id, f)
	if err != nil {
		return domain.Color{}, s.fail("update", err, "color_id", id)
	}
	c := domain.NewColor(row)
	s.list.update(c)
	return c, nil
}

// Delete removes a color and its inspiration links.
func (s *ColorStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer s.list.begin()(&err)

	if err := s.table.DeleteColor(ctx, id); err != nil {
		return s.fail("delete", err, "color_id", id)
	}
	s.list.remove(id)
	return nil
}

// ColorsForInspiration reads the colors of an inspiration by position.
func (s *ColorStore) ColorsForInspiration(ctx context.Context, inspirationID uuid.UUID) (_ []domain.Color, err error) {
	defer s.list.begin()(&err)

	rows, err := s.table.ListInspirationColors(ctx, inspirationID)
	if err != nil {
		return nil, s.fail("fetch inspiration colors", err, "inspiration_id", inspirationID)
	}
	colors := make([]domain.Color, 0, len(rows))
	for _, row := range rows {
		colors = append(colors, domain.NewColor(row))
	}
	domain.SortColors(colors)
	return colors, nil
}

// SaveInspirationColors replaces the colors of an inspiration.
func (s *ColorStore) SaveInspirationColors(ctx context.Context, inspirationID uuid.UUID, colorIDs []uuid.UUID) (err error) {
	defer s.list.begin()(&err)

	if err := s.table.ReplaceInspirationColors(ctx, inspirationID, colorIDs); err != nil {
		return s.fail("save inspiration colors", err, "inspiration_id", inspirationID)
	}
	return nil
}

// Subscribe follows changes on the palette. Subscribing again releases the
// previous subscription first.
func (s *ColorStore) Subscribe(sub Subscriber) Unsubscribe {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subs.replace(sub.Subscribe(TableColors, s.onChange))
	return s.Unsubscribe
}

// Unsubscribe releases the store's realtime subscription.
func (s *ColorStore) Unsubscribe() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs.release()
}

func (s *ColorStore) onChange(c realtime.Change) {
	s.metrics.ChangeReceived(c.Table, string(c.Type))

	if c.Type == realtime.Delete {
		id, err := changeID(c)
		if err != nil {
			s.logger.WithError(err).Warn("malformed color change", "type", c.Type)
			return
		}
		s.list.remove(id)
		return
	}

	if c.Truncated {
		ctx, cancel := context.WithTimeout(context.Background(), changeTimeout)
		defer cancel()
		if _, err := s.FetchAll(ctx); err != nil {
			s.logger.WithError(err).Warn("failed to reload colors after truncated change")
		}
		return
	}

	var row domain.ColorRow
	if err := c.DecodeNew(&row); err != nil {
		s.logger.WithError(err).Warn("malformed color change", "type", c.Type)
		return
	}
	if c.Type == realtime.Insert {
		s.list.insert(domain.NewColor(row))
	} else {
		s.list.update(domain.NewColor(row))
	}
}

func (s *ColorStore) fail(action string, err error, attrs ...any) error {
	s.metrics.StoreFailed("colors", action)
	s.logger.WithError(err).Error("color "+action+" failed", attrs...)
	return err
}
