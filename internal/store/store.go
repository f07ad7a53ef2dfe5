// Package store keeps the in-memory entity lists the API serves from. Each
// store wraps one backend table, records its loading and error state, and
// follows realtime changes once subscribed.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

// Tables watched by the stores.
const (
	TableWorks        = "obras"
	TableWorkImages   = "obras_imagenes"
	TableInspirations = "inspiraciones"
	TableCategories   = "categorias"
	TableColors       = "colores"
)

// changeTimeout bounds the re-read a realtime change triggers.
const changeTimeout = 10 * time.Second

// WorkTable is the backend surface of the work store.
type WorkTable interface {
	ListWorks(ctx context.Context) ([]domain.WorkRecord, error)
	ListWorksByID(ctx context.Context, ids []uuid.UUID) ([]domain.WorkRecord, error)
	GetWork(ctx context.Context, id uuid.UUID) (domain.WorkRecord, error)
	GetWorkBySlug(ctx context.Context, slug string) (domain.WorkRecord, error)
	ListSlugs(ctx context.Context, base string) ([]string, error)
	InsertWork(ctx context.Context, f domain.WorkFields) (domain.WorkRow, error)
	UpdateWork(ctx context.Context, id uuid.UUID, f domain.WorkFields) (domain.WorkRow, error)
	DeleteWork(ctx context.Context, id uuid.UUID) ([]domain.WorkImageRow, error)
	InsertWorkImage(ctx context.Context, img domain.WorkImageRow) (domain.WorkImageRow, error)
	DeleteWorkImages(ctx context.Context, workID uuid.UUID, urls []string) ([]domain.WorkImageRow, error)
	SetPrimaryImage(ctx context.Context, workID, imageID uuid.UUID) error
	ReorderImages(ctx context.Context, workID uuid.UUID, imageIDs []uuid.UUID) error
}

// InspirationTable is the backend surface of the inspiration store.
type InspirationTable interface {
	ListInspirations(ctx context.Context) ([]domain.InspirationRecord, error)
	ListInspirationsByColor(ctx context.Context, colorID uuid.UUID) ([]domain.InspirationRecord, error)
	GetInspiration(ctx context.Context, id uuid.UUID) (domain.InspirationRecord, error)
	InsertInspiration(ctx context.Context, f domain.InspirationFields) (domain.InspirationRow, error)
	UpdateInspiration(ctx context.Context, id uuid.UUID, f domain.InspirationFields) (domain.InspirationRow, error)
	DeleteInspiration(ctx context.Context, id uuid.UUID) (domain.InspirationRow, error)
}

// CategoryTable is the backend surface of the category store.
type CategoryTable interface {
	ListCategories(ctx context.Context) ([]domain.CategoryRow, error)
}

// ColorTable is the backend surface of the color store.
type ColorTable interface {
	ListColors(ctx context.Context) ([]domain.ColorRow, error)
	GetColor(ctx context.Context, id uuid.UUID) (domain.ColorRow, error)
	InsertColor(ctx context.Context, f domain.ColorFields) (domain.ColorRow, error)
	UpdateColor(ctx context.Context, id uuid.UUID, f domain.ColorFields) (domain.ColorRow, error)
	DeleteColor(ctx context.Context, id uuid.UUID) error
	ListInspirationColors(ctx context.Context, id uuid.UUID) ([]domain.ColorRow, error)
	ReplaceInspirationColors(ctx context.Context, id uuid.UUID, colorIDs []uuid.UUID) error
}

// ImageRemover deletes a stored image by its public URL.
type ImageRemover interface {
	Delete(ctx context.Context, url, bucket string) error
}

// Subscriber registers realtime handlers. *realtime.Hub implements it.
type Subscriber interface {
	Subscribe(table string, fn realtime.Handler) *realtime.Subscription
}

// Unsubscribe releases a store's realtime subscription. Calling it more
// than once is safe.
type Unsubscribe func()

// SearchIndexer is the interface for updating the works search index.
type SearchIndexer interface {
	IndexWork(ctx context.Context, w domain.Work) error
	DeleteWork(ctx context.Context, id uuid.UUID) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexWork is a no-op.
func (NoopSearchIndexer) IndexWork(context.Context, domain.Work) error { return nil }

// DeleteWork is a no-op.
func (NoopSearchIndexer) DeleteWork(context.Context, uuid.UUID) error { return nil }

// subscriptions holds the live subscriptions of one store.
type subscriptions struct {
	subs []*realtime.Subscription
}

func (s *subscriptions) replace(subs ...*realtime.Subscription) {
	s.release()
	s.subs = subs
}

func (s *subscriptions) release() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

// changeID extracts the row id of a change, from the new row image when
// present and from the old one otherwise.
func changeID(c realtime.Change) (uuid.UUID, error) {
	var row struct {
		ID uuid.UUID `json:"id"`
	}
	var err error
	if c.HasNew() {
		err = c.DecodeNew(&row)
	} else {
		err = c.DecodeOld(&row)
	}
	return row.ID, err
}
