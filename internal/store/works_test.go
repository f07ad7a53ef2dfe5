package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/realtime"
	"github.com/galeriaarte/galeria-server/internal/store/storetest"
)

type recordingIndexer struct {
	indexed []uuid.UUID
	deleted []uuid.UUID
}

func (r *recordingIndexer) IndexWork(_ context.Context, w domain.Work) error {
	r.indexed = append(r.indexed, w.ID)
	return nil
}

func (r *recordingIndexer) DeleteWork(_ context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func newTestWorkStore(t *testing.T) (*WorkStore, *storetest.WorkTable, *storetest.Remover, *metrics.Metrics) {
	t.Helper()
	table := storetest.NewWorkTable()
	remover := &storetest.Remover{}
	m := metrics.New()
	return NewWorkStore(table, remover, logger.Discard(), m), table, remover, m
}

func sunsetFields(catID *uuid.UUID) domain.WorkFields {
	return domain.WorkFields{
		Title:       "Sunset, Vol. 2",
		Description: "Óleo sobre tela",
		Year:        2020,
		Width:       50,
		Height:      70,
		CategoryID:  catID,
	}
}

func TestWorkStore_CreateSameTitleTwice(t *testing.T) {
	s, table, _, _ := newTestWorkStore(t)
	ctx := context.Background()
	catID := uuid.New()
	table.SetCategory(catID, "Óleo")

	first, err := s.Create(ctx, sunsetFields(&catID))
	require.NoError(t, err)
	second, err := s.Create(ctx, sunsetFields(&catID))
	require.NoError(t, err)

	assert.Equal(t, "sunset-vol-2", first.Slug)
	assert.Equal(t, "sunset-vol-2-1", second.Slug)
	assert.Equal(t, "Óleo", second.CategoryName, "category name comes from the joined re-read")

	works := s.Works()
	require.Len(t, works, 2)
	assert.Equal(t, second.ID, works[0].ID, "new works are prepended")
	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())
}

func TestWorkStore_CreateUntitledFallsBack(t *testing.T) {
	s, _, _, _ := newTestWorkStore(t)

	w, err := s.Create(context.Background(), domain.WorkFields{Title: "¡¡!!", Year: 2000, Width: 1, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, "obra", w.Slug)
}

func TestWorkStore_UpdateSlug(t *testing.T) {
	tests := []struct {
		name     string
		other    string
		title    string
		slug     string
		wantSlug string
	}{
		{name: "same title keeps supplied slug", title: "Sunset, Vol. 2", slug: "mi-slug", wantSlug: "mi-slug"},
		{name: "supplied slug is normalized", title: "Sunset, Vol. 2", slug: "Mi Slug / Ñ?", wantSlug: "mi-slug-n"},
		{name: "supplied slug taken by another work", other: "Amanecer", title: "Sunset, Vol. 2", slug: "amanecer", wantSlug: "amanecer-1"},
		{name: "title changed", title: "Amanecer", slug: "sunset-vol-2", wantSlug: "amanecer"},
		{name: "no slug supplied", title: "Sunset, Vol. 2", slug: "", wantSlug: "sunset-vol-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _, _ := newTestWorkStore(t)
			ctx := context.Background()
			if tt.other != "" {
				other := sunsetFields(nil)
				other.Title = tt.other
				_, err := s.Create(ctx, other)
				require.NoError(t, err)
			}
			created, err := s.Create(ctx, sunsetFields(nil))
			require.NoError(t, err)

			f := sunsetFields(nil)
			f.Title = tt.title
			f.Slug = tt.slug
			updated, err := s.Update(ctx, created.ID, f)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSlug, updated.Slug)
			held, ok := s.Get(created.ID)
			require.True(t, ok)
			assert.Equal(t, tt.title, held.Title, "entry replaced in place")
		})
	}
}

func TestWorkStore_UpdateNotFound(t *testing.T) {
	s, _, _, m := newTestWorkStore(t)

	_, err := s.Update(context.Background(), uuid.New(), sunsetFields(nil))

	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.ErrorIs(t, s.Err(), domainerrors.ErrNotFound)
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP galeria_store_failures_total Failed store actions by store and action.
# TYPE galeria_store_failures_total counter
galeria_store_failures_total{action="update",store="works"} 1
`), "galeria_store_failures_total"))
}

func TestWorkStore_DeleteDespiteStorageFailure(t *testing.T) {
	s, table, remover, m := newTestWorkStore(t)
	ctx := context.Background()
	remover.Err = errors.New("bucket unavailable")

	w, err := s.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)
	for i, url := range []string{"https://cdn/obras-imagenes/a.jpg", "https://cdn/obras-imagenes/b.jpg"} {
		_, err := s.AddImage(ctx, domain.WorkImageRow{WorkID: w.ID, URL: url, Position: i})
		require.NoError(t, err)
	}

	require.NoError(t, s.Delete(ctx, w.ID))

	assert.Empty(t, s.Works())
	assert.Empty(t, table.Images(w.ID), "image rows removed")
	assert.Len(t, remover.Calls(), 2)
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP galeria_storage_cleanup_failures_total Stored objects that could not be removed after their rows were deleted.
# TYPE galeria_storage_cleanup_failures_total counter
galeria_storage_cleanup_failures_total{bucket="obras-imagenes"} 2
`), "galeria_storage_cleanup_failures_total"))
	assert.NoError(t, s.Err())
}

func TestWorkStore_DeleteFailureKeepsEntry(t *testing.T) {
	s, table, remover, _ := newTestWorkStore(t)
	ctx := context.Background()

	w, err := s.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)
	table.FailDelete = domainerrors.Internal("connection reset")

	err = s.Delete(ctx, w.ID)

	require.Error(t, err)
	assert.Len(t, s.Works(), 1)
	assert.Empty(t, remover.Calls())
	assert.Error(t, s.Err())
}

func TestWorkStore_ImageActions(t *testing.T) {
	s, _, remover, _ := newTestWorkStore(t)
	ctx := context.Background()

	w, err := s.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)
	a, err := s.AddImage(ctx, domain.WorkImageRow{WorkID: w.ID, URL: "https://cdn/a.jpg", Position: 0})
	require.NoError(t, err)
	b, err := s.AddImage(ctx, domain.WorkImageRow{WorkID: w.ID, URL: "https://cdn/b.jpg", Position: 1})
	require.NoError(t, err)

	require.NoError(t, s.SetPrimaryImage(ctx, w.ID, b.ID))
	require.NoError(t, s.ReorderImages(ctx, w.ID, []uuid.UUID{b.ID, a.ID}))

	held, _ := s.Get(w.ID)
	assert.Equal(t, []string{"https://cdn/b.jpg", "https://cdn/a.jpg"}, held.ImageURLs())
	require.NotNil(t, held.PrimaryImage)
	assert.Equal(t, b.ID, held.PrimaryImage.ID)

	require.NoError(t, s.DeleteImage(ctx, w.ID, "https://cdn/a.jpg"))
	held, _ = s.Get(w.ID)
	assert.Equal(t, []string{"https://cdn/b.jpg"}, held.ImageURLs())
	assert.Equal(t, []string{"obras-imagenes/https://cdn/a.jpg"}, remover.Calls())

	err = s.DeleteImage(ctx, w.ID, "https://cdn/missing.jpg")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestWorkStore_FetchBySlugAndIDs(t *testing.T) {
	s, _, _, _ := newTestWorkStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)
	f := sunsetFields(nil)
	f.Title = "Amanecer"
	b, err := s.Create(ctx, f)
	require.NoError(t, err)

	got, err := s.FetchBySlug(ctx, "amanecer")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.FetchBySlug(ctx, "nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	works, err := s.FetchByIDs(ctx, []uuid.UUID{a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	require.Len(t, works, 2)
	assert.Equal(t, a.ID, works[0].ID, "order of ids kept")
}

func TestWorkStore_FetchAllNewestFirst(t *testing.T) {
	s, _, _, _ := newTestWorkStore(t)
	ctx := context.Background()
	other, _, _, _ := newTestWorkStore(t)
	other.table = s.table

	a, err := other.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)
	b, err := other.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)

	works, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, works, 2)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, []uuid.UUID{works[0].ID, works[1].ID})
	assert.Equal(t, 2, s.Len())
}

func TestWorkStore_SearchIndexerFollowsMutations(t *testing.T) {
	s, _, _, _ := newTestWorkStore(t)
	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)
	ctx := context.Background()

	w, err := s.Create(ctx, sunsetFields(nil))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, w.ID))

	assert.Contains(t, idx.indexed, w.ID)
	assert.Equal(t, []uuid.UUID{w.ID}, idx.deleted)
}

func TestWorkStore_Subscribe(t *testing.T) {
	s, table, _, _ := newTestWorkStore(t)
	hub := realtime.NewHub(logger.Discard())
	ctx := context.Background()

	unsubscribe := s.Subscribe(hub)

	// Another client inserts a work.
	row, err := table.InsertWork(ctx, domain.WorkFields{Title: "Remota", Slug: "remota"})
	require.NoError(t, err)
	hub.Publish(storetest.Change(t, TableWorks, realtime.Insert, row, nil))

	works := s.Works()
	require.Len(t, works, 1)
	assert.Equal(t, "remota", works[0].Slug)

	// An image lands on it.
	img, err := table.InsertWorkImage(ctx, domain.WorkImageRow{WorkID: row.ID, URL: "https://cdn/r.jpg"})
	require.NoError(t, err)
	hub.Publish(storetest.Change(t, TableWorkImages, realtime.Insert, img, nil))

	held, _ := s.Get(row.ID)
	assert.Equal(t, []string{"https://cdn/r.jpg"}, held.ImageURLs())

	// Echo of an insert already held does not duplicate it.
	hub.Publish(storetest.Change(t, TableWorks, realtime.Insert, row, nil))
	assert.Len(t, s.Works(), 1)

	hub.Publish(storetest.Change(t, TableWorks, realtime.Delete, nil, map[string]any{"id": row.ID}))
	assert.Empty(t, s.Works())

	unsubscribe()
	assert.Zero(t, hub.Subscribers(TableWorks))
	assert.Zero(t, hub.Subscribers(TableWorkImages))
}

func TestWorkStore_ResubscribeReplacesSubscription(t *testing.T) {
	s, _, _, _ := newTestWorkStore(t)
	hub := realtime.NewHub(logger.Discard())

	s.Subscribe(hub)
	s.Subscribe(hub)

	assert.Equal(t, 1, hub.Subscribers(TableWorks))
	assert.Equal(t, 1, hub.Subscribers(TableWorkImages))

	s.Unsubscribe()
	s.Unsubscribe()
	assert.Zero(t, hub.Subscribers(TableWorks))
}
