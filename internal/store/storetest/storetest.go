// Package storetest provides in-memory tables and helpers for exercising
// the stores without a database.
package storetest

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

// WorkTable is an in-memory store.WorkTable. Category names are joined
// from the names registered with SetCategory.
type WorkTable struct {
	mu         sync.Mutex
	works      map[uuid.UUID]domain.WorkRow
	images     map[uuid.UUID][]domain.WorkImageRow
	categories map[uuid.UUID]string
	clock      time.Time

	// FailDelete, when set, is returned by DeleteWork.
	FailDelete error
}

// NewWorkTable returns an empty WorkTable.
func NewWorkTable() *WorkTable {
	return &WorkTable{
		works:      make(map[uuid.UUID]domain.WorkRow),
		images:     make(map[uuid.UUID][]domain.WorkImageRow),
		categories: make(map[uuid.UUID]string),
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *WorkTable) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// SetCategory registers a category name for joined reads.
func (f *WorkTable) SetCategory(id uuid.UUID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[id] = name
}

// Images returns the image rows held for a work.
func (f *WorkTable) Images(workID uuid.UUID) []domain.WorkImageRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.images[workID])
}

func (f *WorkTable) record(row domain.WorkRow) domain.WorkRecord {
	rec := domain.WorkRecord{WorkRow: row, Images: slices.Clone(f.images[row.ID])}
	if row.CategoryID != nil {
		if name, ok := f.categories[*row.CategoryID]; ok {
			rec.CategoryName = &name
		}
	}
	return rec
}

func (f *WorkTable) ListWorks(context.Context) ([]domain.WorkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := make([]domain.WorkRecord, 0, len(f.works))
	for _, row := range f.works {
		recs = append(recs, f.record(row))
	}
	slices.SortFunc(recs, func(a, b domain.WorkRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return recs, nil
}

func (f *WorkTable) ListWorksByID(_ context.Context, ids []uuid.UUID) ([]domain.WorkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recs []domain.WorkRecord
	for _, id := range ids {
		if row, ok := f.works[id]; ok {
			recs = append(recs, f.record(row))
		}
	}
	return recs, nil
}

func (f *WorkTable) GetWork(_ context.Context, id uuid.UUID) (domain.WorkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.works[id]
	if !ok {
		return domain.WorkRecord{}, domainerrors.NotFoundf("work %s not found", id)
	}
	return f.record(row), nil
}

func (f *WorkTable) GetWorkBySlug(_ context.Context, slug string) (domain.WorkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.works {
		if row.Slug == slug {
			return f.record(row), nil
		}
	}
	return domain.WorkRecord{}, domainerrors.NotFoundf("work %s not found", slug)
}

func (f *WorkTable) ListSlugs(_ context.Context, base string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slugs []string
	for _, row := range f.works {
		if row.Slug == base || strings.HasPrefix(row.Slug, base+"-") {
			slugs = append(slugs, row.Slug)
		}
	}
	return slugs, nil
}

func (f *WorkTable) InsertWork(_ context.Context, w domain.WorkFields) (domain.WorkRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.works {
		if row.Slug == w.Slug {
			return domain.WorkRow{}, domainerrors.Conflictf("work %s already exists", w.Slug)
		}
	}
	now := f.tick()
	row := domain.WorkRow{
		ID:          uuid.New(),
		Title:       w.Title,
		Description: w.Description,
		Year:        w.Year,
		Width:       w.Width,
		Height:      w.Height,
		CategoryID:  w.CategoryID,
		Featured:    w.Featured,
		Slug:        w.Slug,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.works[row.ID] = row
	return row, nil
}

func (f *WorkTable) UpdateWork(_ context.Context, id uuid.UUID, w domain.WorkFields) (domain.WorkRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.works[id]
	if !ok {
		return domain.WorkRow{}, domainerrors.NotFoundf("work %s not found", id)
	}
	row.Title, row.Description, row.Year = w.Title, w.Description, w.Year
	row.Width, row.Height, row.CategoryID = w.Width, w.Height, w.CategoryID
	row.Featured, row.Slug, row.UpdatedAt = w.Featured, w.Slug, f.tick()
	f.works[id] = row
	return row, nil
}

func (f *WorkTable) DeleteWork(_ context.Context, id uuid.UUID) ([]domain.WorkImageRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDelete != nil {
		return nil, f.FailDelete
	}
	if _, ok := f.works[id]; !ok {
		return nil, domainerrors.NotFoundf("work %s not found", id)
	}
	removed := f.images[id]
	delete(f.images, id)
	delete(f.works, id)
	return removed, nil
}

func (f *WorkTable) InsertWorkImage(_ context.Context, img domain.WorkImageRow) (domain.WorkImageRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.works[img.WorkID]; !ok {
		return domain.WorkImageRow{}, domainerrors.NotFoundf("work %s not found", img.WorkID)
	}
	img.ID = uuid.New()
	img.CreatedAt = f.tick()
	f.images[img.WorkID] = append(f.images[img.WorkID], img)
	return img, nil
}

func (f *WorkTable) DeleteWorkImages(_ context.Context, workID uuid.UUID, urls []string) ([]domain.WorkImageRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []domain.WorkImageRow
	f.images[workID] = slices.DeleteFunc(f.images[workID], func(img domain.WorkImageRow) bool {
		if slices.Contains(urls, img.URL) {
			removed = append(removed, img)
			return true
		}
		return false
	})
	return removed, nil
}

func (f *WorkTable) SetPrimaryImage(_ context.Context, workID, imageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.images[workID] {
		img := &f.images[workID][i]
		img.IsPrimary = img.ID == imageID
		found = found || img.IsPrimary
	}
	if !found {
		return domainerrors.NotFoundf("image %s not found", imageID)
	}
	return nil
}

func (f *WorkTable) ReorderImages(_ context.Context, workID uuid.UUID, imageIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pos, id := range imageIDs {
		i := slices.IndexFunc(f.images[workID], func(img domain.WorkImageRow) bool { return img.ID == id })
		if i < 0 {
			return domainerrors.NotFoundf("image %s not found", id)
		}
		f.images[workID][i].Position = pos
	}
	return nil
}

// InspirationTable is an in-memory store.InspirationTable.
type InspirationTable struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]domain.InspirationRow
	colors map[uuid.UUID][]domain.ColorRow
	clock  time.Time
}

// NewInspirationTable returns an empty InspirationTable.
func NewInspirationTable() *InspirationTable {
	return &InspirationTable{
		rows:   make(map[uuid.UUID]domain.InspirationRow),
		colors: make(map[uuid.UUID][]domain.ColorRow),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Link sets the colors joined into an inspiration's reads.
func (f *InspirationTable) Link(id uuid.UUID, colors ...domain.ColorRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.colors[id] = colors
}

// ColorsOf returns the colors linked to an inspiration.
func (f *InspirationTable) ColorsOf(id uuid.UUID) []domain.ColorRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.colors[id])
}

// Row returns the stored row of an inspiration.
func (f *InspirationTable) Row(id uuid.UUID) (domain.InspirationRow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	return row, ok
}

func (f *InspirationTable) list(keep func(id uuid.UUID) bool) []domain.InspirationRecord {
	var recs []domain.InspirationRecord
	for id, row := range f.rows {
		if keep(id) {
			recs = append(recs, domain.InspirationRecord{InspirationRow: row, Colors: f.colors[id]})
		}
	}
	slices.SortFunc(recs, func(a, b domain.InspirationRecord) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return recs
}

func (f *InspirationTable) ListInspirations(context.Context) ([]domain.InspirationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(uuid.UUID) bool { return true }), nil
}

func (f *InspirationTable) ListInspirationsByColor(_ context.Context, colorID uuid.UUID) ([]domain.InspirationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(id uuid.UUID) bool {
		return slices.ContainsFunc(f.colors[id], func(c domain.ColorRow) bool { return c.ID == colorID })
	}), nil
}

func (f *InspirationTable) GetInspiration(_ context.Context, id uuid.UUID) (domain.InspirationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.InspirationRecord{}, domainerrors.NotFoundf("inspiration %s not found", id)
	}
	return domain.InspirationRecord{InspirationRow: row, Colors: f.colors[id]}, nil
}

func (f *InspirationTable) InsertInspiration(_ context.Context, in domain.InspirationFields) (domain.InspirationRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	row := domain.InspirationRow{ID: uuid.New(), ImageURL: in.ImageURL, CreatedAt: f.clock}
	f.rows[row.ID] = row
	return row, nil
}

func (f *InspirationTable) UpdateInspiration(_ context.Context, id uuid.UUID, in domain.InspirationFields) (domain.InspirationRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.InspirationRow{}, domainerrors.NotFoundf("inspiration %s not found", id)
	}
	row.ImageURL = in.ImageURL
	f.rows[id] = row
	return row, nil
}

func (f *InspirationTable) DeleteInspiration(_ context.Context, id uuid.UUID) (domain.InspirationRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.InspirationRow{}, domainerrors.NotFoundf("inspiration %s not found", id)
	}
	delete(f.colors, id)
	delete(f.rows, id)
	return row, nil
}

// ColorTable is an in-memory store.ColorTable. Links saved through it are
// mirrored into the inspiration table given to LinkTo.
type ColorTable struct {
	mu           sync.Mutex
	rows         map[uuid.UUID]domain.ColorRow
	linked       map[uuid.UUID][]uuid.UUID
	inspirations *InspirationTable
}

// NewColorTable returns a ColorTable holding rows.
func NewColorTable(rows ...domain.ColorRow) *ColorTable {
	f := &ColorTable{rows: make(map[uuid.UUID]domain.ColorRow), linked: make(map[uuid.UUID][]uuid.UUID)}
	for _, row := range rows {
		f.rows[row.ID] = row
	}
	return f
}

func (f *ColorTable) ListColors(context.Context) ([]domain.ColorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]domain.ColorRow, 0, len(f.rows))
	for _, row := range f.rows {
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *ColorTable) GetColor(_ context.Context, id uuid.UUID) (domain.ColorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.ColorRow{}, domainerrors.NotFoundf("color %s not found", id)
	}
	return row, nil
}

func (f *ColorTable) InsertColor(_ context.Context, in domain.ColorFields) (domain.ColorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := domain.ColorRow{ID: uuid.New(), Name: in.Name, Hex: in.Hex, Position: domain.DefaultColorPosition}
	if in.Position != nil {
		row.Position = *in.Position
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *ColorTable) UpdateColor(_ context.Context, id uuid.UUID, in domain.ColorFields) (domain.ColorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.ColorRow{}, domainerrors.NotFoundf("color %s not found", id)
	}
	row.Name, row.Hex = in.Name, in.Hex
	if in.Position != nil {
		row.Position = *in.Position
	}
	f.rows[id] = row
	return row, nil
}

func (f *ColorTable) DeleteColor(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return domainerrors.NotFoundf("color %s not found", id)
	}
	delete(f.rows, id)
	return nil
}

func (f *ColorTable) ListInspirationColors(_ context.Context, id uuid.UUID) ([]domain.ColorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []domain.ColorRow
	for _, colorID := range f.linked[id] {
		rows = append(rows, f.rows[colorID])
	}
	return rows, nil
}

func (f *ColorTable) ReplaceInspirationColors(_ context.Context, id uuid.UUID, colorIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linked[id] = slices.Clone(colorIDs)
	rows := make([]domain.ColorRow, 0, len(colorIDs))
	for _, colorID := range colorIDs {
		rows = append(rows, f.rows[colorID])
	}
	if f.inspirations != nil {
		f.inspirations.Link(id, rows...)
	}
	return nil
}

// LinkTo mirrors saved inspiration colors into insp.
func (f *ColorTable) LinkTo(insp *InspirationTable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspirations = insp
}

// CategoryTable is an in-memory store.CategoryTable that counts reads.
type CategoryTable struct {
	mu    sync.Mutex
	rows  []domain.CategoryRow
	reads int
}

func (f *CategoryTable) ListCategories(context.Context) ([]domain.CategoryRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return slices.Clone(f.rows), nil
}

// Set replaces the categories.
func (f *CategoryTable) Set(rows ...domain.CategoryRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

// Reads returns how many times the categories were listed.
func (f *CategoryTable) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Remover records removed objects as "bucket/url" and fails with Err when
// it is set.
type Remover struct {
	mu      sync.Mutex
	Err     error
	removed []string
}

func (f *Remover) Delete(_ context.Context, url, bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, bucket+"/"+url)
	return f.Err
}

// Calls returns the removed objects in order.
func (f *Remover) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.removed)
}

// Change builds a realtime change with the row images encoded as JSON.
func Change(t *testing.T, table string, typ realtime.ChangeType, newRow, oldRow any) realtime.Change {
	t.Helper()
	c := realtime.Change{Table: table, Type: typ}
	if newRow != nil {
		data, err := json.Marshal(newRow)
		require.NoError(t, err)
		c.New = data
	}
	if oldRow != nil {
		data, err := json.Marshal(oldRow)
		require.NoError(t, err)
		c.Old = data
	}
	return c
}
