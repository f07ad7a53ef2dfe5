package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

const defaultWorkSlug = "obra"

// WorkStore holds works newest first, each with its category name and
// images.
type WorkStore struct {
	table   WorkTable
	images  ImageRemover
	logger  *logger.Logger
	metrics *metrics.Metrics
	list    *collection[domain.Work]

	indexMu sync.RWMutex
	indexer SearchIndexer

	subMu sync.Mutex
	subs  subscriptions
}

// NewWorkStore creates an empty WorkStore.
func NewWorkStore(table WorkTable, remover ImageRemover, log *logger.Logger, m *metrics.Metrics) *WorkStore {
	return &WorkStore{
		table:   table,
		images:  remover,
		logger:  log.Component("works"),
		metrics: m,
		list:    newCollection(func(w domain.Work) uuid.UUID { return w.ID }, nil),
		indexer: NoopSearchIndexer{},
	}
}

// SetSearchIndexer sets the index kept in sync with the store. It is set
// after creation because the index is rebuilt from the store's first fetch.
func (s *WorkStore) SetSearchIndexer(indexer SearchIndexer) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.indexer = indexer
}

// Works returns a copy of the current list.
func (s *WorkStore) Works() []domain.Work { return s.list.snapshot() }

// Len returns the number of works held.
func (s *WorkStore) Len() int { return s.list.len() }

// Loading reports whether an action is in flight.
func (s *WorkStore) Loading() bool { return s.list.isLoading() }

// Err returns the error of the last action, or nil.
func (s *WorkStore) Err() error { return s.list.lastErr() }

// Get returns the held work with id.
func (s *WorkStore) Get(id uuid.UUID) (domain.Work, bool) { return s.list.get(id) }

// FetchAll replaces the list with every work, newest first.
func (s *WorkStore) FetchAll(ctx context.Context) (_ []domain.Work, err error) {
	defer s.list.begin()(&err)

	recs, err := s.table.ListWorks(ctx)
	if err != nil {
		return nil, s.fail("fetch", err)
	}
	works := make([]domain.Work, 0, len(recs))
	for _, rec := range recs {
		works = append(works, domain.NewWork(rec))
	}
	s.list.replace(works)
	return works, nil
}

// FetchByID reads a single work.
func (s *WorkStore) FetchByID(ctx context.Context, id uuid.UUID) (_ domain.Work, err error) {
	defer s.list.begin()(&err)

	rec, err := s.table.GetWork(ctx, id)
	if err != nil {
		return domain.Work{}, s.fail("fetch", err, "work_id", id)
	}
	return domain.NewWork(rec), nil
}

// FetchBySlug reads the work with slug.
func (s *WorkStore) FetchBySlug(ctx context.Context, slug string) (_ domain.Work, err error) {
	defer s.list.begin()(&err)

	rec, err := s.table.GetWorkBySlug(ctx, slug)
	if err != nil {
		return domain.Work{}, s.fail("fetch", err, "slug", slug)
	}
	return domain.NewWork(rec), nil
}

// FetchByIDs reads works in the order of ids. Unknown ids are skipped.
func (s *WorkStore) FetchByIDs(ctx context.Context, ids []uuid.UUID) (_ []domain.Work, err error) {
	defer s.list.begin()(&err)

	if len(ids) == 0 {
		return []domain.Work{}, nil
	}
	recs, err := s.table.ListWorksByID(ctx, ids)
	if err != nil {
		return nil, s.fail("fetch", err)
	}
	byID := make(map[uuid.UUID]domain.Work, len(recs))
	for _, rec := range recs {
		byID[rec.ID] = domain.NewWork(rec)
	}
	works := make([]domain.Work, 0, len(recs))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			works = append(works, w)
		}
	}
	return works, nil
}

// Create inserts a work under a unique slug and prepends it. The stored
// row is read back through the joined query so the category name is set.
func (s *WorkStore) Create(ctx context.Context, f domain.WorkFields) (_ domain.Work, err error) {
	defer s.list.begin()(&err)

	base := domain.Slugify(f.Slug)
	if base == "" {
		base = domain.Slugify(f.Title)
	}
	f.Slug, err = s.uniqueSlug(ctx, base, "")
	if err != nil {
		return domain.Work{}, s.fail("create", err)
	}

	row, err := s.table.InsertWork(ctx, f)
	if err != nil {
		return domain.Work{}, s.fail("create", err, "slug", f.Slug)
	}
	rec, err := s.table.GetWork(ctx, row.ID)
	if err != nil {
		return domain.Work{}, s.fail("create", err, "work_id", row.ID)
	}

	w := domain.NewWork(rec)
	s.list.insert(w)
	s.index(ctx, w)
	s.logger.Info("work created", "work_id", w.ID, "slug", w.Slug)
	return w, nil
}

// Update overwrites a work's fields. The slug is regenerated from the
// title when the title changed or no slug was supplied; a supplied slug is
// normalized and made unique.
func (s *WorkStore) Update(ctx context.Context, id uuid.UUID, f domain.WorkFields) (_ domain.Work, err error) {
	defer s.list.begin()(&err)

	current, ok := s.list.get(id)
	if !ok {
		rec, err := s.table.GetWork(ctx, id)
		if err != nil {
			return domain.Work{}, s.fail("update", err, "work_id", id)
		}
		current = domain.NewWork(rec)
	}

	base := domain.Slugify(f.Slug)
	if base == "" || strings.TrimSpace(f.Title) != strings.TrimSpace(current.Title) {
		base = domain.Slugify(f.Title)
	}
	f.Slug, err = s.uniqueSlug(ctx, base, current.Slug)
	if err != nil {
		return domain.Work{}, s.fail("update", err, "work_id", id)
	}

	if _, err := s.table.UpdateWork(ctx, id, f); err != nil {
		return domain.Work{}, s.fail("update", err, "work_id", id)
	}
	return s.reload(ctx, id, "update")
}

// Delete removes a work and its image rows in one transaction, then
// removes the stored image objects. Object removal failures are logged and
// counted but do not fail the delete.
func (s *WorkStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer s.list.begin()(&err)

	removed, err := s.table.DeleteWork(ctx, id)
	if err != nil {
		return s.fail("delete", err, "work_id", id)
	}

	s.list.remove(id)
	s.unindex(ctx, id)
	for _, img := range removed {
		s.removeObject(ctx, img.URL)
	}
	s.logger.Info("work deleted", "work_id", id, "images", len(removed))
	return nil
}

// AddImage attaches a stored image to a work.
func (s *WorkStore) AddImage(ctx context.Context, img domain.WorkImageRow) (_ domain.WorkImage, err error) {
	defer s.list.begin()(&err)

	row, err := s.table.InsertWorkImage(ctx, img)
	if err != nil {
		return domain.WorkImage{}, s.fail("add image", err, "work_id", img.WorkID)
	}
	if _, err := s.reload(ctx, img.WorkID, "add image"); err != nil {
		return domain.WorkImage{}, err
	}
	return domain.NewWorkImage(row), nil
}

// DeleteImage detaches the image at url from a work and removes the stored
// object best-effort.
func (s *WorkStore) DeleteImage(ctx context.Context, workID uuid.UUID, url string) (err error) {
	defer s.list.begin()(&err)

	removed, err := s.table.DeleteWorkImages(ctx, workID, []string{url})
	if err != nil {
		return s.fail("delete image", err, "work_id", workID)
	}
	if len(removed) == 0 {
		return s.fail("delete image", domainerrors.NotFoundf("image %s not found on work %s", url, workID), "work_id", workID)
	}
	s.removeObject(ctx, url)
	_, err = s.reload(ctx, workID, "delete image")
	return err
}

// SetPrimaryImage flags imageID as the work's primary image.
func (s *WorkStore) SetPrimaryImage(ctx context.Context, workID, imageID uuid.UUID) (err error) {
	defer s.list.begin()(&err)

	if err := s.table.SetPrimaryImage(ctx, workID, imageID); err != nil {
		return s.fail("set primary image", err, "work_id", workID, "image_id", imageID)
	}
	_, err = s.reload(ctx, workID, "set primary image")
	return err
}

// ReorderImages sets image positions to their index in imageIDs.
func (s *WorkStore) ReorderImages(ctx context.Context, workID uuid.UUID, imageIDs []uuid.UUID) (err error) {
	defer s.list.begin()(&err)

	if err := s.table.ReorderImages(ctx, workID, imageIDs); err != nil {
		return s.fail("reorder images", err, "work_id", workID)
	}
	_, err = s.reload(ctx, workID, "reorder images")
	return err
}

// Subscribe follows changes on works and their images. Subscribing again
// releases the previous subscription first.
func (s *WorkStore) Subscribe(sub Subscriber) Unsubscribe {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subs.replace(
		sub.Subscribe(TableWorks, s.onWorkChange),
		sub.Subscribe(TableWorkImages, s.onImageChange),
	)
	return s.Unsubscribe
}

// Unsubscribe releases the store's realtime subscription.
func (s *WorkStore) Unsubscribe() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs.release()
}

func (s *WorkStore) onWorkChange(c realtime.Change) {
	s.metrics.ChangeReceived(c.Table, string(c.Type))

	id, err := changeID(c)
	if err != nil {
		s.logger.WithError(err).Warn("malformed work change", "type", c.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), changeTimeout)
	defer cancel()

	switch c.Type {
	case realtime.Delete:
		s.list.remove(id)
		s.unindex(ctx, id)
	case realtime.Insert, realtime.Update:
		// Change rows carry no category name or images; re-read the joined row.
		rec, err := s.table.GetWork(ctx, id)
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			s.list.remove(id)
			return
		}
		if err != nil {
			s.logger.WithError(err).Warn("failed to re-read changed work", "work_id", id)
			return
		}
		w := domain.NewWork(rec)
		if c.Type == realtime.Insert {
			s.list.insert(w)
		} else {
			s.list.update(w)
		}
		s.index(ctx, w)
	}
}

func (s *WorkStore) onImageChange(c realtime.Change) {
	s.metrics.ChangeReceived(c.Table, string(c.Type))

	var row struct {
		WorkID uuid.UUID `json:"obra_id"`
	}
	var err error
	if c.HasNew() {
		err = c.DecodeNew(&row)
	} else {
		err = c.DecodeOld(&row)
	}
	if err != nil || row.WorkID == uuid.Nil {
		// Truncated image changes carry only the image id.
		s.logger.Debug("image change without work id", "type", c.Type, "truncated", c.Truncated)
		return
	}
	if _, ok := s.list.get(row.WorkID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), changeTimeout)
	defer cancel()
	if rec, err := s.table.GetWork(ctx, row.WorkID); err == nil {
		w := domain.NewWork(rec)
		s.list.update(w)
		s.index(ctx, w)
	}
}

// reload re-reads a work and replaces the held copy.
func (s *WorkStore) reload(ctx context.Context, id uuid.UUID, action string) (domain.Work, error) {
	rec, err := s.table.GetWork(ctx, id)
	if err != nil {
		return domain.Work{}, s.fail(action, err, "work_id", id)
	}
	w := domain.NewWork(rec)
	s.list.update(w)
	s.index(ctx, w)
	return w, nil
}

// uniqueSlug suffixes base until it is free. own is the slug of the work
// being updated, which does not collide with itself.
func (s *WorkStore) uniqueSlug(ctx context.Context, base, own string) (string, error) {
	if base == "" {
		base = defaultWorkSlug
	}
	existing, err := s.table.ListSlugs(ctx, base)
	if err != nil {
		return "", err
	}
	if own != "" {
		existing = slices.DeleteFunc(existing, func(slug string) bool { return slug == own })
	}
	return domain.EnsureUniqueSlug(base, existing), nil
}

func (s *WorkStore) removeObject(ctx context.Context, url string) {
	if err := s.images.Delete(ctx, url, images.BucketWorks); err != nil {
		s.metrics.CleanupFailed(images.BucketWorks)
		s.logger.WithError(err).Warn("failed to remove work image object", "url", url)
	}
}

func (s *WorkStore) index(ctx context.Context, w domain.Work) {
	s.indexMu.RLock()
	indexer := s.indexer
	s.indexMu.RUnlock()
	if err := indexer.IndexWork(ctx, w); err != nil {
		s.logger.WithError(err).Warn("failed to index work", "work_id", w.ID)
	}
}

func (s *WorkStore) unindex(ctx context.Context, id uuid.UUID) {
	s.indexMu.RLock()
	indexer := s.indexer
	s.indexMu.RUnlock()
	if err := indexer.DeleteWork(ctx, id); err != nil {
		s.logger.WithError(err).Warn("failed to remove work from index", "work_id", id)
	}
}

func (s *WorkStore) fail(action string, err error, attrs ...any) error {
	s.metrics.StoreFailed("works", action)
	s.logger.WithError(err).Error("work "+action+" failed", attrs...)
	return err
}
