package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

var (
	workColumns = []string{
		"id", "titulo", "descripcion", "anio", "ancho", "alto",
		"categoria_id", "destacado", "slug", "created_at", "updated_at",
	}
	imageColumns = []string{
		"id", "obra_id", "url", "posicion", "es_principal", "blurhash", "created_at",
	}
	workReturning  = "RETURNING " + strings.Join(workColumns, ", ")
	imageReturning = "RETURNING " + strings.Join(imageColumns, ", ")
)

type workScan struct {
	domain.WorkRow
	CategoryName *string `db:"categoria_nombre"`
}

func worksQuery() sq.SelectBuilder {
	cols := make([]string, 0, len(workColumns)+1)
	for _, c := range workColumns {
		cols = append(cols, "o."+c)
	}
	cols = append(cols, "c.nombre AS categoria_nombre")
	return psql.Select(cols...).
		From("obras o").
		LeftJoin("categorias c ON c.id = o.categoria_id")
}

// ListWorks returns every work with its category name and images, newest first.
func (r *Repository) ListWorks(ctx context.Context) ([]domain.WorkRecord, error) {
	return r.selectWorks(ctx, worksQuery().OrderBy("o.created_at DESC"))
}

// ListWorksByID returns the works whose ids are in ids, newest first.
func (r *Repository) ListWorksByID(ctx context.Context, ids []uuid.UUID) ([]domain.WorkRecord, error) {
	if len(ids) == 0 {
		return []domain.WorkRecord{}, nil
	}
	return r.selectWorks(ctx, worksQuery().Where(sq.Eq{"o.id": ids}).OrderBy("o.created_at DESC"))
}

// GetWork returns one work with its category name and images.
func (r *Repository) GetWork(ctx context.Context, id uuid.UUID) (domain.WorkRecord, error) {
	recs, err := r.selectWorks(ctx, worksQuery().Where(sq.Eq{"o.id": id}))
	if err != nil {
		return domain.WorkRecord{}, err
	}
	if len(recs) == 0 {
		return domain.WorkRecord{}, domainerrors.NotFoundf("work %s not found", id)
	}
	return recs[0], nil
}

// GetWorkBySlug returns the single work whose slug matches. More than one
// match is reported as a conflict.
func (r *Repository) GetWorkBySlug(ctx context.Context, slug string) (domain.WorkRecord, error) {
	recs, err := r.selectWorks(ctx, worksQuery().Where(sq.Eq{"o.slug": slug}).Limit(2))
	if err != nil {
		return domain.WorkRecord{}, err
	}
	switch len(recs) {
	case 0:
		return domain.WorkRecord{}, domainerrors.NotFoundf("work with slug %q not found", slug)
	case 1:
		return recs[0], nil
	default:
		return domain.WorkRecord{}, domainerrors.Conflictf("slug %q matches more than one work", slug)
	}
}

// ListSlugs returns the slugs equal to base or of the form base-N.
func (r *Repository) ListSlugs(ctx context.Context, base string) ([]string, error) {
	query, args, err := build(psql.Select("slug").From("obras").Where(sq.Or{
		sq.Eq{"slug": base},
		sq.Like{"slug": base + "-%"},
	}))
	if err != nil {
		return nil, err
	}

	var slugs []string
	if err := pgxscan.Select(ctx, r.q(ctx), &slugs, query, args...); err != nil {
		return nil, mapError(err, "slug", base)
	}
	return slugs, nil
}

// InsertWork inserts a work row. Slug must already be unique.
func (r *Repository) InsertWork(ctx context.Context, f domain.WorkFields) (domain.WorkRow, error) {
	query, args, err := build(psql.Insert("obras").
		Columns("titulo", "descripcion", "anio", "ancho", "alto", "categoria_id", "destacado", "slug").
		Values(f.Title, f.Description, f.Year, f.Width, f.Height, f.CategoryID, f.Featured, f.Slug).
		Suffix(workReturning))
	if err != nil {
		return domain.WorkRow{}, err
	}

	var row domain.WorkRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.WorkRow{}, mapError(err, "work", f.Slug)
	}
	return row, nil
}

// UpdateWork overwrites the writable columns of a work.
func (r *Repository) UpdateWork(ctx context.Context, id uuid.UUID, f domain.WorkFields) (domain.WorkRow, error) {
	query, args, err := build(psql.Update("obras").
		SetMap(map[string]any{
			"titulo":       f.Title,
			"descripcion":  f.Description,
			"anio":         f.Year,
			"ancho":        f.Width,
			"alto":         f.Height,
			"categoria_id": f.CategoryID,
			"destacado":    f.Featured,
			"slug":         f.Slug,
		}).
		Where(sq.Eq{"id": id}).
		Suffix(workReturning))
	if err != nil {
		return domain.WorkRow{}, err
	}

	var row domain.WorkRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.WorkRow{}, mapError(err, "work", id)
	}
	return row, nil
}

// DeleteWork removes a work and its image rows in one transaction and
// returns the removed image rows so their objects can be cleaned up.
func (r *Repository) DeleteWork(ctx context.Context, id uuid.UUID) ([]domain.WorkImageRow, error) {
	var images []domain.WorkImageRow

	err := r.RunInTx(ctx, func(ctx context.Context) error {
		query, args, err := build(psql.Delete("obras_imagenes").
			Where(sq.Eq{"obra_id": id}).
			Suffix(imageReturning))
		if err != nil {
			return err
		}
		if err := pgxscan.Select(ctx, r.q(ctx), &images, query, args...); err != nil {
			return mapError(err, "work images", id)
		}

		query, args, err = build(psql.Delete("obras").Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		tag, err := r.q(ctx).Exec(ctx, query, args...)
		if err != nil {
			return mapError(err, "work", id)
		}
		if tag.RowsAffected() == 0 {
			return domainerrors.NotFoundf("work %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// InsertWorkImage attaches an uploaded image to a work.
func (r *Repository) InsertWorkImage(ctx context.Context, img domain.WorkImageRow) (domain.WorkImageRow, error) {
	query, args, err := build(psql.Insert("obras_imagenes").
		Columns("obra_id", "url", "posicion", "es_principal", "blurhash").
		Values(img.WorkID, img.URL, img.Position, img.IsPrimary, img.BlurHash).
		Suffix(imageReturning))
	if err != nil {
		return domain.WorkImageRow{}, err
	}

	var row domain.WorkImageRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.WorkImageRow{}, mapError(err, "work image", img.URL)
	}
	return row, nil
}

// DeleteWorkImages removes the image rows of a work matching urls and
// returns the rows removed.
func (r *Repository) DeleteWorkImages(ctx context.Context, workID uuid.UUID, urls []string) ([]domain.WorkImageRow, error) {
	if len(urls) == 0 {
		return []domain.WorkImageRow{}, nil
	}
	query, args, err := build(psql.Delete("obras_imagenes").
		Where(sq.Eq{"obra_id": workID, "url": urls}).
		Suffix(imageReturning))
	if err != nil {
		return nil, err
	}

	var rows []domain.WorkImageRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "work images", workID)
	}
	return rows, nil
}

// SetPrimaryImage flags imageID as the primary image of a work and clears
// the flag on its siblings.
func (r *Repository) SetPrimaryImage(ctx context.Context, workID, imageID uuid.UUID) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		query, args, err := build(psql.Update("obras_imagenes").
			Set("es_principal", false).
			Where(sq.Eq{"obra_id": workID, "es_principal": true}))
		if err != nil {
			return err
		}
		if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
			return mapError(err, "work images", workID)
		}

		query, args, err = build(psql.Update("obras_imagenes").
			Set("es_principal", true).
			Where(sq.Eq{"id": imageID, "obra_id": workID}))
		if err != nil {
			return err
		}
		tag, err := r.q(ctx).Exec(ctx, query, args...)
		if err != nil {
			return mapError(err, "work image", imageID)
		}
		if tag.RowsAffected() == 0 {
			return domainerrors.NotFoundf("image %s not found on work %s", imageID, workID)
		}
		return nil
	})
}

// ReorderImages sets each image's position to its index in imageIDs.
func (r *Repository) ReorderImages(ctx context.Context, workID uuid.UUID, imageIDs []uuid.UUID) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		for pos, imageID := range imageIDs {
			query, args, err := build(psql.Update("obras_imagenes").
				Set("posicion", pos).
				Where(sq.Eq{"id": imageID, "obra_id": workID}))
			if err != nil {
				return err
			}
			tag, err := r.q(ctx).Exec(ctx, query, args...)
			if err != nil {
				return mapError(err, "work image", imageID)
			}
			if tag.RowsAffected() == 0 {
				return domainerrors.NotFoundf("image %s not found on work %s", imageID, workID)
			}
		}
		return nil
	})
}

func (r *Repository) selectWorks(ctx context.Context, qb sq.SelectBuilder) ([]domain.WorkRecord, error) {
	query, args, err := build(qb)
	if err != nil {
		return nil, err
	}

	var rows []workScan
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "works", "query")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	images, err := r.imagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.WorkRecord, 0, len(rows))
	for _, row := range rows {
		imgs := images[row.ID]
		if imgs == nil {
			imgs = []domain.WorkImageRow{}
		}
		recs = append(recs, domain.WorkRecord{
			WorkRow:      row.WorkRow,
			CategoryName: row.CategoryName,
			Images:       imgs,
		})
	}
	return recs, nil
}

func (r *Repository) imagesFor(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID][]domain.WorkImageRow, error) {
	out := make(map[uuid.UUID][]domain.WorkImageRow, len(workIDs))
	if len(workIDs) == 0 {
		return out, nil
	}

	query, args, err := build(psql.Select(imageColumns...).
		From("obras_imagenes").
		Where(sq.Eq{"obra_id": workIDs}).
		OrderBy("posicion", "created_at"))
	if err != nil {
		return nil, err
	}

	var rows []domain.WorkImageRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "work images", "query")
	}
	for _, row := range rows {
		out[row.WorkID] = append(out[row.WorkID], row)
	}
	return out, nil
}
