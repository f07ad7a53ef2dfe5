package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

const inspirationReturning = "RETURNING id, imagen_url, created_at"

type inspirationColorScan struct {
	InspirationID uuid.UUID `db:"inspiracion_id"`
	domain.ColorRow
}

func inspirationsQuery() sq.SelectBuilder {
	return psql.Select("id", "imagen_url", "created_at").From("inspiraciones")
}

// ListInspirations returns every inspiration with its colors, newest first.
func (r *Repository) ListInspirations(ctx context.Context) ([]domain.InspirationRecord, error) {
	return r.selectInspirations(ctx, inspirationsQuery().OrderBy("created_at DESC"))
}

// ListInspirationsByColor returns the inspirations tagged with colorID.
func (r *Repository) ListInspirationsByColor(ctx context.Context, colorID uuid.UUID) ([]domain.InspirationRecord, error) {
	return r.selectInspirations(ctx, inspirationsQuery().
		Where(sq.Expr("id IN (SELECT inspiracion_id FROM inspiraciones_colores WHERE color_id = ?)", colorID)).
		OrderBy("created_at DESC"))
}

// GetInspiration returns one inspiration with its colors.
func (r *Repository) GetInspiration(ctx context.Context, id uuid.UUID) (domain.InspirationRecord, error) {
	recs, err := r.selectInspirations(ctx, inspirationsQuery().Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.InspirationRecord{}, err
	}
	if len(recs) == 0 {
		return domain.InspirationRecord{}, domainerrors.NotFoundf("inspiration %s not found", id)
	}
	return recs[0], nil
}

// InsertInspiration inserts an inspiration row.
func (r *Repository) InsertInspiration(ctx context.Context, f domain.InspirationFields) (domain.InspirationRow, error) {
	query, args, err := build(psql.Insert("inspiraciones").
		Columns("imagen_url").
		Values(f.ImageURL).
		Suffix(inspirationReturning))
	if err != nil {
		return domain.InspirationRow{}, err
	}

	var row domain.InspirationRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.InspirationRow{}, mapError(err, "inspiration", "new")
	}
	return row, nil
}

// UpdateInspiration overwrites the image URL of an inspiration.
func (r *Repository) UpdateInspiration(ctx context.Context, id uuid.UUID, f domain.InspirationFields) (domain.InspirationRow, error) {
	query, args, err := build(psql.Update("inspiraciones").
		Set("imagen_url", f.ImageURL).
		Where(sq.Eq{"id": id}).
		Suffix(inspirationReturning))
	if err != nil {
		return domain.InspirationRow{}, err
	}

	var row domain.InspirationRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.InspirationRow{}, mapError(err, "inspiration", id)
	}
	return row, nil
}

// DeleteInspiration removes an inspiration and its color links in one
// transaction and returns the removed row.
func (r *Repository) DeleteInspiration(ctx context.Context, id uuid.UUID) (domain.InspirationRow, error) {
	var row domain.InspirationRow

	err := r.RunInTx(ctx, func(ctx context.Context) error {
		query, args, err := build(psql.Delete("inspiraciones_colores").Where(sq.Eq{"inspiracion_id": id}))
		if err != nil {
			return err
		}
		if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
			return mapError(err, "inspiration colors", id)
		}

		query, args, err = build(psql.Delete("inspiraciones").
			Where(sq.Eq{"id": id}).
			Suffix(inspirationReturning))
		if err != nil {
			return err
		}
		if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
			return mapError(err, "inspiration", id)
		}
		return nil
	})
	return row, err
}

// ListInspirationColors returns the colors of one inspiration in palette order.
func (r *Repository) ListInspirationColors(ctx context.Context, id uuid.UUID) ([]domain.ColorRow, error) {
	byInspiration, err := r.colorsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	colors := byInspiration[id]
	if colors == nil {
		colors = []domain.ColorRow{}
	}
	return colors, nil
}

// ReplaceInspirationColors replaces the color links of an inspiration with
// colorIDs. Duplicates are ignored.
func (r *Repository) ReplaceInspirationColors(ctx context.Context, id uuid.UUID, colorIDs []uuid.UUID) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		query, args, err := build(psql.Delete("inspiraciones_colores").Where(sq.Eq{"inspiracion_id": id}))
		if err != nil {
			return err
		}
		if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
			return mapError(err, "inspiration colors", id)
		}

		if len(colorIDs) == 0 {
			return nil
		}

		ins := psql.Insert("inspiraciones_colores").Columns("inspiracion_id", "color_id")
		seen := make(map[uuid.UUID]struct{}, len(colorIDs))
		for _, colorID := range colorIDs {
			if _, dup := seen[colorID]; dup {
				continue
			}
			seen[colorID] = struct{}{}
			ins = ins.Values(id, colorID)
		}

		query, args, err = build(ins)
		if err != nil {
			return err
		}
		if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
			return mapError(err, "inspiration colors", id)
		}
		return nil
	})
}

func (r *Repository) selectInspirations(ctx context.Context, qb sq.SelectBuilder) ([]domain.InspirationRecord, error) {
	query, args, err := build(qb)
	if err != nil {
		return nil, err
	}

	var rows []domain.InspirationRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "inspirations", "query")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	colors, err := r.colorsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.InspirationRecord, 0, len(rows))
	for _, row := range rows {
		c := colors[row.ID]
		if c == nil {
			c = []domain.ColorRow{}
		}
		recs = append(recs, domain.InspirationRecord{InspirationRow: row, Colors: c})
	}
	return recs, nil
}

func (r *Repository) colorsFor(ctx context.Context, inspirationIDs []uuid.UUID) (map[uuid.UUID][]domain.ColorRow, error) {
	out := make(map[uuid.UUID][]domain.ColorRow, len(inspirationIDs))
	if len(inspirationIDs) == 0 {
		return out, nil
	}

	query, args, err := build(psql.Select("ic.inspiracion_id", "c.id", "c.nombre", "c.codigo_hex", "c.posicion").
		From("inspiraciones_colores ic").
		Join("colores c ON c.id = ic.color_id").
		Where(sq.Eq{"ic.inspiracion_id": inspirationIDs}).
		OrderBy("c.posicion", "c.nombre"))
	if err != nil {
		return nil, err
	}

	var rows []inspirationColorScan
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "inspiration colors", "query")
	}
	for _, row := range rows {
		out[row.InspirationID] = append(out[row.InspirationID], row.ColorRow)
	}
	return out, nil
}
