package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/galeriaarte/galeria-server/internal/domain"
	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

const colorReturning = "RETURNING id, nombre, codigo_hex, posicion"

// ListCategories returns every category ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.CategoryRow, error) {
	query, args, err := build(psql.Select("id", "nombre").From("categorias").OrderBy("nombre"))
	if err != nil {
		return nil, err
	}

	var rows []domain.CategoryRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "categories", "query")
	}
	return rows, nil
}

// ListColors returns the palette ordered by position.
func (r *Repository) ListColors(ctx context.Context) ([]domain.ColorRow, error) {
	query, args, err := build(psql.Select("id", "nombre", "codigo_hex", "posicion").
		From("colores").
		OrderBy("posicion", "nombre"))
	if err != nil {
		return nil, err
	}

	var rows []domain.ColorRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, mapError(err, "colors", "query")
	}
	return rows, nil
}

// GetColor returns one color.
func (r *Repository) GetColor(ctx context.Context, id uuid.UUID) (domain.ColorRow, error) {
	query, args, err := build(psql.Select("id", "nombre", "codigo_hex", "posicion").
		From("colores").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.ColorRow{}, err
	}

	var row domain.ColorRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.ColorRow{}, mapError(err, "color", id)
	}
	return row, nil
}

// InsertColor adds a palette color. A nil position becomes
// domain.DefaultColorPosition.
func (r *Repository) InsertColor(ctx context.Context, f domain.ColorFields) (domain.ColorRow, error) {
	pos := domain.DefaultColorPosition
	if f.Position != nil {
		pos = *f.Position
	}

	query, args, err := build(psql.Insert("colores").
		Columns("nombre", "codigo_hex", "posicion").
		Values(f.Name, f.Hex, pos).
		Suffix(colorReturning))
	if err != nil {
		return domain.ColorRow{}, err
	}

	var row domain.ColorRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.ColorRow{}, mapError(err, "color", f.Name)
	}
	return row, nil
}

// UpdateColor overwrites a color's name and hex code, and its position when
// one is given.
func (r *Repository) UpdateColor(ctx context.Context, id uuid.UUID, f domain.ColorFields) (domain.ColorRow, error) {
	set := map[string]any{"nombre": f.Name, "codigo_hex": f.Hex}
	if f.Position != nil {
		set["posicion"] = *f.Position
	}

	query, args, err := build(psql.Update("colores").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix(colorReturning))
	if err != nil {
		return domain.ColorRow{}, err
	}

	var row domain.ColorRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return domain.ColorRow{}, mapError(err, "color", id)
	}
	return row, nil
}

// DeleteColor removes a color and unlinks it from every inspiration.
func (r *Repository) DeleteColor(ctx context.Context, id uuid.UUID) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		query, args, err := build(psql.Delete("inspiraciones_colores").Where(sq.Eq{"color_id": id}))
		if err != nil {
			return err
		}
		if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
			return mapError(err, "color links", id)
		}

		query, args, err = build(psql.Delete("colores").Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		tag, err := r.q(ctx).Exec(ctx, query, args...)
		if err != nil {
			return mapError(err, "color", id)
		}
		if tag.RowsAffected() == 0 {
			return domainerrors.NotFoundf("color %s not found", id)
		}
		return nil
	})
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
