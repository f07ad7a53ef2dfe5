package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// mapError converts pgx errors into coded domain errors. Context errors pass
// through unchanged so callers can tell a cancellation from a failure.
func mapError(err error, entity string, key any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %v: %w", entity, key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domainerrors.NotFoundf("%s %v not found", entity, key)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domainerrors.Wrapf(err, domainerrors.CodeConflict, "%s %v already exists", entity, key)
		case "23503": // foreign_key_violation
			return domainerrors.Wrapf(err, domainerrors.CodeNotFound, "%s %v references a missing row", entity, key)
		case "23514", "22P02": // check_violation, invalid_text_representation
			return domainerrors.Wrapf(err, domainerrors.CodeValidation, "%s %v is invalid", entity, key)
		}
	}

	return domainerrors.Wrapf(err, domainerrors.CodeInternal, "%s %v", entity, key)
}
