package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository reads and writes the gallery tables. Methods join the
// transaction carried by ctx when there is one.
type Repository struct {
	db DB
	tx *TxManager
}

// NewRepository creates a Repository over db.
func NewRepository(db DB) *Repository {
	return &Repository{db: db, tx: NewTxManager(db)}
}

// RunInTx runs fn in a transaction shared by every repository call made
// with the context it receives.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.tx.RunInTx(ctx, fn)
}

func (r *Repository) q(ctx context.Context) Querier {
	return querierFromCtx(ctx, r.db)
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func build(b sqlizer) (string, []any, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return query, args, nil
}
