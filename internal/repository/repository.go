// internal/repository/repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/database"
)

// Repository owns the connection pool and hands out Queries bound either
// to the pool or to a transaction.
type Repository struct {
	*Queries
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{
		Queries: &Queries{q: db, dialect: db.DriverName()},
		db:      db,
	}
}

// Queries runs statements against a pool or a single transaction
type Queries struct {
	q       sqlx.ExtContext
	dialect string
}

// WithTx runs fn inside one transaction. Any error from fn, or a panic,
// rolls back every statement fn issued.
func (r *Repository) WithTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperr.ErrTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Queries{q: tx, dialect: r.dialect}); err != nil {
		return rollback(tx, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", apperr.ErrTransaction, err)
	}
	return nil
}

// Helper function for transaction rollback
func rollback(tx *sqlx.Tx, err error) error {
	if database.IsRetryable(err) {
		err = fmt.Errorf("%w: %v", apperr.ErrTransaction, err)
	}
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

func (q *Queries) builder() *entsql.DialectBuilder {
	return entsql.Dialect(q.dialect)
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q.q, dest, q.q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.q, dest, q.q.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.q.ExecContext(ctx, q.q.Rebind(query), args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", apperr.ErrConflict, err)
		}
		return 0, err
	}
	return res.RowsAffected()
}

// execBuilt runs a statement rendered by ent's builder, which already
// uses the dialect's placeholders.
func (q *Queries) execBuilt(ctx context.Context, query string, args []any) (int64, error) {
	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
