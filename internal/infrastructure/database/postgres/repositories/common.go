// Package repositories provides the PostgreSQL implementations of the domain
// repository interfaces. Every aggregate write runs in a single transaction;
// sub-collections are replaced wholesale, never merged row by row.
package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ipfolio/ipfolio/pkg/errors"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx, letting read helpers run
// inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// inTx runs fn inside one transaction, rolling back on error.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "beginning transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "committing transaction")
	}
	return nil
}

// noRows reports whether err is the pgx empty-result sentinel.
func noRows(err error) bool {
	return stderrors.Is(err, pgx.ErrNoRows)
}
