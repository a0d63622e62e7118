package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

// NewPostgresRepositories returns PostgreSQL implementations of every repository.
func NewPostgresRepositories(pool *pgxpool.Pool, logger zerolog.Logger) Repositories {
	return Repositories{
		Equipment:  NewEquipmentRepository(pool, logger),
		Categories: NewCategoryRepository(pool, logger),
		Coupons:    NewCouponRepository(pool, logger),
		Settings:   NewSettingsRepository(pool, logger),
		Bookings:   NewBookingRepository(pool, logger),
	}
}

// inTx runs fn inside a transaction, committing when it returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		// Rollback after Commit returns pgx.ErrTxClosed, which is expected.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
