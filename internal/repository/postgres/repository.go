package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bafnalights-dot/stock/internal/model"
)

const (
	pgUniqueViolation   = "23505"
	pgCheckViolation    = "23514"
	pgNumericOutOfRange = "22003"
)

type txKey struct{}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// InTx runs fn inside a READ COMMITTED transaction. Repository calls made with the
// ctx handed to fn join that transaction; nested calls reuse the outer one.
func (r *repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *repository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

func (r *repository) exec(ctx context.Context, b sq.Sqlizer) (pgconn.CommandTag, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return r.q(ctx).Exec(ctx, sqlStr, args...)
}

func (r *repository) queryRow(ctx context.Context, b sq.Sqlizer) (pgx.Row, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return r.q(ctx).QueryRow(ctx, sqlStr, args...), nil
}

func (r *repository) query(ctx context.Context, b sq.Sqlizer) (pgx.Rows, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return r.q(ctx).Query(ctx, sqlStr, args...)
}

func mapErr(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", model.ErrConflict, pgErr.ConstraintName)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", model.ErrValidation, pgErr.ConstraintName)
	case pgNumericOutOfRange:
		return fmt.Errorf("%w: %s", model.ErrInvalidQuantity, pgErr.Message)
	}
	return err
}
