// Package transaction runs units of work against the write pool.
package transaction

//go:generate go run go.uber.org/mock/mockgen -source=./transaction.go -destination=./mocks/transaction_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"fmt"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/shared/constant"
	"roombook/shared/failure"
	"roombook/shared/logger"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back otherwise. The
	// returned error is fn's error, or the commit error, marked with
	// failure.Transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error
	// TryAdvisoryLock takes a transaction scoped advisory lock without waiting.
	TryAdvisoryLock(ctx context.Context, tx *sqlx.Tx, key int64) (bool, error)
}

type transactorImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Transactor {
	return &transactorImpl{
		db:   db,
		otel: otel,
	}
}

func (t *transactorImpl) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	ctx, scope := t.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".WithinTx")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	tx, err := t.db.Write.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		logger.ErrorWithStack(err)

		return failure.Transaction(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()

			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back transaction")
		}

		return failure.Transaction(err)
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return failure.Transaction(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

func (t *transactorImpl) TryAdvisoryLock(ctx context.Context, tx *sqlx.Tx, key int64) (bool, error) {
	ctx, scope := t.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".TryAdvisoryLock")
	defer scope.End()

	const query = "SELECT pg_try_advisory_xact_lock($1)"
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var acquired bool
	if err := tx.GetContext(ctx, &acquired, query, key); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	return acquired, nil
}
