package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxTxAttempts bounds the retry loop so a contended date surfaces a conflict
// to the caller instead of blocking indefinitely.
const maxTxAttempts = 3

// TxRunner executes a function inside one atomic transaction. The database
// transaction is the sole concurrency-correctness mechanism: every
// read-decide-write sequence that spans the availability, booking, or payment
// tables must run through it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PoolRunner runs serializable transactions on a pgx pool, retrying a bounded
// number of times when the database aborts a losing transaction.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

func NewPoolRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{Pool: pool}
}

// InTx runs fn inside a serializable transaction. On serialization failure or
// deadlock the transaction is retried up to maxTxAttempts times; any other
// error rolls back and propagates unchanged.
func (r *PoolRunner) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		err = fn(tx)
		if err == nil {
			err = tx.Commit(ctx)
			if err == nil {
				return nil
			}
		} else {
			_ = tx.Rollback(ctx)
		}

		if !IsSerializationFailure(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

// IsSerializationFailure reports whether err is a transient transaction abort
// (SQLSTATE 40001 or 40P01) that is safe to retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation
}
