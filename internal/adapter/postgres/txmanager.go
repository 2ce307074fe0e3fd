package postgres

import (
	"context"
	"fmt"
	"strings"
)

const (
	advisoryLockSQL = "SELECT pg_advisory_xact_lock(hashtext($1))"

	// Locks are taken in hash order so two overlapping sets cannot deadlock.
	advisoryLockAllSQL = "SELECT pg_advisory_xact_lock(h) FROM (SELECT DISTINCT hashtext(k) AS h FROM unnest($1::text[]) AS k) AS locks ORDER BY h"
)

// TxManager runs functions inside a transaction carried by the context;
// repositories pick it up through QuerierFromCtx. Transactions do not
// nest: RunInTx inside a RunInTx callback opens an independent one.
type TxManager struct {
	pool Pool
}

// NewTxManager creates a TxManager over pool.
func NewTxManager(pool Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx commits when fn returns nil and rolls back otherwise, including
// when fn panics; the panic is not recovered.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && err != nil {
			err = fmt.Errorf("rollback: %w (after: %w)", rbErr, err)
		}
	}()

	if err = fn(withTx(ctx, tx)); err != nil {
		return err
	}

	done = true
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunLocked is RunInTx holding the transaction-scoped advisory lock of
// key, so callers locking the same key run one after another. The lock
// also covers keys that do not exist yet.
func (m *TxManager) RunLocked(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return m.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := QuerierFromCtx(ctx, m.pool).Exec(ctx, advisoryLockSQL, key); err != nil {
			return MapError(err, key)
		}
		return fn(ctx)
	})
}

// RunLockedAll is RunLocked over several keys at once.
func (m *TxManager) RunLockedAll(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	return m.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := QuerierFromCtx(ctx, m.pool).Exec(ctx, advisoryLockAllSQL, keys); err != nil {
			return MapError(err, strings.Join(keys, ","))
		}
		return fn(ctx)
	})
}
