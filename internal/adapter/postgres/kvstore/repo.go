// Package kvstore implements the record store on PostgreSQL. Values are
// JSON documents in a single storage_items table keyed by storage key.
package kvstore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/study-helper/internal/adapter/postgres"
	"github.com/heartmarshall/study-helper/internal/domain"
)

const table = "storage_items"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides key/value persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
	txm  *postgres.TxManager
}

// New creates a new repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool, txm: postgres.NewTxManager(pool)}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the value stored under key.
// Returns domain.ErrNotFound if the key does not exist.
func (r *Repo) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := psql.Select("value").From(table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var value []byte
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return nil, postgres.MapError(err, key)
	}
	return value, nil
}

// Keys returns every stored key in lexical order.
func (r *Repo) Keys(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("key").From(table).OrderBy("key").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}

	var keys []string
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &keys, query, args...); err != nil {
		return nil, fmt.Errorf("list storage keys: %w", err)
	}
	return keys, nil
}

// Usage returns the bytes taken by keys and serialized values, and the
// number of keys.
func (r *Repo) Usage(ctx context.Context) (int64, int, error) {
	query, args, err := psql.
		Select("COALESCE(SUM(octet_length(key) + octet_length(value::text)), 0)", "COUNT(*)").
		From(table).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build usage query: %w", err)
	}

	var (
		bytes int64
		count int64
	)
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&bytes, &count); err != nil {
		return 0, 0, fmt.Errorf("storage usage: %w", err)
	}
	return bytes, int(count), nil
}

// Ping checks the connection.
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Update atomically replaces the value under key with fn(current).
// current is nil when the key is absent; a nil result deletes the key.
// Concurrent updates of one key, including those racing to create it,
// are serialized by the key's advisory lock.
func (r *Repo) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	return r.txm.RunLocked(ctx, key, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		current, err := r.Get(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if next == nil {
			if current == nil {
				return nil
			}
			return r.deleteKeys(ctx, key)
		}

		query, args, err := psql.Insert(table).
			Columns("key", "value", "updated_at").
			Values(key, next, sq.Expr("now()")).
			Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert query: %w", err)
		}

		if _, err := q.Exec(ctx, query, args...); err != nil {
			return postgres.MapError(err, key)
		}
		return nil
	})
}

// Delete removes keys. Missing keys are ignored. It holds the advisory
// locks of every key, so it waits for updates in flight on any of them.
func (r *Repo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.txm.RunLockedAll(ctx, keys, func(ctx context.Context) error {
		return r.deleteKeys(ctx, keys...)
	})
}

func (r *Repo) deleteKeys(ctx context.Context, keys ...string) error {
	query, args, err := psql.Delete(table).Where(sq.Eq{"key": keys}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete storage items: %w", err)
	}
	return nil
}
