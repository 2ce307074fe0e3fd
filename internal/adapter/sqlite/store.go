// Package sqlite implements the record store on an embedded SQLite file.
// One process owns the file at a time; a lock file next to it enforces that.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/flock"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/heartmarshall/study-helper/internal/adapter/sqlite/migrations"
	"github.com/heartmarshall/study-helper/internal/domain"
)

const (
	table = "storage_items"

	defaultLockTimeout = 5 * time.Second
	lockRetryInterval  = 100 * time.Millisecond
)

// Options tune a Store.
type Options struct {
	// QuotaBytes is the storage quota; writes beyond it fail only when
	// EnforceQuota is set.
	QuotaBytes   int64
	EnforceQuota bool
	// LockTimeout bounds the wait for the file lock.
	LockTimeout time.Duration
}

// Store is a key/value store in a single SQLite table.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
	opts Options
}

// Open opens (creating if needed) the database at path, takes the file
// lock and applies migrations.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	lock, err := acquireLock(ctx, path+".lock", opts.LockTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers inside the process; the file
	// lock keeps other processes out.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, lock: lock, path: path, opts: opts}

	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func acquireLock(ctx context.Context, lockPath string, timeout time.Duration) (*flock.Flock, error) {
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire store lock: %w", err)
		}
		if locked {
			return l, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("store is in use by another process (lock: %s)", lockPath)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *Store) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close closes the database and releases the file lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if uerr := s.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Get returns the value stored under key or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, s.db, key)
}

func get(ctx context.Context, q queryer, key string) ([]byte, error) {
	query, args, err := sq.Select("value").From(table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var value []byte
	if err := q.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storage item %q: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("storage item %q: %w", key, err)
	}
	return value, nil
}

// Keys returns every stored key in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("key").From(table).OrderBy("key").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list storage keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan storage key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Usage returns the bytes taken by keys and values, and the key count.
func (s *Store) Usage(ctx context.Context) (int64, int, error) {
	return usage(ctx, s.db)
}

func usage(ctx context.Context, q queryer) (int64, int, error) {
	query, args, err := sq.Select("COALESCE(SUM(length(CAST(key AS BLOB)) + length(value)), 0)", "COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build usage query: %w", err)
	}

	var (
		bytes int64
		count int
	)
	if err := q.QueryRowContext(ctx, query, args...).Scan(&bytes, &count); err != nil {
		return 0, 0, fmt.Errorf("storage usage: %w", err)
	}
	return bytes, count, nil
}

// Update atomically replaces the value under key with fn(current) inside
// an immediate transaction. current is nil when the key is absent; a nil
// result deletes the key. With EnforceQuota a write that would take usage
// past the quota fails with domain.ErrQuotaExceeded.
func (s *Store) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := get(ctx, tx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	switch {
	case next == nil && current == nil:
	case next == nil:
		if err = deleteKeys(ctx, tx, key); err != nil {
			return err
		}
	default:
		if err = s.checkQuota(ctx, tx, key, current, next); err != nil {
			return err
		}
		if err = upsert(ctx, tx, key, next); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) checkQuota(ctx context.Context, q queryer, key string, current, next []byte) error {
	if !s.opts.EnforceQuota || s.opts.QuotaBytes <= 0 {
		return nil
	}
	used, _, err := usage(ctx, q)
	if err != nil {
		return err
	}
	if current != nil {
		used -= int64(len(key) + len(current))
	}
	if used+int64(len(key)+len(next)) > s.opts.QuotaBytes {
		return fmt.Errorf("storage item %q: %w", key, domain.ErrQuotaExceeded)
	}
	return nil
}

func upsert(ctx context.Context, q queryer, key string, value []byte) error {
	query, args, err := sq.Insert(table).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UnixMilli()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storage item %q: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return deleteKeys(ctx, s.db, keys...)
}

func deleteKeys(ctx context.Context, q queryer, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sq.Delete(table).Where(sq.Eq{"key": keys}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete storage items: %w", err)
	}
	return nil
}
