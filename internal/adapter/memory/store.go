// Package memory is an in-process record store, used by tests and by
// servers that do not need data to outlive the process.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Options tune a Store.
type Options struct {
	QuotaBytes   int64
	EnforceQuota bool
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Store keeps values in a map. Updates of one key are serialized by a
// per-key lock so fn runs without blocking other keys.
type Store struct {
	opts Options

	mu    sync.RWMutex
	data  map[string][]byte
	locks map[string]*keyLock
}

// New creates an empty store.
func New(opts Options) *Store {
	return &Store{
		opts:  opts,
		data:  make(map[string][]byte),
		locks: make(map[string]*keyLock),
	}
}

// Get returns a copy of the value stored under key or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("storage item %q: %w", key, domain.ErrNotFound)
	}
	return slices.Clone(v), nil
}

// Update atomically replaces the value under key with fn(current).
func (s *Store) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	unlock := s.lockKey(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	current, ok := s.data[key]
	s.mu.RUnlock()
	if ok {
		current = slices.Clone(current)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if next == nil {
		delete(s.data, key)
		return nil
	}
	if s.opts.EnforceQuota && s.opts.QuotaBytes > 0 {
		used := s.usageLocked()
		if ok {
			used -= int64(len(key) + len(current))
		}
		if used+int64(len(key)+len(next)) > s.opts.QuotaBytes {
			return fmt.Errorf("storage item %q: %w", key, domain.ErrQuotaExceeded)
		}
	}
	s.data[key] = slices.Clone(next)
	return nil
}

// Delete removes keys. Missing keys are ignored. It waits for updates in
// flight on any of keys, so a cleared collection is never written back.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	// Sorted acquisition keeps two overlapping deletes from deadlocking.
	for _, k := range keys {
		defer s.lockKey(k)()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Keys returns every stored key in lexical order.
func (s *Store) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Usage returns the bytes taken by keys and values, and the key count.
func (s *Store) Usage(context.Context) (int64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usageLocked(), len(s.data), nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) usageLocked() int64 {
	var n int64
	for k, v := range s.data {
		n += int64(len(k) + len(v))
	}
	return n
}

func (s *Store) lockKey(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}
