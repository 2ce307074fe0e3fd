// Package storagetest is a conformance suite shared by the record store
// backends.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Backend is the store contract under test.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Usage(ctx context.Context) (int64, int, error)
	Ping(ctx context.Context) error
}

// Run exercises b. newBackend must return an empty store.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(context.Background(), "notes_missing.test")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UpdateCreatesAndReplaces", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Update(ctx, "settings", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return []byte(`{"v":1}`), nil
		}))
		require.NoError(t, b.Update(ctx, "settings", func(current []byte) ([]byte, error) {
			assert.JSONEq(t, `{"v":1}`, string(current))
			return []byte(`{"v":2}`), nil
		}))

		got, err := b.Get(ctx, "settings")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("UpdateNilDeletes", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		put(t, b, "notes_a.test", `[]`)
		require.NoError(t, b.Update(ctx, "notes_a.test", func([]byte) ([]byte, error) { return nil, nil }))

		_, err := b.Get(ctx, "notes_a.test")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, b.Update(ctx, "notes_b.test", func([]byte) ([]byte, error) { return nil, nil }))
		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("UpdateErrorLeavesValue", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		put(t, b, "notes_a.test", `["keep"]`)
		sentinel := errors.New("reject")
		err := b.Update(ctx, "notes_a.test", func([]byte) ([]byte, error) { return nil, sentinel })
		assert.ErrorIs(t, err, sentinel)

		got, err := b.Get(ctx, "notes_a.test")
		require.NoError(t, err)
		assert.JSONEq(t, `["keep"]`, string(got))
	})

	t.Run("KeysAndDelete", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		put(t, b, "notes_b.test", `[]`)
		put(t, b, "highlights_a.test", `[]`)
		put(t, b, "settings", `{}`)

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"highlights_a.test", "notes_b.test", "settings"}, keys)

		require.NoError(t, b.Delete(ctx, "notes_b.test", "missing"))
		keys, err = b.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"highlights_a.test", "settings"}, keys)
	})

	t.Run("Usage", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		bytes, count, err := b.Usage(ctx)
		require.NoError(t, err)
		assert.Zero(t, bytes)
		assert.Zero(t, count)

		put(t, b, "notes_a.test", `[{"id":"1","text":"hello","timestamp":1}]`)
		bytes, count, err = b.Usage(ctx)
		require.NoError(t, err)
		assert.Positive(t, bytes)
		assert.Equal(t, 1, count)
	})

	t.Run("ConcurrentUpdatesAreAtomic", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		const writers = 16
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := b.Update(ctx, "highlights_race.test", func(current []byte) ([]byte, error) {
					var items []string
					if current != nil {
						if err := json.Unmarshal(current, &items); err != nil {
							return nil, err
						}
					}
					return json.Marshal(append(items, fmt.Sprint(i)))
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		raw, err := b.Get(ctx, "highlights_race.test")
		require.NoError(t, err)
		var items []string
		require.NoError(t, json.Unmarshal(raw, &items))
		assert.Len(t, items, writers)
	})

	t.Run("DeleteWaitsForUpdate", func(t *testing.T) {
		DeleteWaitsForUpdate(t, newBackend(t), "highlights_clear.test")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newBackend(t).Ping(context.Background()))
	})
}

// DeleteWaitsForUpdate deletes key while an update of key is between its
// read and its write. The delete must land after the update, leaving the
// key absent.
func DeleteWaitsForUpdate(t *testing.T, b Backend, key string) {
	t.Helper()
	ctx := context.Background()

	put(t, b, key, `["1"]`)

	entered := make(chan struct{})
	release := make(chan struct{})
	updated := make(chan error, 1)
	go func() {
		updated <- b.Update(ctx, key, func(current []byte) ([]byte, error) {
			close(entered)
			<-release
			var items []string
			if err := json.Unmarshal(current, &items); err != nil {
				return nil, err
			}
			return json.Marshal(append(items, "2"))
		})
	}()
	<-entered

	deleted := make(chan error, 1)
	go func() { deleted <- b.Delete(ctx, key) }()

	// A delete that ignores the update finishes well inside this window.
	select {
	case err := <-deleted:
		require.NoError(t, err)
		close(release)
		require.NoError(t, <-updated)
		got, _ := b.Get(ctx, key)
		t.Fatalf("delete did not wait for the update; value after both: %s", got)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-updated)
	require.NoError(t, <-deleted)

	_, err := b.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func put(t *testing.T, b Backend, key, value string) {
	t.Helper()
	require.NoError(t, b.Update(context.Background(), key, func([]byte) ([]byte, error) {
		return []byte(value), nil
	}))
}
