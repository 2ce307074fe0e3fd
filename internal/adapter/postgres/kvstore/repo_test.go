package kvstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/study-helper/internal/domain"
)

const testKey = "highlights_example.com"

var (
	getSQL    = regexp.QuoteMeta("SELECT value FROM storage_items WHERE key = $1")
	lockSQL   = regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")
	upsertSQL = regexp.QuoteMeta("INSERT INTO storage_items (key,value,updated_at) VALUES ($1,$2,now()) ON CONFLICT (key) DO UPDATE")
	deleteSQL = regexp.QuoteMeta("DELETE FROM storage_items WHERE key IN ($1)")
	lockAll   = regexp.QuoteMeta("SELECT pg_advisory_xact_lock(h) FROM")
)

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

func TestRepo_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		want    []byte
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(getSQL).WithArgs(testKey).
					WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":"a"}]`)))
			},
			want: []byte(`[{"id":"a"}]`),
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(getSQL).WithArgs(testKey).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, mock := newMockRepo(t)
			tt.setup(mock)

			got, err := repo.Get(context.Background(), testKey)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepo_Keys(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key FROM storage_items ORDER BY key")).
		WillReturnRows(mock.NewRows([]string{"key"}).AddRow("highlights_a.com").AddRow("notes_a.com"))

	keys, err := repo.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"highlights_a.com", "notes_a.com"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Usage(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(octet_length(key) + octet_length(value::text)), 0), COUNT(*) FROM storage_items")).
		WillReturnRows(mock.NewRows([]string{"coalesce", "count"}).AddRow(int64(2048), int64(3)))

	bytes, keys, err := repo.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2048), bytes)
	assert.Equal(t, 3, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Ping(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectPing()

	require.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

func TestRepo_Update_ExistingKey(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(getSQL).WithArgs(testKey).
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte(`["a"]`)))
	mock.ExpectExec(upsertSQL).WithArgs(testKey, pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	var seen []byte
	err := repo.Update(context.Background(), testKey, func(current []byte) ([]byte, error) {
		seen = current
		return []byte(`["a","b"]`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a"]`), seen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Update_NewKey(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(getSQL).WithArgs(testKey).WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(upsertSQL).WithArgs(testKey, pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), testKey, func(current []byte) ([]byte, error) {
		assert.Nil(t, current)
		return []byte(`["a"]`), nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Update_NilResultDeletes(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(getSQL).WithArgs(testKey).
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte(`["a"]`)))
	mock.ExpectExec(deleteSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), testKey, func([]byte) ([]byte, error) { return nil, nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Update_NilResultOnAbsentKeyWritesNothing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(getSQL).WithArgs(testKey).WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	err := repo.Update(context.Background(), testKey, func([]byte) ([]byte, error) { return nil, nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Update_FnErrorRollsBack(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(getSQL).WithArgs(testKey).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	sentinel := errors.New("bad record")
	err := repo.Update(context.Background(), testKey, func([]byte) ([]byte, error) { return nil, sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Update_ReadErrorRollsBack(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs(testKey).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(getSQL).WithArgs(testKey).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	called := false
	err := repo.Update(context.Background(), testKey, func([]byte) ([]byte, error) {
		called = true
		return nil, nil
	})
	assert.Error(t, err)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Delete(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockAll).
		WithArgs([]string{"highlights_a.com", "notes_a.com"}).
		WillReturnResult(pgxmock.NewResult("SELECT", 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM storage_items WHERE key IN ($1,$2)")).
		WithArgs("highlights_a.com", "notes_a.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "highlights_a.com", "notes_a.com"))
	require.NoError(t, repo.Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Delete_LockFailureDeletesNothing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockAll).
		WithArgs([]string{testKey}).
		WillReturnError(errors.New("canceling statement due to lock timeout"))
	mock.ExpectRollback()

	assert.Error(t, repo.Delete(context.Background(), testKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}
