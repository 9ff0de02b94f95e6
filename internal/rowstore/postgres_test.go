package rowstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zamrzovalnik/internal/remote"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, DriverPostgres)), mock
}

func TestPlaceholderFollowsDriver(t *testing.T) {
	for _, tt := range []struct {
		driver string
		want   string
	}{
		{DriverSQLite, "SELECT id FROM items WHERE user_id = ?"},
		{DriverPostgres, "SELECT id FROM items WHERE user_id = $1"},
	} {
		t.Run(tt.driver, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			s := New(sqlx.NewDb(db, tt.driver))
			query, _, err := s.sq.Select("id").From("items").Where("user_id = ?", "owner-a").ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
		})
	}
}

func TestPostgresQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("UpsertUsesDollarPlaceholders", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO categories \(user_id,id,name,icon,color,is_default,sort_order,updated_at,deleted_at\) VALUES \(\$1,\$2,.*\$9\) ON CONFLICT \(user_id, id\) DO UPDATE SET name = excluded.name`).
			WithArgs("owner-a", "c1", "Soups", "", "", false, 8, int64(1_000), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n, err := s.UpsertCategories(ctx, "owner-a", []remote.CategoryRow{
			{ID: "c1", UserID: "someone-else", Name: "Soups", SortOrder: 8, UpdatedAt: ms(1_000)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpsertSendsOneRowPerID", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO categories .* VALUES \(\$1,.*\$9\) ON CONFLICT`).
			WithArgs("owner-a", "c1", "Stews", "", "", false, 9, int64(2_000), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n, err := s.UpsertCategories(ctx, "owner-a", []remote.CategoryRow{
			{ID: "c1", Name: "Soups", SortOrder: 8, UpdatedAt: ms(1_000)},
			{ID: "c1", Name: "Stews", SortOrder: 9, UpdatedAt: ms(2_000)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpsertRollsBackOnError", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO items`).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := s.UpsertItems(ctx, "owner-a", []remote.ItemRow{
			{ID: "i1", Name: "Peas", CategoryID: "other", AddedDate: ms(1), UpdatedAt: ms(2)},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SelectSince", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT .* FROM items WHERE user_id = \$1 AND updated_at > \$2 ORDER BY updated_at, id`).
			WithArgs("owner-a", int64(500)).
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow("owner-a", "i1", "Peas", 1.0, "", "other", nil, int64(1), "", int64(600), int64(700)))

		rows, err := s.ItemsSince(ctx, "owner-a", ms(500))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].UpdatedAt.Equal(ms(600)))
		require.NotNil(t, rows[0].DeletedAt)
		assert.Nil(t, rows[0].ExpirationDate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RawQueriesAreRebound", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM revoked_tokens WHERE jti = \$1`).
			WithArgs("jti-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		revoked, err := s.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec(`(?s)INSERT INTO users .* ON CONFLICT \(username\) DO NOTHING`).
			WithArgs(sqlmock.AnyArg(), "ana", "hash", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.CreateUser(ctx, "ana", "hash")
		assert.ErrorIs(t, err, ErrUserExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSinceUsesMilliseconds(t *testing.T) {
	s, mock := newMockStore(t)
	since := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM categories`).
		WithArgs("owner-a", since.UnixMilli()).
		WillReturnRows(sqlmock.NewRows(categoryColumns))

	rows, err := s.CategoriesSince(context.Background(), "owner-a", since)
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
