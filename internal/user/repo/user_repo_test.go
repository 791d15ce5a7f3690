package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
)

func newRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

var userCols = []string{"id", "email", "name", "password", "active", "created_at"}

func TestCreate_FillsServerColumns(t *testing.T) {
	r, mock := newRepo(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, name, password)`)).
		WithArgs("a@b.io", "Ann", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "active", "created_at"}).AddRow(int64(9), true, created))

	u := &entity.User{Email: "a@b.io", Name: "Ann", Password: "hash"}
	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, int64(9), u.ID)
	assert.True(t, u.Active)
	assert.Equal(t, created, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_WrapsDriverError(t *testing.T) {
	r, mock := newRepo(t)
	boom := errors.New("boom")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(boom)

	err := r.Create(context.Background(), &entity.User{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "insert user")
}

func TestGetByID(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "a@b.io", "Ann", "hash", true, time.Now()))

	u, err := r.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "a@b.io", u.Email)
	assert.Equal(t, "hash", u.Password)
}

func TestGetByEmail_NotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("x@b.io").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := r.GetByEmail(context.Background(), "x@b.io")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListActive(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE active = true ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "a@b.io", "Ann", "h", true, time.Now()).
			AddRow(int64(2), "b@b.io", "Bob", "h", true, time.Now()))

	users, err := r.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), users[1].ID)
}

func TestUpdate_And_Delete_NotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET name = $2, email = $3 WHERE id = $1`)).
		WithArgs(int64(5), "Ann", "a@b.io").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Update(context.Background(), &entity.User{ID: 5, Name: "Ann", Email: "a@b.io"}), ErrNotFound)
	assert.ErrorIs(t, r.Delete(context.Background(), 5), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_OK(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users`)).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, r.Delete(context.Background(), 5))
}

func TestSpotAssociation(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM user_spots WHERE user_id = $1 AND spot_id = $2)`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_spots (user_id, spot_id) VALUES ($1, $2)`)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`JOIN user_spots us ON us.spot_id = s.id`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "latitude", "longitude", "name", "country"}).
			AddRow(int64(2), 48.85, 2.35, "Paris", "FR"))

	ctx := context.Background()
	exists, err := r.HasSpot(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, r.AddSpot(ctx, 1, 2))

	spots, err := r.ListSpots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, spots, 1)
	assert.Equal(t, "Paris", spots[0].Name)
	assert.Equal(t, "FR", spots[0].Country)
	require.NoError(t, mock.ExpectationsWereMet())
}
