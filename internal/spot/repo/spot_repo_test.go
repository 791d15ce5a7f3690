package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
)

func newRepo(t *testing.T) (*SpotRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSpotRepo(sqlx.NewDb(db, "postgres")), mock
}

var spotCols = []string{"id", "latitude", "longitude", "name", "country"}

func TestCreate(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO spots (latitude, longitude, name, country)`)).
		WithArgs(-33.9, 18.4, "Muizenberg", "ZA").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	s := &entity.Spot{Latitude: -33.9, Longitude: 18.4, Name: "Muizenberg", Country: "ZA"}
	require.NoError(t, r.Create(context.Background(), s))
	assert.Equal(t, int64(4), s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM spots WHERE name = $1`)).
		WithArgs("Peniche").
		WillReturnRows(sqlmock.NewRows(spotCols).AddRow(int64(1), 39.35, -9.38, "Peniche", "PT"))

	s, err := r.GetByName(context.Background(), "Peniche")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM spots WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(spotCols))

	_, err := r.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Empty(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM spots ORDER BY id`)).WillReturnRows(sqlmock.NewRows(spotCols))

	spots, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, spots)
}

func TestUpdate(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE spots SET latitude = $2, longitude = $3, name = $4, country = $5 WHERE id = $1`)).
		WithArgs(int64(1), 1.0, 2.0, "A", "PT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, r.Update(context.Background(), &entity.Spot{ID: 1, Latitude: 1, Longitude: 2, Name: "A", Country: "PT"}))
}

func TestDelete_NotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM spots WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.Delete(context.Background(), 3), ErrNotFound)
}

func TestListUsers(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`JOIN user_spots us ON us.user_id = u.id`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password", "active", "created_at"}).
			AddRow(int64(2), "a@b.io", "Ann", "h", true, time.Now()))

	users, err := r.ListUsers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@b.io", users[0].Email)
}
