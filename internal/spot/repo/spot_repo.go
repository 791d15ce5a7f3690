package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	userentity "github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
)

var ErrNotFound = errors.New("not found")

// SpotRepo provides data access for the spots table.
type SpotRepo struct {
	db sqlx.ExtContext
}

func NewSpotRepo(db sqlx.ExtContext) *SpotRepo { return &SpotRepo{db: db} }

const spotColumns = `id, latitude, longitude, name, country`

func (r *SpotRepo) Create(ctx context.Context, s *entity.Spot) error {
	const q = `INSERT INTO spots (latitude, longitude, name, country)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, q, s.Latitude, s.Longitude, s.Name, s.Country).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert spot: %w", err)
	}
	return nil
}

func (r *SpotRepo) GetByID(ctx context.Context, id int64) (*entity.Spot, error) {
	return r.getOne(ctx, `SELECT `+spotColumns+` FROM spots WHERE id = $1`, id)
}

func (r *SpotRepo) GetByName(ctx context.Context, name string) (*entity.Spot, error) {
	return r.getOne(ctx, `SELECT `+spotColumns+` FROM spots WHERE name = $1`, name)
}

func (r *SpotRepo) getOne(ctx context.Context, q string, arg any) (*entity.Spot, error) {
	var s entity.Spot
	if err := sqlx.GetContext(ctx, r.db, &s, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select spot: %w", err)
	}
	return &s, nil
}

func (r *SpotRepo) List(ctx context.Context) ([]entity.Spot, error) {
	var spots []entity.Spot
	if err := sqlx.SelectContext(ctx, r.db, &spots, `SELECT `+spotColumns+` FROM spots ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select spots: %w", err)
	}
	return spots, nil
}

// Update writes every column of s.
func (r *SpotRepo) Update(ctx context.Context, s *entity.Spot) error {
	const q = `UPDATE spots SET latitude = $2, longitude = $3, name = $4, country = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, s.ID, s.Latitude, s.Longitude, s.Name, s.Country)
	if err != nil {
		return fmt.Errorf("update spot: %w", err)
	}
	return expectOne(res)
}

// Delete removes a spot; its user_spots rows cascade.
func (r *SpotRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	return expectOne(res)
}

// ListUsers returns the users that added the spot, ordered by user id.
func (r *SpotRepo) ListUsers(ctx context.Context, spotID int64) ([]userentity.User, error) {
	const q = `SELECT u.id, u.email, u.name, u.password, u.active, u.created_at
		FROM users u
		JOIN user_spots us ON us.user_id = u.id
		WHERE us.spot_id = $1
		ORDER BY u.id`
	var users []userentity.User
	if err := sqlx.SelectContext(ctx, r.db, &users, q, spotID); err != nil {
		return nil, fmt.Errorf("select spot users: %w", err)
	}
	return users, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
