package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	spotentity "github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// UserRepo provides data access for the users and user_spots tables.
// It runs on whatever handle it is given, usually a *sqlx.Tx.
type UserRepo struct {
	db sqlx.ExtContext
}

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, password, active, created_at`

// Create inserts a new user and fills in the server-assigned id, active flag and created_at.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (email, name, password)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at`
	row := r.db.QueryRowxContext(ctx, q, u.Email, u.Name, u.Password)
	if err := row.Scan(&u.ID, &u.Active, &u.CreatedAt); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail fetches a user by its unique email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*entity.User, error) {
	var u entity.User
	if err := sqlx.GetContext(ctx, r.db, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// ListActive returns active users in creation order.
func (r *UserRepo) ListActive(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := sqlx.SelectContext(ctx, r.db, &users, `SELECT `+userColumns+` FROM users WHERE active = true ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select active users: %w", err)
	}
	return users, nil
}

// Update writes the mutable profile fields (name, email) of u.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET name = $2, email = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Email)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res)
}

// Delete removes a user; user_spots rows go with it via ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}

// HasSpot reports whether the (user, spot) association exists.
func (r *UserRepo) HasSpot(ctx context.Context, userID, spotID int64) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM user_spots WHERE user_id = $1 AND spot_id = $2)`
	if err := sqlx.GetContext(ctx, r.db, &exists, q, userID, spotID); err != nil {
		return false, fmt.Errorf("select user spot: %w", err)
	}
	return exists, nil
}

// AddSpot inserts the (user, spot) association.
func (r *UserRepo) AddSpot(ctx context.Context, userID, spotID int64) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO user_spots (user_id, spot_id) VALUES ($1, $2)`, userID, spotID); err != nil {
		return fmt.Errorf("insert user spot: %w", err)
	}
	return nil
}

// ListSpots returns the spots associated with a user ordered by spot id.
func (r *UserRepo) ListSpots(ctx context.Context, userID int64) ([]spotentity.Spot, error) {
	const q = `SELECT s.id, s.latitude, s.longitude, s.name, s.country
		FROM spots s
		JOIN user_spots us ON us.spot_id = s.id
		WHERE us.user_id = $1
		ORDER BY s.id`
	var spots []spotentity.Spot
	if err := sqlx.SelectContext(ctx, r.db, &spots, q, userID); err != nil {
		return nil, fmt.Errorf("select user spots: %w", err)
	}
	return spots, nil
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
