package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-spots/internal/auth"
	"github.com/ovaphlow/pitchfork/service-spots/internal/schema"
	spotentity "github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	spotrepo "github.com/ovaphlow/pitchfork/service-spots/internal/spot/repo"
	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-spots/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/database"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrNoActiveUsers    = errors.New("no active users")
	ErrSpotNotFound     = errors.New("spot not found")
	ErrSpotAlreadyAdded = errors.New("spot already added")
)

type userStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListActive(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	HasSpot(ctx context.Context, userID, spotID int64) (bool, error)
	AddSpot(ctx context.Context, userID, spotID int64) error
	ListSpots(ctx context.Context, userID int64) ([]spotentity.Spot, error)
}

type spotLookup interface {
	GetByID(ctx context.Context, id int64) (*spotentity.Spot, error)
}

// UserService orchestrates account lifecycle, password authentication and the
// user/spot association. Every operation runs in a single transaction.
type UserService struct {
	db     *sqlx.DB
	hasher auth.PasswordHasher

	users func(sqlx.ExtContext) userStore
	spots func(sqlx.ExtContext) spotLookup
}

func NewUserService(db *sqlx.DB, hasher auth.PasswordHasher) *UserService {
	if hasher == nil {
		hasher = auth.BcryptHasher{Cost: 12}
	}
	return &UserService{
		db:     db,
		hasher: hasher,
		users:  func(ext sqlx.ExtContext) userStore { return userrepo.NewUserRepo(ext) },
		spots:  func(ext sqlx.ExtContext) spotLookup { return spotrepo.NewSpotRepo(ext) },
	}
}

// Create registers a user. The email pre-check gives the common case a clean conflict;
// a concurrent signup that slips past it is caught as a unique violation on insert or commit.
func (s *UserService) Create(ctx context.Context, in schema.UserCreate) (*entity.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Email: in.Email, Name: in.Name, Password: hash}
	err = database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		repo := s.users(tx)
		if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return err
		}
		return repo.Create(ctx, u)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// ListActive returns active users in creation order. An empty result is ErrNoActiveUsers.
func (s *UserService) ListActive(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		users, err = s.users(tx).ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNoActiveUsers
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	var u *entity.User
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		u, err = s.users(tx).GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

// Update merges the present fields of patch onto the stored user. The password is not updatable here.
func (s *UserService) Update(ctx context.Context, id int64, patch schema.UserUpdate) (*entity.User, error) {
	var u *entity.User
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		repo := s.users(tx)
		var err error
		if u, err = repo.GetByID(ctx, id); err != nil {
			return err
		}
		patch.Apply(u)
		return repo.Update(ctx, u)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, mapNotFound(err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.users(tx).Delete(ctx, id)
	})
	return mapNotFound(err)
}

// Spots returns the spots the user added.
func (s *UserService) Spots(ctx context.Context, userID int64) ([]spotentity.Spot, error) {
	var spots []spotentity.Spot
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		spots, err = s.users(tx).ListSpots(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return spots, nil
}

// AddSpot associates spotID with the user.
func (s *UserService) AddSpot(ctx context.Context, userID, spotID int64) error {
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := s.spots(tx).GetByID(ctx, spotID); err != nil {
			if errors.Is(err, spotrepo.ErrNotFound) {
				return ErrSpotNotFound
			}
			return err
		}
		repo := s.users(tx)
		exists, err := repo.HasSpot(ctx, userID, spotID)
		if err != nil {
			return err
		}
		if exists {
			return ErrSpotAlreadyAdded
		}
		return repo.AddSpot(ctx, userID, spotID)
	})
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return ErrSpotAlreadyAdded
	case database.IsForeignKeyViolation(err):
		return ErrSpotNotFound
	default:
		return err
	}
}

// ResolveUser loads the subject of a verified token.
func (s *UserService) ResolveUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrUserGone
	}
	return u, err
}

// AuthenticatePassword returns auth.ErrBadCredentials for an unknown email and for a wrong
// password alike.
func (s *UserService) AuthenticatePassword(ctx context.Context, email, password string) (*entity.User, error) {
	var u *entity.User
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		u, err = s.users(tx).GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, auth.ErrBadCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.Password, password) {
		return nil, auth.ErrBadCredentials
	}
	return u, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, userrepo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
