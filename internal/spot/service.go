package spot

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-spots/internal/schema"
	"github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	"github.com/ovaphlow/pitchfork/service-spots/internal/spot/repo"
	userentity "github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/database"
)

var (
	ErrNotFound  = errors.New("spot not found")
	ErrNameTaken = errors.New("spot name already taken")
)

type spotStore interface {
	Create(ctx context.Context, s *entity.Spot) error
	GetByID(ctx context.Context, id int64) (*entity.Spot, error)
	GetByName(ctx context.Context, name string) (*entity.Spot, error)
	List(ctx context.Context) ([]entity.Spot, error)
	Update(ctx context.Context, s *entity.Spot) error
	Delete(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, spotID int64) ([]userentity.User, error)
}

// SpotService runs spot CRUD, one transaction per call.
type SpotService struct {
	db    *sqlx.DB
	spots func(sqlx.ExtContext) spotStore
}

func NewSpotService(db *sqlx.DB) *SpotService {
	return &SpotService{
		db:    db,
		spots: func(ext sqlx.ExtContext) spotStore { return repo.NewSpotRepo(ext) },
	}
}

func (s *SpotService) Create(ctx context.Context, in schema.SpotIn) (*entity.Spot, error) {
	sp := in.Spot()
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		r := s.spots(tx)
		if _, err := r.GetByName(ctx, sp.Name); err == nil {
			return ErrNameTaken
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		return r.Create(ctx, sp)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return sp, nil
}

func (s *SpotService) List(ctx context.Context) ([]entity.Spot, error) {
	var spots []entity.Spot
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		spots, err = s.spots(tx).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return spots, nil
}

func (s *SpotService) Get(ctx context.Context, id int64) (*entity.Spot, error) {
	var sp *entity.Spot
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		sp, err = s.spots(tx).GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sp, nil
}

// Update merges the present fields of patch onto the stored spot. A name collision is ErrNameTaken.
func (s *SpotService) Update(ctx context.Context, id int64, patch schema.SpotUpdate) (*entity.Spot, error) {
	var sp *entity.Spot
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		r := s.spots(tx)
		var err error
		if sp, err = r.GetByID(ctx, id); err != nil {
			return err
		}
		patch.Apply(sp)
		return r.Update(ctx, sp)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, mapNotFound(err)
	}
	return sp, nil
}

func (s *SpotService) Delete(ctx context.Context, id int64) error {
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.spots(tx).Delete(ctx, id)
	})
	return mapNotFound(err)
}

// Users returns the users that added the spot. An unknown spot is ErrNotFound.
func (s *SpotService) Users(ctx context.Context, id int64) ([]userentity.User, error) {
	var users []userentity.User
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		r := s.spots(tx)
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		users, err = r.ListUsers(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return users, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
