package schema

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	userentity "github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
)

// SpotIn is the create body. Coordinates are pointers so that 0 is a valid, present value.
type SpotIn struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Name      string   `json:"name" validate:"required,min=2"`
	Country   string   `json:"country" validate:"required,iso3166_1_alpha2"`
}

func (s *SpotIn) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Country = strings.ToUpper(strings.TrimSpace(s.Country))
}

// Spot builds the entity; call only after validation passed.
func (s SpotIn) Spot() *entity.Spot {
	return &entity.Spot{Latitude: *s.Latitude, Longitude: *s.Longitude, Name: s.Name, Country: s.Country}
}

type SpotUpdate struct {
	Latitude  *float64 `json:"latitude" validate:"omitnil,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitnil,longitude"`
	Name      *string  `json:"name" validate:"omitnil,min=2"`
	Country   *string  `json:"country" validate:"omitnil,iso3166_1_alpha2"`
}

func (s *SpotUpdate) Normalize() {
	if s.Name != nil {
		n := strings.TrimSpace(*s.Name)
		s.Name = &n
	}
	if s.Country != nil {
		c := strings.ToUpper(strings.TrimSpace(*s.Country))
		s.Country = &c
	}
}

// Apply copies the fields present in the request onto stored.
func (s SpotUpdate) Apply(stored *entity.Spot) {
	if s.Latitude != nil {
		stored.Latitude = *s.Latitude
	}
	if s.Longitude != nil {
		stored.Longitude = *s.Longitude
	}
	if s.Name != nil {
		stored.Name = *s.Name
	}
	if s.Country != nil {
		stored.Country = *s.Country
	}
}

type SpotOut struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
}

func NewSpotOut(s *entity.Spot) SpotOut {
	return SpotOut{ID: s.ID, Latitude: s.Latitude, Longitude: s.Longitude, Name: s.Name, Country: s.Country}
}

func NewSpotOuts(spots []entity.Spot) []SpotOut {
	out := make([]SpotOut, 0, len(spots))
	for i := range spots {
		out = append(out, NewSpotOut(&spots[i]))
	}
	return out
}

// UserWithSpots is a user together with every spot it added.
type UserWithSpots struct {
	UserOut
	Spots []SpotOut `json:"spots"`
}

func NewUserWithSpots(u *userentity.User, spots []entity.Spot) UserWithSpots {
	return UserWithSpots{UserOut: NewUserOut(u), Spots: NewSpotOuts(spots)}
}
