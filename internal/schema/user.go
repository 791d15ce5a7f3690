package schema

import (
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
)

// UserCreate is the signup body. The password length rule applies at signup only.
type UserCreate struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=5"`
}

func (u *UserCreate) Normalize() {
	u.Email = strings.TrimSpace(u.Email)
	u.Name = strings.TrimSpace(u.Name)
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Email *string `json:"email" validate:"omitnil,email"`
	Name  *string `json:"name" validate:"omitnil,min=1"`
}

func (u *UserUpdate) Normalize() {
	if u.Email != nil {
		e := strings.TrimSpace(*u.Email)
		u.Email = &e
	}
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		u.Name = &n
	}
}

// Apply copies the fields present in the request onto stored.
func (u UserUpdate) Apply(stored *entity.User) {
	if u.Email != nil {
		stored.Email = *u.Email
	}
	if u.Name != nil {
		stored.Name = *u.Name
	}
}

// UserOut never carries the password hash.
type UserOut struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserOut(u *entity.User) UserOut {
	return UserOut{ID: u.ID, Email: u.Email, Name: u.Name, Active: u.Active, CreatedAt: u.CreatedAt}
}

func NewUserOuts(users []entity.User) []UserOut {
	out := make([]UserOut, 0, len(users))
	for i := range users {
		out = append(out, NewUserOut(&users[i]))
	}
	return out
}
