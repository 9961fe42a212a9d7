package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already exists")
)

type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PaternalSurname string    `json:"paternalSurname"`
	MaternalSurname string    `json:"maternalSurname"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"passwordHash"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DisplayName is the name carried in issued tokens.
func (u User) DisplayName() string {
	return u.Name
}

// Patch is the set of fields an update may replace. Email and ID are not part of it.
type Patch struct {
	Name            string
	PaternalSurname string
	MaternalSurname string
	PasswordHash    string
}

func (p Patch) Apply(u User, now time.Time) User {
	u.Name = p.Name
	u.PaternalSurname = p.PaternalSurname
	u.MaternalSurname = p.MaternalSurname
	u.PasswordHash = p.PasswordHash
	u.UpdatedAt = now
	return u
}
