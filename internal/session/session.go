// Package session keeps the signed-in user's backend token and identity on
// the server, keyed by an opaque cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// ErrNotFound is returned when no live session exists for an id
var ErrNotFound = errors.New("session not found")

// Session is the persisted client state of one signed-in user. The four
// identity values are always written and cleared together.
type Session struct {
	ID        string    `json:"-"`
	JWT       string    `json:"jwt"`
	UserType  string    `json:"userType"`
	Username  string    `json:"username"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// User returns the public view of the session
func (s *Session) User() model.SessionUser {
	return model.SessionUser{
		Username: s.Username,
		UserType: s.UserType,
		UserID:   s.UserID,
	}
}

// IsAdmin reports whether the user signed in as an administrator
func (s *Session) IsAdmin() bool {
	return s.UserType == model.UserTypeAdmin
}

// Store persists sessions
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
