// internal/core/domain/session.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a dashboard account belonging to a company (onderneming)
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CompanyID    uuid.UUID `json:"onderneming_id"`
	CompanyName  string    `json:"onderneming"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is an authenticated sign-in
type Session struct {
	Token       string    `json:"access_token"`
	TokenID     string    `json:"-"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"onderneming"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
