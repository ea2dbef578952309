// internal/core/ports/auth_service.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/google/uuid"
)

// AuthService defines the authentication port used by the login and
// password reset screens.
type AuthService interface {
	// SignInWithPassword returns domain.ErrInvalidCredentials when the
	// email is unknown or the password does not match.
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	// GetSession returns domain.ErrSessionInvalid for expired, malformed or
	// revoked tokens.
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email, resetURL string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// SessionStore keeps revoked session ids and one-time reset tokens
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	SaveResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// ConsumeResetToken returns domain.ErrResetTokenInvalid when the token
	// is unknown, expired or already used.
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
	// RevokeUserSessions invalidates every session of userID issued before
	// the given time. The mark is kept for ttl, the longest session life.
	RevokeUserSessions(ctx context.Context, userID uuid.UUID, before time.Time, ttl time.Duration) error
	// UserSessionsRevokedAt returns the zero time when no mark exists
	UserSessionsRevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, error)
}
