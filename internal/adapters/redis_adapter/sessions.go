// internal/adapters/redis_adapter/sessions.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/google/uuid"
)

// SessionStore keeps revoked session ids and password reset tokens in
// Redis. Both expire on their own through the key TTL.
type SessionStore struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store on top of the cache
func NewSessionStore(cache ports.CacheRepository, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		cache:  cache,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Revoke marks a session id as signed out until ttl elapses
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if _, err := s.cache.SetNX(ctx, BuildKey(PrefixRevoked, tokenID), true, ttl); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	s.logger.DebugContext(ctx, "session revoked", slog.Duration("ttl", ttl))
	return nil
}

// IsRevoked reports whether a session id was signed out
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	revoked, err := s.cache.Exists(ctx, BuildKey(PrefixRevoked, tokenID))
	if err != nil {
		return false, fmt.Errorf("checking revocation: %w", err)
	}
	return revoked, nil
}

// SaveResetToken stores a one-time password reset token for userID
func (s *SessionStore) SaveResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	ok, err := s.cache.SetNX(ctx, BuildKey(PrefixReset, token), userID.String(), ttl)
	if err != nil {
		return fmt.Errorf("saving reset token: %w", err)
	}
	if !ok {
		return fmt.Errorf("saving reset token: token already exists")
	}
	return nil
}

// RevokeUserSessions marks the sessions of userID issued before the given
// time as signed out
func (s *SessionStore) RevokeUserSessions(ctx context.Context, userID uuid.UUID, before time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := BuildKey(PrefixRevoked, "user", userID.String())
	if err := s.cache.SetWithTTL(ctx, key, before.Unix(), ttl); err != nil {
		return fmt.Errorf("revoking user sessions: %w", err)
	}
	s.logger.DebugContext(ctx, "user sessions revoked", slog.String("user_id", userID.String()))
	return nil
}

// UserSessionsRevokedAt returns the cutoff set by RevokeUserSessions
func (s *SessionStore) UserSessionsRevokedAt(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	var unix int64
	if err := s.cache.Get(ctx, BuildKey(PrefixRevoked, "user", userID.String()), &unix); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("checking user revocation: %w", err)
	}
	return time.Unix(unix, 0), nil
}

// ConsumeResetToken returns the user of a reset token and deletes it
func (s *SessionStore) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	var raw string
	if err := s.cache.GetDel(ctx, BuildKey(PrefixReset, token), &raw); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return uuid.Nil, domain.ErrResetTokenInvalid
		}
		return uuid.Nil, fmt.Errorf("reading reset token: %w", err)
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrResetTokenInvalid
	}
	return userID, nil
}
