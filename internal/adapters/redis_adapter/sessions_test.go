package redis_a_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/keuringen-be/internal/adapters/redis_adapter"
	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/test/helpers"
)

func TestSessionStore_Revoke(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	store := redis_a.NewSessionStore(cache, helpers.TestLogger())

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	t.Run("expires_with_the_token", func(t *testing.T) {
		mr.FastForward(time.Hour + time.Second)
		revoked, err := store.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("already_expired_token_is_not_stored", func(t *testing.T) {
		require.NoError(t, store.Revoke(ctx, "jti-2", -time.Second))
		assert.False(t, mr.Exists("revoked:jti-2"))
	})
}

func TestSessionStore_ResetToken(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	store := redis_a.NewSessionStore(cache, helpers.TestLogger())
	userID := uuid.New()

	require.NoError(t, store.SaveResetToken(ctx, "tok", userID, 30*time.Minute))

	t.Run("duplicate_token_is_rejected", func(t *testing.T) {
		assert.Error(t, store.SaveResetToken(ctx, "tok", uuid.New(), time.Minute))
	})

	got, err := store.ConsumeResetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	t.Run("token_is_single_use", func(t *testing.T) {
		_, err := store.ConsumeResetToken(ctx, "tok")
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	})

	t.Run("expired_token_is_invalid", func(t *testing.T) {
		require.NoError(t, store.SaveResetToken(ctx, "old", userID, time.Minute))
		mr.FastForward(2 * time.Minute)
		_, err := store.ConsumeResetToken(ctx, "old")
		assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	})
}

func TestSessionStore_RevokeUserSessions(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	store := redis_a.NewSessionStore(cache, helpers.TestLogger())
	userID := uuid.New()

	cutoff, err := store.UserSessionsRevokedAt(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cutoff.IsZero())

	at := time.Date(2024, 3, 4, 9, 30, 15, 0, time.UTC)
	require.NoError(t, store.RevokeUserSessions(ctx, userID, at, time.Hour))

	cutoff, err = store.UserSessionsRevokedAt(ctx, userID)
	require.NoError(t, err)
	assert.True(t, at.Equal(cutoff))

	t.Run("other_users_are_untouched", func(t *testing.T) {
		cutoff, err := store.UserSessionsRevokedAt(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, cutoff.IsZero())
	})

	t.Run("mark_expires_with_the_sessions", func(t *testing.T) {
		mr.FastForward(time.Hour + time.Second)
		cutoff, err := store.UserSessionsRevokedAt(ctx, userID)
		require.NoError(t, err)
		assert.True(t, cutoff.IsZero())
	})
}
