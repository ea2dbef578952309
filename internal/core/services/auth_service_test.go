// internal/core/services/auth_service_test.go
package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/services"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
	"github.com/ammerola/keuringen-be/test/helpers"
	"github.com/ammerola/keuringen-be/test/mocks"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type authFixture struct {
	svc      *services.AuthService
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionStore
	queue    *mocks.MockTaskQueue
	user     *domain.User
}

func newAuthFixture(t *testing.T, mutate ...func(*services.AuthConfig)) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := services.AuthConfig{
		JWTSecret:     testSecret,
		SessionTTL:    time.Hour,
		ResetTokenTTL: 30 * time.Minute,
		BcryptCost:    bcrypt.MinCost,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	f := &authFixture{
		users:    mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionStore(ctrl),
		queue:    mocks.NewMockTaskQueue(ctrl),
		user: &domain.User{
			ID:           uuid.New(),
			Email:        "an@immonoord.be",
			PasswordHash: string(hash),
			CompanyName:  "Immo Noord",
		},
	}
	f.svc = services.NewAuthService(f.users, f.sessions, f.queue, cfg, helpers.TestLogger())
	return f
}

func (f *authFixture) signIn(t *testing.T) *domain.Session {
	t.Helper()
	f.users.EXPECT().FindByEmail(gomock.Any(), f.user.Email).Return(f.user, nil)
	session, err := f.svc.SignInWithPassword(context.Background(), f.user.Email, "correct horse")
	require.NoError(t, err)
	return session
}

func TestAuthService_SignInWithPassword(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		f := newAuthFixture(t)

		session := f.signIn(t)
		assert.NotEmpty(t, session.Token)
		assert.NotEmpty(t, session.TokenID)
		assert.Equal(t, f.user.ID, session.UserID)
		assert.Equal(t, "Immo Noord", session.CompanyName)
		assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
	})

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(f *authFixture)
		wantErr    error
	}{
		{
			name:     "wrong password",
			email:    "an@immonoord.be",
			password: "wrong",
			setupMocks: func(f *authFixture) {
				f.users.EXPECT().FindByEmail(gomock.Any(), "an@immonoord.be").Return(f.user, nil)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.be",
			password: "whatever",
			setupMocks: func(f *authFixture) {
				f.users.EXPECT().FindByEmail(gomock.Any(), "nobody@example.be").Return(nil, domain.ErrUserNotFound)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:       "empty password",
			email:      "an@immonoord.be",
			setupMocks: func(*authFixture) {},
			wantErr:    domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			tt.setupMocks(f)

			session, err := f.svc.SignInWithPassword(context.Background(), tt.email, tt.password)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("backend failure is not a credential error", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := f.svc.SignInWithPassword(context.Background(), "an@immonoord.be", "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_GetSession(t *testing.T) {
	t.Run("valid session", func(t *testing.T) {
		f := newAuthFixture(t)
		issued := f.signIn(t)
		f.sessions.EXPECT().IsRevoked(gomock.Any(), issued.TokenID).Return(false, nil)
		f.sessions.EXPECT().UserSessionsRevokedAt(gomock.Any(), f.user.ID).Return(time.Time{}, nil)

		got, err := f.svc.GetSession(context.Background(), issued.Token)
		require.NoError(t, err)
		assert.Equal(t, issued.UserID, got.UserID)
		assert.Equal(t, issued.Email, got.Email)
		assert.Equal(t, issued.TokenID, got.TokenID)
	})

	t.Run("revoked session", func(t *testing.T) {
		f := newAuthFixture(t)
		issued := f.signIn(t)
		f.sessions.EXPECT().IsRevoked(gomock.Any(), issued.TokenID).Return(true, nil)

		_, err := f.svc.GetSession(context.Background(), issued.Token)
		assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	})

	t.Run("signed in before password reset", func(t *testing.T) {
		f := newAuthFixture(t)
		issued := f.signIn(t)
		f.sessions.EXPECT().IsRevoked(gomock.Any(), issued.TokenID).Return(false, nil)
		f.sessions.EXPECT().UserSessionsRevokedAt(gomock.Any(), f.user.ID).Return(time.Now().Add(time.Minute), nil)

		_, err := f.svc.GetSession(context.Background(), issued.Token)
		assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	})

	t.Run("signed in after password reset", func(t *testing.T) {
		f := newAuthFixture(t)
		issued := f.signIn(t)
		f.sessions.EXPECT().IsRevoked(gomock.Any(), issued.TokenID).Return(false, nil)
		f.sessions.EXPECT().UserSessionsRevokedAt(gomock.Any(), f.user.ID).Return(time.Now().Add(-time.Hour), nil)

		_, err := f.svc.GetSession(context.Background(), issued.Token)
		assert.NoError(t, err)
	})

	t.Run("expired session", func(t *testing.T) {
		f := newAuthFixture(t, func(c *services.AuthConfig) { c.SessionTTL = -time.Minute })
		issued := f.signIn(t)

		_, err := f.svc.GetSession(context.Background(), issued.Token)
		assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := newAuthFixture(t, func(c *services.AuthConfig) { c.JWTSecret = strings.Repeat("x", 40) })
		issued := other.signIn(t)

		f := newAuthFixture(t)
		_, err := f.svc.GetSession(context.Background(), issued.Token)
		assert.ErrorIs(t, err, domain.ErrSessionInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		f := newAuthFixture(t)
		for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
			_, err := f.svc.GetSession(context.Background(), token)
			assert.ErrorIs(t, err, domain.ErrSessionInvalid, token)
		}
	})
}

func TestAuthService_SignOut(t *testing.T) {
	t.Run("revokes until expiry", func(t *testing.T) {
		f := newAuthFixture(t)
		issued := f.signIn(t)

		f.sessions.EXPECT().
			Revoke(gomock.Any(), issued.TokenID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, ttl time.Duration) error {
				assert.Greater(t, ttl, 59*time.Minute)
				assert.LessOrEqual(t, ttl, time.Hour)
				return nil
			})

		require.NoError(t, f.svc.SignOut(context.Background(), issued.Token))
	})

	t.Run("invalid token is a no-op", func(t *testing.T) {
		f := newAuthFixture(t)
		assert.NoError(t, f.svc.SignOut(context.Background(), "garbage"))
	})

	t.Run("store failure", func(t *testing.T) {
		f := newAuthFixture(t)
		issued := f.signIn(t)
		f.sessions.EXPECT().Revoke(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		assert.Error(t, f.svc.SignOut(context.Background(), issued.Token))
	})
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	const resetURL = "http://localhost:8080/reset-password/confirm"

	t.Run("known account gets a mail", func(t *testing.T) {
		f := newAuthFixture(t)
		var savedToken string

		f.users.EXPECT().FindByEmail(gomock.Any(), f.user.Email).Return(f.user, nil)
		f.sessions.EXPECT().
			SaveResetToken(gomock.Any(), gomock.Any(), f.user.ID, 30*time.Minute).
			DoAndReturn(func(_ context.Context, token string, _ uuid.UUID, _ time.Duration) error {
				savedToken = token
				return nil
			})
		f.queue.EXPECT().
			EnqueueContext(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
				assert.Equal(t, tasks.TypeSendEmail, task.Type())

				var p tasks.EmailPayload
				require.NoError(t, json.Unmarshal(task.Payload(), &p))
				assert.Equal(t, f.user.Email, p.To)
				assert.Contains(t, p.Body, resetURL+"?token="+savedToken)
				assert.Contains(t, p.Body, "30 minuten")
				return &asynq.TaskInfo{ID: "t1"}, nil
			})

		require.NoError(t, f.svc.RequestPasswordReset(context.Background(), f.user.Email, resetURL))
		assert.Len(t, savedToken, 64)
	})

	t.Run("unknown account is accepted silently", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.EXPECT().FindByEmail(gomock.Any(), "nobody@example.be").Return(nil, domain.ErrUserNotFound)

		assert.NoError(t, f.svc.RequestPasswordReset(context.Background(), "nobody@example.be", resetURL))
	})

	t.Run("empty email", func(t *testing.T) {
		f := newAuthFixture(t)
		assert.ErrorIs(t, f.svc.RequestPasswordReset(context.Background(), " ", resetURL), domain.ErrInvalidInput)
	})

	t.Run("queue failure", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(f.user, nil)
		f.sessions.EXPECT().SaveResetToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))

		assert.Error(t, f.svc.RequestPasswordReset(context.Background(), f.user.Email, resetURL))
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("stores new hash", func(t *testing.T) {
		f := newAuthFixture(t)
		f.sessions.EXPECT().ConsumeResetToken(gomock.Any(), "tok").Return(f.user.ID, nil)
		f.users.EXPECT().
			UpdatePassword(gomock.Any(), f.user.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("nieuw-wachtwoord")))
				return nil
			})
		f.sessions.EXPECT().RevokeUserSessions(gomock.Any(), f.user.ID, gomock.Any(), time.Hour).Return(nil)

		require.NoError(t, f.svc.ResetPassword(context.Background(), "tok", "nieuw-wachtwoord"))
	})

	t.Run("update failure keeps the link usable", func(t *testing.T) {
		f := newAuthFixture(t)
		gomock.InOrder(
			f.sessions.EXPECT().ConsumeResetToken(gomock.Any(), "tok").Return(f.user.ID, nil),
			f.users.EXPECT().UpdatePassword(gomock.Any(), f.user.ID, gomock.Any()).Return(errors.New("db down")),
			f.sessions.EXPECT().SaveResetToken(gomock.Any(), "tok", f.user.ID, 30*time.Minute).Return(nil),
		)

		err := f.svc.ResetPassword(context.Background(), "tok", "nieuw-wachtwoord")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "updating password")
	})

	t.Run("deleted account burns the token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.sessions.EXPECT().ConsumeResetToken(gomock.Any(), "tok").Return(f.user.ID, nil)
		f.users.EXPECT().UpdatePassword(gomock.Any(), f.user.ID, gomock.Any()).Return(domain.ErrUserNotFound)

		assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), "tok", "nieuw-wachtwoord"), domain.ErrUserNotFound)
	})

	t.Run("revocation failure does not fail the reset", func(t *testing.T) {
		f := newAuthFixture(t)
		f.sessions.EXPECT().ConsumeResetToken(gomock.Any(), "tok").Return(f.user.ID, nil)
		f.users.EXPECT().UpdatePassword(gomock.Any(), f.user.ID, gomock.Any()).Return(nil)
		f.sessions.EXPECT().RevokeUserSessions(gomock.Any(), f.user.ID, gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		assert.NoError(t, f.svc.ResetPassword(context.Background(), "tok", "nieuw-wachtwoord"))
	})

	t.Run("short password", func(t *testing.T) {
		f := newAuthFixture(t)
		assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), "tok", "kort"), domain.ErrInvalidInput)
	})

	t.Run("used token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.sessions.EXPECT().ConsumeResetToken(gomock.Any(), "tok").Return(uuid.Nil, domain.ErrResetTokenInvalid)

		assert.ErrorIs(t, f.svc.ResetPassword(context.Background(), "tok", "nieuw-wachtwoord"), domain.ErrResetTokenInvalid)
	})
}
