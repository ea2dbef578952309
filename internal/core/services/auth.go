// internal/core/services/auth.go
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
)

// MinPasswordLength is enforced on password resets
const MinPasswordLength = 8

// AuthConfig holds token and hashing settings
type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
}

// Claims represents the session token claims
type Claims struct {
	Email       string `json:"email"`
	CompanyName string `json:"onderneming"`
	jwt.RegisteredClaims
}

// AuthService signs users in with email and password and manages their
// sessions and password resets
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	queue    ports.TaskQueue
	cfg      AuthConfig
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, queue ports.TaskQueue, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "keuringen"
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		queue:    queue,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With(slog.String("service", "auth")),
	}
}

// SignInWithPassword checks the credentials and issues a session token
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed in", slog.String("user_id", user.ID.String()))
	return session, nil
}

func (s *AuthService) issue(user *domain.User) (*domain.Session, error) {
	jti, err := randomToken(16)
	if err != nil {
		return nil, fmt.Errorf("generating JTI: %w", err)
	}

	now := s.now()
	expires := now.Add(s.cfg.SessionTTL)
	claims := Claims{
		Email:       user.Email,
		CompanyName: user.CompanyName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &domain.Session{
		Token:       signed,
		TokenID:     jti,
		UserID:      user.ID,
		Email:       user.Email,
		CompanyName: user.CompanyName,
		ExpiresAt:   expires.Truncate(time.Second),
	}, nil
}

// GetSession validates a token and checks it was not signed out
func (s *AuthService) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if revoked {
		return nil, domain.ErrSessionInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrSessionInvalid
	}

	cutoff, err := s.sessions.UserSessionsRevokedAt(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if !cutoff.IsZero() && (claims.IssuedAt == nil || claims.IssuedAt.Before(cutoff)) {
		return nil, domain.ErrSessionInvalid
	}

	return &domain.Session{
		Token:       token,
		TokenID:     claims.ID,
		UserID:      userID,
		Email:       claims.Email,
		CompanyName: claims.CompanyName,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, domain.ErrSessionInvalid
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, domain.ErrSessionInvalid
	}
	return claims, nil
}

// SignOut revokes the session until its natural expiry. Invalid tokens are
// already signed out.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed out", slog.String("user_id", claims.Subject))
	return nil
}

// RequestPasswordReset mails a one-time reset link. Unknown addresses are
// accepted without error so the form does not reveal which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, resetURL string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown account")
			return nil
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	token, err := randomToken(32)
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}
	if err := s.sessions.SaveResetToken(ctx, token, user.ID, s.cfg.ResetTokenTTL); err != nil {
		return err
	}

	link, err := withToken(resetURL, token)
	if err != nil {
		return fmt.Errorf("building reset link: %w", err)
	}

	task, err := tasks.NewEmailTask(tasks.EmailPayload{
		To:      user.Email,
		Subject: "Wachtwoord opnieuw instellen",
		Body: fmt.Sprintf("Gebruik deze link om een nieuw wachtwoord in te stellen:\n\n%s\n\nDe link is %d minuten geldig.",
			link, int(s.cfg.ResetTokenTTL.Minutes())),
	})
	if err != nil {
		return err
	}
	if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("queueing reset mail: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset mail queued", slog.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword consumes a reset token and stores the new password. The
// token is handed back when the update fails, so the link can be retried.
// Sessions signed in before the reset stop working.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}

	userID, err := s.sessions.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		s.restoreResetToken(ctx, token, userID)
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.restoreResetToken(ctx, token, userID)
		}
		return fmt.Errorf("updating password: %w", err)
	}

	if err := s.sessions.RevokeUserSessions(ctx, userID, s.now(), s.cfg.SessionTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions after password reset",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "password reset", slog.String("user_id", userID.String()))
	return nil
}

func (s *AuthService) restoreResetToken(ctx context.Context, token string, userID uuid.UUID) {
	if err := s.sessions.SaveResetToken(ctx, token, userID, s.cfg.ResetTokenTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to restore reset token",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
	}
}

// HashPassword hashes a password with the configured cost
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func withToken(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
