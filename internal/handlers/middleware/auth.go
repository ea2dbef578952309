// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/pkg/logger"
)

type sessionKey struct{}

// WithSession stores the authenticated session in ctx
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, s)
	return logger.WithUserID(ctx, s.UserID)
}

// SessionFromContext returns the session stored by WithSession
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*domain.Session)
	return s, ok && s != nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// RequireBearer rejects API requests without a valid session token
func RequireBearer(auth ports.AuthService, l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			session, err := auth.GetSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrSessionInvalid) {
					l.ErrorContext(r.Context(), "session lookup failed", slog.String("error", err.Error()))
				}
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="keuringen"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Authentication required","code":"unauthorized"}`))
}
