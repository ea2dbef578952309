// internal/handlers/auth.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
)

// AuthHandler handles sign in and sign out for API clients
type AuthHandler struct {
	auth   ports.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth ports.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With(slog.String("handler", "auth")),
	}
}

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	*domain.Session
	TokenType string `json:"token_type"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session, err := h.auth.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.InfoContext(ctx, "sign in rejected", slog.String("client_ip", middleware.ClientIP(r)))
		}
		respondServiceError(w, r, h.logger, err, "Failed to sign in")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, LoginResponse{Session: session, TokenType: "Bearer"})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), middleware.BearerToken(r)); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, session)
}
