// internal/web/auth_pages.go
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/services"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
)

type loginForm struct {
	Email string
}

type resetConfirmForm struct {
	Token string
}

// LoginGet handles GET /login. Visitors that are already signed in go
// straight to the list.
func (d *Dashboard) LoginGet(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(d.session(r)); token != "" {
		if _, err := d.auth.GetSession(r.Context(), token); err == nil {
			http.Redirect(w, r, "/keuringen", http.StatusFound)
			return
		}
	}
	d.render(w, r, http.StatusOK, "login.html", "Aanmelden", loginForm{}, "")
}

// LoginPost handles POST /login. A failed sign in is logged and the form
// is shown again; the reason is only displayed when SurfaceErrors is set.
func (d *Dashboard) LoginPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	session, err := d.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, domain.ErrInvalidCredentials) {
			level = slog.LevelInfo
		}
		d.logger.Log(ctx, level, "sign in failed",
			slog.String("client_ip", middleware.ClientIP(r)),
			slog.String("error", err.Error()))

		msg := ""
		if d.opts.SurfaceErrors {
			msg = "Ongeldig e-mailadres of wachtwoord."
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				msg = "Aanmelden is mislukt, probeer het later opnieuw."
			}
		}
		d.render(w, r, http.StatusOK, "login.html", "Aanmelden", loginForm{Email: email}, msg)
		return
	}

	s := d.session(r)
	s.Values[tokenKey] = session.Token
	d.save(w, r, s)

	d.logger.InfoContext(ctx, "user signed in", slog.String("user_id", session.UserID.String()))
	http.Redirect(w, r, "/keuringen", http.StatusSeeOther)
}

// Logout handles POST /logout
func (d *Dashboard) Logout(w http.ResponseWriter, r *http.Request) {
	s := d.session(r)
	if token := sessionToken(s); token != "" {
		if err := d.auth.SignOut(r.Context(), token); err != nil {
			d.logger.ErrorContext(r.Context(), "failed to revoke session",
				slog.String("error", err.Error()))
		}
	}

	delete(s.Values, tokenKey)
	addFlash(s, "success", "U bent afgemeld.")
	d.save(w, r, s)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ResetRequestGet handles GET /reset-password
func (d *Dashboard) ResetRequestGet(w http.ResponseWriter, r *http.Request) {
	d.render(w, r, http.StatusOK, "reset_password.html", "Wachtwoord vergeten", loginForm{}, "")
}

// ResetRequestPost handles POST /reset-password. The answer is the same
// whether or not the address has an account.
func (d *Dashboard) ResetRequestPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.PostFormValue("email"))

	err := d.auth.RequestPasswordReset(ctx, email, d.opts.BaseURL+"/reset-password/confirm")
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		d.render(w, r, http.StatusUnprocessableEntity, "reset_password.html", "Wachtwoord vergeten",
			loginForm{Email: email}, "Vul uw e-mailadres in.")
		return
	case err != nil:
		d.logger.ErrorContext(ctx, "password reset request failed", slog.String("error", err.Error()))
	}

	d.redirectWithFlash(w, r, "/login", "success",
		"Als dit e-mailadres gekend is, ontvangt u een link om uw wachtwoord opnieuw in te stellen.")
}

// ResetConfirmGet handles GET /reset-password/confirm?token=
func (d *Dashboard) ResetConfirmGet(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		d.redirectWithFlash(w, r, "/reset-password", "error", "Deze link is ongeldig of verlopen.")
		return
	}
	d.render(w, r, http.StatusOK, "reset_confirm.html", "Nieuw wachtwoord", resetConfirmForm{Token: token}, "")
}

// ResetConfirmPost handles POST /reset-password/confirm
func (d *Dashboard) ResetConfirmPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.PostFormValue("token")
	password := r.PostFormValue("password")

	rerender := func(msg string) {
		d.render(w, r, http.StatusUnprocessableEntity, "reset_confirm.html", "Nieuw wachtwoord",
			resetConfirmForm{Token: token}, msg)
	}

	if password != r.PostFormValue("password_confirm") {
		rerender("De wachtwoorden komen niet overeen.")
		return
	}

	err := d.auth.ResetPassword(ctx, token, password)
	switch {
	case err == nil:
		d.redirectWithFlash(w, r, "/login", "success", "Uw wachtwoord is gewijzigd. U kan nu aanmelden.")
	case errors.Is(err, domain.ErrInvalidInput):
		rerender("Het wachtwoord moet minstens " + strconv.Itoa(services.MinPasswordLength) + " tekens bevatten.")
	case errors.Is(err, domain.ErrResetTokenInvalid):
		d.redirectWithFlash(w, r, "/reset-password", "error", "Deze link is ongeldig of verlopen.")
	default:
		d.logger.ErrorContext(ctx, "password reset failed", slog.String("error", err.Error()))
		rerender("Er ging iets mis, probeer het later opnieuw.")
	}
}
