// internal/web/web.go

// Package web serves the server rendered keuringen dashboard: sign in,
// password reset and the inspection pages.
package web

import (
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
)

// Options configures the dashboard
type Options struct {
	// Location is the zone dates are shown and entered in
	Location *time.Location
	// SurfaceErrors shows sign in and fetch failures instead of only
	// logging them
	SurfaceErrors  bool
	BaseURL        string
	CSRFKey        string
	CookieSecure   bool
	TrustedOrigins []string
	// LoginLimiter throttles POST /login per client IP. Nil disables it.
	LoginLimiter *middleware.RateLimiter
}

// Dashboard renders the dashboard pages
type Dashboard struct {
	auth        ports.AuthService
	inspections ports.InspectionService
	exports     ports.ExportService
	store       sessions.Store
	templates   *Templates
	opts        Options
	logger      *slog.Logger
}

// NewDashboard parses the templates and wires the page handlers
func NewDashboard(
	auth ports.AuthService,
	inspections ports.InspectionService,
	exports ports.ExportService,
	store sessions.Store,
	opts Options,
	logger *slog.Logger,
) (*Dashboard, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	templates, err := LoadTemplates(TemplateFuncs(opts.Location))
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		auth:        auth,
		inspections: inspections,
		exports:     exports,
		store:       store,
		templates:   templates,
		opts:        opts,
		logger:      logger.With(slog.String("component", "web")),
	}, nil
}

// Routes registers the pages on a new mux without CSRF protection
func (d *Dashboard) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/keuringen", http.StatusFound)
	})

	var login http.Handler = http.HandlerFunc(d.LoginPost)
	if d.opts.LoginLimiter != nil {
		login = d.opts.LoginLimiter.Middleware(login)
	}
	mux.HandleFunc("GET /login", d.LoginGet)
	mux.Handle("POST /login", login)
	mux.HandleFunc("POST /logout", d.Logout)

	mux.HandleFunc("GET /reset-password", d.ResetRequestGet)
	mux.HandleFunc("POST /reset-password", d.ResetRequestPost)
	mux.HandleFunc("GET /reset-password/confirm", d.ResetConfirmGet)
	mux.HandleFunc("POST /reset-password/confirm", d.ResetConfirmPost)

	mux.Handle("GET /keuringen", d.requireSession(d.List))
	mux.Handle("POST /keuringen/refresh", d.requireSession(d.Refresh))
	mux.Handle("GET /keuringen/nieuw", d.requireSession(d.NewForm))
	mux.Handle("POST /keuringen/nieuw", d.requireSession(d.Create))
	mux.Handle("POST /keuringen/export", d.requireSession(d.Export))
	mux.Handle("GET /keuringen/export/{task_id}", d.requireSession(d.ExportDownload))
	mux.Handle("GET /keuringen/{id}", d.requireSession(d.Detail))

	return mux
}

// Handler returns the pages behind CSRF protection
func (d *Dashboard) Handler() http.Handler {
	protect := csrf.Protect(
		[]byte(d.opts.CSRFKey),
		csrf.Secure(d.opts.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins(d.opts.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(d.csrfFailure)),
	)
	return protect(d.Routes())
}

func (d *Dashboard) csrfFailure(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	d.logger.WarnContext(r.Context(), "csrf validation failed",
		slog.String("reason", reason),
		slog.String("client_ip", middleware.ClientIP(r)))
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// requireSession resolves the cookie token to a session and sends
// visitors without one to the login page
func (d *Dashboard) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := d.session(r)
		token := sessionToken(s)
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, err := d.auth.GetSession(r.Context(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionInvalid) {
				d.logger.ErrorContext(r.Context(), "session lookup failed",
					slog.String("error", err.Error()))
			}
			delete(s.Values, tokenKey)
			d.save(w, r, s)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next(w, r.WithContext(middleware.WithSession(r.Context(), session)))
	})
}

// pageData is what every template receives
type pageData struct {
	Title     string
	Session   *domain.Session
	CSRFField template.HTML
	Flashes   []FlashMessage
	Error     string
	Data      any
}

// render consumes the pending flashes and writes page
func (d *Dashboard) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, errMsg string) {
	s := d.session(r)
	pd := pageData{
		Title:     title,
		CSRFField: csrf.TemplateField(r),
		Flashes:   flashes(s),
		Error:     errMsg,
		Data:      data,
	}
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		pd.Session = session
	}
	if len(pd.Flashes) > 0 {
		d.save(w, r, s)
	}

	if err := d.templates.Render(w, status, page, pd); err != nil {
		d.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (d *Dashboard) save(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if err := s.Save(r, w); err != nil {
		d.logger.ErrorContext(r.Context(), "failed to save session",
			slog.String("error", err.Error()))
	}
}

// redirectWithFlash stores a flash and redirects with 303
func (d *Dashboard) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, typ, msg string) {
	s := d.session(r)
	addFlash(s, typ, msg)
	d.save(w, r, s)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
