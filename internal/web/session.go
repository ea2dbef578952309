// internal/web/session.go
package web

import (
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "keuringen_session"
	tokenKey    = "token"
)

func init() {
	gob.Register(FlashMessage{})
}

// FlashMessage is shown once on the next rendered page
type FlashMessage struct {
	Type    string
	Message string
	Link    string
}

// NewCookieStore builds the signed cookie store holding the session token
func NewCookieStore(key string, secure bool, maxAge int) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	store.Options.MaxAge = maxAge
	return store
}

// session returns the cookie session. A cookie that fails to decode (for
// example after a key rotation) yields a fresh session.
func (d *Dashboard) session(r *http.Request) *sessions.Session {
	s, err := d.store.Get(r, sessionName)
	if err != nil {
		d.logger.DebugContext(r.Context(), "discarding unreadable session cookie",
			slog.String("error", err.Error()))
	}
	return s
}

func sessionToken(s *sessions.Session) string {
	token, _ := s.Values[tokenKey].(string)
	return token
}

func addFlash(s *sessions.Session, typ, msg string) {
	s.AddFlash(FlashMessage{Type: typ, Message: msg})
}

func flashes(s *sessions.Session) []FlashMessage {
	var out []FlashMessage
	for _, f := range s.Flashes() {
		if fm, ok := f.(FlashMessage); ok {
			out = append(out, fm)
		}
	}
	return out
}
