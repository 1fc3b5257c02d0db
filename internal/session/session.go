// Package session keeps the logged-in user's Session between requests.
package session

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/domain"
)

const CookieName = "taskboard_session"

// persistent cookies outlive the browser session when no TTL is configured
const defaultCookieAge = 365 * 24 * time.Hour

var ErrNoSession = errors.New("no session")

// Store reads and writes the one Session bound to a browser.
// Set refreshes the current session; Rotate starts a new one under a fresh
// identifier and must be used whenever the user's identity changes (login).
type Store interface {
	Get(r *http.Request) (*domain.Session, error)
	Set(w http.ResponseWriter, r *http.Request, s *domain.Session) error
	Rotate(w http.ResponseWriter, r *http.Request, s *domain.Session) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

type Options struct {
	// TTL of zero keeps the session until logout.
	TTL    time.Duration
	Secure bool
}

func (o Options) cookieAge() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return defaultCookieAge
}

func writeCookie(w http.ResponseWriter, value string, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(opts.cookieAge().Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireCookie(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	return c.Value, nil
}
