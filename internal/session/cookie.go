package session

import (
	"fmt"
	"net/http"
	"time"

	"taskboard/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	Session domain.Session `json:"session"`
	jwt.RegisteredClaims
}

// CookieStore carries the whole Session in an HS256-signed JWT cookie.
type CookieStore struct {
	secret []byte
	opts   Options
	now    func() time.Time
}

func NewCookieStore(secret string, opts Options) *CookieStore {
	return &CookieStore{secret: []byte(secret), opts: opts, now: time.Now}
}

func (s *CookieStore) Get(r *http.Request) (*domain.Session, error) {
	raw, err := readCookie(r)
	if err != nil {
		return nil, err
	}

	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if c.Session.ID == "" {
		return nil, ErrNoSession
	}
	return &c.Session, nil
}

func (s *CookieStore) Set(w http.ResponseWriter, r *http.Request, sess *domain.Session) error {
	now := s.now()
	c := claims{
		Session: *sess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sess.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.opts.TTL > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.opts.TTL))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	writeCookie(w, signed, s.opts)
	return nil
}

// Rotate is Set: every signed token is issued fresh and nothing is kept server-side.
func (s *CookieStore) Rotate(w http.ResponseWriter, r *http.Request, sess *domain.Session) error {
	return s.Set(w, r, sess)
}

func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	expireCookie(w, s.opts)
	return nil
}
