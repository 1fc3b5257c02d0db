package middleware

import (
	"errors"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
	"taskboard/internal/service"
	"taskboard/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// LoadSession resolves the Session once per request. A missing or invalid one means logged out.
func LoadSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request)
		switch {
		case err == nil:
			c.Set(sessionKey, sess)
		case errors.Is(err, session.ErrNoSession):
		default:
			logger.Warn("session lookup failed", "error", err, "request_id", RequestIDFrom(c))
		}
		c.Next()
	}
}

// SessionFrom returns the request's Session or nil.
func SessionFrom(c *gin.Context) *domain.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*domain.Session)
	return sess
}

// SetSession replaces the Session seen by the rest of this request.
func SetSession(c *gin.Context, sess *domain.Session) {
	c.Set(sessionKey, sess)
}

// RequireRole guards a route group. An empty role admits any logged-in user.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch d := service.Authorize(SessionFrom(c), role).(type) {
		case service.Allowed:
			c.Next()
		case service.Redirect:
			c.Redirect(http.StatusSeeOther, d.Target)
			c.Abort()
		}
	}
}
