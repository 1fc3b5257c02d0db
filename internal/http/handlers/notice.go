package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/internal/domain"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
)

const flashCookie = "taskboard_flash"

// Notice is the one-line message shown above a page.
type Notice struct {
	Kind    string // success, error or info
	Message string
}

func success(msg string) *Notice { return &Notice{Kind: "success", Message: msg} }
func failure(msg string) *Notice { return &Notice{Kind: "error", Message: msg} }

const genericFailure = "Connection error. Please try again."

// noticeFor turns a service error into something the user can read.
// Unexpected errors are logged here so handlers do not have to.
func noticeFor(c *gin.Context, err error) *Notice {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return failure(capitalize(ve.Message))
	case errors.Is(err, domain.ErrInvalidCredential):
		return failure("Incorrect password.")
	case errors.Is(err, domain.ErrConflict):
		return failure("That email is already registered.")
	case errors.Is(err, domain.ErrNotFound):
		return failure("That item no longer exists.")
	case errors.Is(err, domain.ErrPartialFailure):
		logger.Error("partial delete", "error", err, "request_id", middleware.RequestIDFrom(c))
		return failure("Some tasks could not be deleted, so the account was kept. Please try again.")
	default:
		logger.Error("request failed", "error", err, "path", c.Request.URL.Path, "request_id", middleware.RequestIDFrom(c))
		return failure(genericFailure)
	}
}

// statusFor picks the HTTP status for a page re-rendered after err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidCredential),
		errors.Is(err, domain.ErrConflict):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// setFlash stores a notice for the page the client is redirected to.
func (h *Handler) setFlash(c *gin.Context, n *Notice) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, n.Kind+"|"+n.Message, 60, "/", "", h.SecureCookies, true)
}

// takeFlash reads and clears the pending notice.
func (h *Handler) takeFlash(c *gin.Context) *Notice {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", h.SecureCookies, true)

	kind, msg, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	switch kind {
	case "success", "error", "info":
		return &Notice{Kind: kind, Message: msg}
	}
	return nil
}

func (h *Handler) redirectWith(c *gin.Context, target string, n *Notice) {
	if n != nil {
		h.setFlash(c, n)
	}
	c.Redirect(http.StatusSeeOther, target)
}
