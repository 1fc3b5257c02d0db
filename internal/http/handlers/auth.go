package handlers

import (
	"errors"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Email string
}

type registerForm struct {
	Name  string
	Email string
}

// Home sends visitors to their role's landing page, or to login.
func (h *Handler) Home(c *gin.Context) {
	if sess := middleware.SessionFrom(c); sess != nil {
		c.Redirect(http.StatusSeeOther, service.HomeFor(sess.Role))
		return
	}
	c.Redirect(http.StatusSeeOther, service.PathLogin)
}

func (h *Handler) LoginPage(c *gin.Context) {
	if sess := middleware.SessionFrom(c); sess != nil {
		c.Redirect(http.StatusSeeOther, service.HomeFor(sess.Role))
		return
	}
	h.render(c, http.StatusOK, "login.html", "Log in", loginForm{}, nil)
}

func (h *Handler) Login(c *gin.Context) {
	email := c.PostForm("email")
	sess, err := h.Auth.Login(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		var n *Notice
		switch {
		case errors.Is(err, domain.ErrNotFound):
			n = failure("Email not registered.")
		default:
			n = noticeFor(c, err)
		}
		h.render(c, statusFor(err), "login.html", "Log in", loginForm{Email: email}, n)
		return
	}

	if err := h.Sessions.Rotate(c.Writer, c.Request, sess); err != nil {
		logger.Error("session save failed", "error", err, "user_id", sess.ID)
		h.render(c, http.StatusInternalServerError, "login.html", "Log in", loginForm{Email: email}, failure(genericFailure))
		return
	}
	h.redirectWith(c, service.HomeFor(sess.Role), success("Welcome, "+sess.Name+"!"))
}

func (h *Handler) RegisterPage(c *gin.Context) {
	if sess := middleware.SessionFrom(c); sess != nil {
		c.Redirect(http.StatusSeeOther, service.HomeFor(sess.Role))
		return
	}
	h.render(c, http.StatusOK, "register.html", "Register", registerForm{}, nil)
}

func (h *Handler) Register(c *gin.Context) {
	form := registerForm{Name: c.PostForm("name"), Email: c.PostForm("email")}
	if _, err := h.Auth.Register(c.Request.Context(), form.Name, form.Email, c.PostForm("password")); err != nil {
		h.render(c, statusFor(err), "register.html", "Register", form, noticeFor(c, err))
		return
	}
	h.redirectWith(c, service.PathLogin, success("Registration successful. You can log in now."))
}

func (h *Handler) Logout(c *gin.Context) {
	h.Auth.Logout(c.Request.Context(), middleware.SessionFrom(c))
	if err := h.Sessions.Clear(c.Writer, c.Request); err != nil {
		logger.Warn("session clear failed", "error", err)
	}
	h.redirectWith(c, service.PathLogin, &Notice{Kind: "info", Message: "You have been logged out."})
}
