package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ProfilePage(c *gin.Context) {
	st, err := h.Profile.Load(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		sess := middleware.SessionFrom(c)
		st = &service.ProfileState{Session: sess, Name: sess.Name, Email: sess.Email, UserUnavailable: true, StatsUnavailable: true}
		h.render(c, statusFor(err), "profile.html", "Profile", st, noticeFor(c, err))
		return
	}
	h.render(c, http.StatusOK, "profile.html", "Profile", st, nil)
}

func (h *Handler) SaveProfile(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	upd := service.ProfileUpdate{
		Name:            c.PostForm("name"),
		Email:           c.PostForm("email"),
		CurrentPassword: c.PostForm("currentPassword"),
		NewPassword:     c.PostForm("newPassword"),
	}

	updated, err := h.Profile.Save(c.Request.Context(), sess, upd)
	if err != nil {
		n := noticeFor(c, err)
		if errors.Is(err, domain.ErrInvalidCredential) {
			n = failure("Current password is incorrect.")
		}
		st, loadErr := h.Profile.Load(c.Request.Context(), sess)
		if loadErr != nil {
			st = &service.ProfileState{Session: sess}
		}
		// keep what the user typed
		st.Name, st.Email = upd.Name, upd.Email
		h.render(c, statusFor(err), "profile.html", "Profile", st, n)
		return
	}

	if err := h.Sessions.Set(c.Writer, c.Request, updated); err != nil {
		logger.Error("session update failed", "error", err, "user_id", updated.ID)
	}
	middleware.SetSession(c, updated)
	h.redirectWith(c, "/profile", success("Profile updated."))
}

func (h *Handler) ConfirmDeleteAccount(c *gin.Context) {
	h.render(c, http.StatusOK, "profile_delete.html", "Delete account", nil, nil)
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	confirmed := c.PostForm("confirm") == "yes"

	res, err := h.Profile.DeleteAccount(c.Request.Context(), sess, confirmed, c.PostForm("email"))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		h.render(c, statusFor(err), "profile_delete.html", "Delete account", nil, noticeFor(c, err))
		return
	case errors.Is(err, domain.ErrPartialFailure) && res != nil:
		h.redirectWith(c, "/profile", failure(fmt.Sprintf(
			"%d task(s) could not be deleted, so your account was kept. Please try again.", len(res.FailedTasks))))
		return
	default:
		h.redirectWith(c, "/profile", noticeFor(c, err))
		return
	}

	if err := h.Sessions.Clear(c.Writer, c.Request); err != nil {
		logger.Warn("session clear failed", "error", err)
	}
	h.redirectWith(c, service.PathLogin, &Notice{Kind: "info", Message: "Your account has been deleted."})
}
