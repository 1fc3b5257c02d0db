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

func (h *Handler) AdminDashboard(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	q := service.AdminQuery{
		Status:        domain.ParseStatusFilter(c.Query("status")),
		Owner:         c.Query("owner"),
		Search:        c.Query("q"),
		AuditCategory: c.Query("audit"),
	}

	state, err := h.Admin.Dashboard(c.Request.Context(), sess, q)
	if err != nil {
		state = &service.AdminState{Session: sess, Status: q.Status, OwnerFilter: q.Owner, Search: q.Search}
		h.render(c, statusFor(err), "admin.html", "Admin", state, noticeFor(c, err))
		return
	}
	h.render(c, http.StatusOK, "admin.html", "Admin", state, nil)
}

func (h *Handler) AdminTaskDetail(c *gin.Context) {
	row, err := h.Admin.TaskDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.redirectWith(c, "/admin", noticeFor(c, err))
		return
	}
	h.render(c, http.StatusOK, "admin_task.html", "Task", row, nil)
}

func (h *Handler) ConfirmDeleteUser(c *gin.Context) {
	u, err := h.Admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.redirectWith(c, "/admin", noticeFor(c, err))
		return
	}
	if u.IsAdmin() {
		h.redirectWith(c, "/admin", failure("Admin accounts cannot be deleted here."))
		return
	}
	h.render(c, http.StatusOK, "confirm.html", "Delete user", confirmView{
		Message: "Delete this user and all of their tasks?",
		Detail:  fmt.Sprintf("%s <%s>", u.Name, u.Email),
		Action:  "/admin/users/" + u.ID + "/delete",
		Cancel:  "/admin",
	}, nil)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	confirmed := c.PostForm("confirm") == "yes"
	res, err := h.Admin.DeleteUser(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), confirmed)
	switch {
	case err == nil:
		h.redirectWith(c, "/admin", success(fmt.Sprintf("User deleted together with %d task(s).", len(res.DeletedTasks))))
	case errors.Is(err, domain.ErrPartialFailure) && res != nil:
		logger.Error("admin delete incomplete", "user_id", c.Param("id"), "failed_tasks", res.FailedTasks,
			"request_id", middleware.RequestIDFrom(c))
		h.redirectWith(c, "/admin", failure(fmt.Sprintf(
			"%d task(s) could not be deleted, so the user was kept. Please try again.", len(res.FailedTasks))))
	default:
		h.redirectWith(c, "/admin", noticeFor(c, err))
	}
}
