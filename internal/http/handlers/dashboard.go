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

type dashboardView struct {
	State *service.DashboardState
	Form  domain.TaskFields
}

type taskEditView struct {
	ID   string
	Form domain.TaskFields
}

func taskFieldsFrom(c *gin.Context) domain.TaskFields {
	return domain.TaskFields{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		DueDate:     c.PostForm("dueDate"),
		Priority:    c.PostForm("priority"),
	}
}

func fieldsOf(t *domain.Task) domain.TaskFields {
	return domain.TaskFields{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	h.showDashboard(c, http.StatusOK, domain.TaskFields{}, c.Query("filter"), c.Query("q"), nil)
}

func (h *Handler) showDashboard(c *gin.Context, status int, form domain.TaskFields, filter, q string, n *Notice) {
	sess := middleware.SessionFrom(c)
	state, err := h.Tasks.Dashboard(c.Request.Context(), sess, domain.ParseStatusFilter(filter), q)
	if err != nil {
		state = &service.DashboardState{Session: sess, Filter: domain.ParseStatusFilter(filter), Search: q}
		if n == nil {
			n = noticeFor(c, err)
		}
		status = statusFor(err)
	}
	h.render(c, status, "dashboard.html", "My tasks", dashboardView{State: state, Form: form}, n)
}

func (h *Handler) CreateTask(c *gin.Context) {
	form := taskFieldsFrom(c)
	filter, q := c.PostForm("filter"), c.PostForm("q")

	_, err := h.Tasks.Create(c.Request.Context(), middleware.SessionFrom(c), form)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrAccountRemoved):
		if err := h.Sessions.Clear(c.Writer, c.Request); err != nil {
			logger.Warn("session clear failed", "error", err)
		}
		h.redirectWith(c, service.PathLogin, failure("Your account no longer exists. Please log in again."))
		return
	default:
		h.showDashboard(c, statusFor(err), form, filter, q, noticeFor(c, err))
		return
	}
	h.redirectWith(c, dashboardURL(filter, q), success("Task created."))
}

func (h *Handler) EditTask(c *gin.Context) {
	t, err := h.Tasks.Get(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.redirectWith(c, "/dashboard", noticeFor(c, err))
		return
	}
	h.render(c, http.StatusOK, "task_edit.html", "Edit task", taskEditView{ID: t.ID, Form: fieldsOf(t)}, nil)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	form := taskFieldsFrom(c)

	_, err := h.Tasks.Update(c.Request.Context(), middleware.SessionFrom(c), id, form)
	switch {
	case err == nil:
		h.redirectWith(c, "/dashboard", success("Task updated."))
	case errors.Is(err, domain.ErrNotFound):
		h.redirectWith(c, "/dashboard", noticeFor(c, err))
	default:
		h.render(c, statusFor(err), "task_edit.html", "Edit task", taskEditView{ID: id, Form: form}, noticeFor(c, err))
	}
}

func (h *Handler) ToggleTask(c *gin.Context) {
	target := dashboardURL(c.PostForm("filter"), c.PostForm("q"))
	t, err := h.Tasks.Toggle(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.redirectWith(c, target, noticeFor(c, err))
		return
	}
	msg := "Task reopened."
	if t.Completed() {
		msg = "Task completed."
	}
	h.redirectWith(c, target, success(msg))
}

func (h *Handler) ConfirmDeleteTask(c *gin.Context) {
	t, err := h.Tasks.Get(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.redirectWith(c, "/dashboard", noticeFor(c, err))
		return
	}
	h.render(c, http.StatusOK, "confirm.html", "Delete task", confirmView{
		Message: "Delete this task? This cannot be undone.",
		Detail:  t.Title,
		Action:  "/tasks/" + t.ID + "/delete",
		Cancel:  "/dashboard",
	}, nil)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	confirmed := c.PostForm("confirm") == "yes"
	if err := h.Tasks.Delete(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), confirmed); err != nil {
		h.redirectWith(c, "/dashboard", noticeFor(c, err))
		return
	}
	h.redirectWith(c, "/dashboard", success("Task deleted."))
}
