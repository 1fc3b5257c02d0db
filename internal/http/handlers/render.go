package handlers

import (
	"net/url"

	"taskboard/internal/domain"
	"taskboard/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Page is the root value every template receives.
type Page struct {
	Title   string
	Session *domain.Session
	Notice  *Notice
	Data    any
}

// render shows a page. With a nil notice any pending flash is shown instead.
func (h *Handler) render(c *gin.Context, status int, name, title string, data any, n *Notice) {
	if n == nil {
		n = h.takeFlash(c)
	}
	c.HTML(status, name, Page{
		Title:   title,
		Session: middleware.SessionFrom(c),
		Notice:  n,
		Data:    data,
	})
}

type confirmView struct {
	Message string
	Detail  string
	Action  string
	Cancel  string
}

// dashboardURL keeps the filter and search the user was looking at.
func dashboardURL(filter, q string) string {
	v := url.Values{}
	if f := domain.ParseStatusFilter(filter); f != domain.FilterAll {
		v.Set("filter", string(f))
	}
	if q != "" {
		v.Set("q", q)
	}
	if len(v) == 0 {
		return "/dashboard"
	}
	return "/dashboard?" + v.Encode()
}
