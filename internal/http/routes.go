package http

import (
	"net/http"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/http/handlers"
	"taskboard/internal/http/middleware"
	"taskboard/internal/http/templates"
	"taskboard/internal/session"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything RegisterRoutes wires together.
type Deps struct {
	Handler  *handlers.Handler
	Health   *handlers.HealthHandler
	Hub      *ws.Hub
	Sessions session.Store

	AllowedOrigin string

	AuthRateLimit  int
	AuthRateWindow time.Duration
	TaskRateLimit  int
	TaskRateWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) error {
	tmpl, err := templates.Load()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	if d.AuthRateLimit <= 0 {
		d.AuthRateLimit, d.AuthRateWindow = 5, time.Minute
	}
	if d.TaskRateLimit <= 0 {
		d.TaskRateLimit, d.TaskRateWindow = 30, time.Minute
	}

	h := d.Handler

	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.Metrics())

	// Health checks (no session, no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.StaticFS("/static", http.FS(templates.Static()))

	app := r.Group("/")
	app.Use(middleware.LoadSession(d.Sessions))

	// Auth
	authRL := middleware.RedisRateLimit(d.AuthRateLimit, d.AuthRateWindow)
	app.GET("/", h.Home)
	app.GET("/login", h.LoginPage)
	app.POST("/login", authRL, h.Login)
	app.GET("/register", h.RegisterPage)
	app.POST("/register", authRL, h.Register)
	app.POST("/logout", h.Logout)

	// Any logged-in user
	user := app.Group("/")
	user.Use(middleware.RequireRole(""))
	{
		taskRL := middleware.UserRateLimit("tasks", d.TaskRateLimit, d.TaskRateWindow)

		user.GET("/dashboard", h.Dashboard)
		user.POST("/tasks", taskRL, h.CreateTask)
		user.GET("/tasks/:id/edit", h.EditTask)
		user.POST("/tasks/:id", taskRL, h.UpdateTask)
		user.POST("/tasks/:id/toggle", taskRL, h.ToggleTask)
		user.GET("/tasks/:id/delete", h.ConfirmDeleteTask)
		user.POST("/tasks/:id/delete", taskRL, h.DeleteTask)

		user.GET("/profile", h.ProfilePage)
		user.POST("/profile", taskRL, h.SaveProfile)
		user.GET("/profile/delete", h.ConfirmDeleteAccount)
		user.POST("/profile/delete", h.DeleteAccount)
	}

	admin := app.Group("/admin")
	admin.Use(middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("", h.AdminDashboard)
		admin.GET("/tasks/:id", h.AdminTaskDetail)
		admin.GET("/users/:id/delete", h.ConfirmDeleteUser)
		admin.POST("/users/:id/delete", h.DeleteUser)
	}

	// Live activity feed for the admin dashboard
	app.GET("/ws/activity", ws.HandleWS(d.Hub, d.AllowedOrigin, middleware.SessionFrom))

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "page not found")
	})
	return nil
}
