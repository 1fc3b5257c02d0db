package handlers

import (
	"taskboard/internal/service"
	"taskboard/internal/session"
)

// Handler serves the HTML pages and their form posts.
type Handler struct {
	Sessions session.Store
	Auth     *service.AuthService
	Tasks    *service.TaskService
	Admin    *service.AdminService
	Profile  *service.ProfileService

	// SecureCookies marks the flash cookie Secure.
	SecureCookies bool
}

func NewHandler(sessions session.Store, auth *service.AuthService, tasks *service.TaskService, admin *service.AdminService, profile *service.ProfileService) *Handler {
	return &Handler{
		Sessions: sessions,
		Auth:     auth,
		Tasks:    tasks,
		Admin:    admin,
		Profile:  profile,
	}
}
