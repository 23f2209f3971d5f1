package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes registers the unauthenticated auth routes
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/register", h.HandleRegister)
	r.Post("/api/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers routes that require authentication
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/api/user-profile", h.HandleProfile)
}
