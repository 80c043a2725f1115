package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the authenticated user routes on a router mounted
// at /api/users. admin guards creation and listing.
func (h *Handler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.With(admin).Post("/", h.Create)
	r.With(admin).Get("/", h.List)
	r.Put("/deactivate/{id}", h.Deactivate)
	r.Put("/reactivate/{id}", h.Reactivate)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
}
