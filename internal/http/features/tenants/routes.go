package tenants

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers tenant routes on a router mounted at /api/tenants.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/active", h.ListActive)
	r.Put("/deactivate/{id}", h.Deactivate)
	r.Put("/reactivate/{id}", h.Reactivate)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
}
