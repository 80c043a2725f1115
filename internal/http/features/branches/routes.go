package branches

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers branch routes on a router mounted at /api/branches.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/active", h.ListActive)
	r.Get("/tenant/{tenantID}", h.ListByTenant)
	r.Get("/{id}", h.Get)
}
