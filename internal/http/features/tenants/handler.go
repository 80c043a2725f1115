package tenants

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-tenancy/internal/http/middleware"
	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/tenancy"
)

// Service is the tenant lifecycle manager.
type Service interface {
	Create(ctx context.Context, p domain.Principal, in tenancy.CreateTenantInput) (*domain.Tenant, error)
	List(ctx context.Context, p domain.Principal) ([]*domain.Tenant, error)
	ListActive(ctx context.Context, p domain.Principal) ([]*domain.Tenant, error)
	Get(ctx context.Context, p domain.Principal, id string) (*domain.Tenant, error)
	Update(ctx context.Context, p domain.Principal, id string, in tenancy.UpdateTenantInput) (*domain.Tenant, error)
	Deactivate(ctx context.Context, p domain.Principal, id string) (*domain.Tenant, error)
	Reactivate(ctx context.Context, p domain.Principal, id string) (*domain.Tenant, error)
}

// Handler handles tenant endpoints.
type Handler struct {
	tenants Service
	rs      *httputil.Responder
}

// NewHandler creates a new tenants handler.
func NewHandler(tenants Service, rs *httputil.Responder) *Handler {
	return &Handler{tenants: tenants, rs: rs}
}

// CreateRequest represents a tenant creation request.
type CreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateRequest represents a partial tenant update.
type UpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Create provisions a tenant and its Main branch.
// POST /api/tenants
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	var req CreateRequest
	if err := httputil.Decode(r, &req); err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	tenant, err := h.tenants.Create(r.Context(), p, tenancy.CreateTenantInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "Tenant created successfully", "tenant", tenant)
}

// List returns every tenant.
// GET /api/tenants
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.tenants.List)
}

// ListActive returns active tenants.
// GET /api/tenants/active
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.tenants.ListActive)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Principal) ([]*domain.Tenant, error)) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	tenants, err := fn(r.Context(), p)
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tenants)
}

// Get returns one tenant.
// GET /api/tenants/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	tenant, err := h.tenants.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tenant)
}

// Update applies a partial update.
// PUT /api/tenants/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	var req UpdateRequest
	if err := httputil.Decode(r, &req); err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	tenant, err := h.tenants.Update(r.Context(), p, chi.URLParam(r, "id"), tenancy.UpdateTenantInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Tenant updated successfully", "tenant", tenant)
}

// Deactivate soft-deletes a tenant.
// PUT /api/tenants/deactivate/{id}
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Deactivate, "Tenant deactivated successfully")
}

// Reactivate restores a deactivated tenant.
// PUT /api/tenants/reactivate/{id}
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Reactivate, "Tenant reactivated successfully")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Principal, string) (*domain.Tenant, error), message string) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	tenant, err := fn(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.Message(w, http.StatusOK, message, "tenant", tenant)
}
