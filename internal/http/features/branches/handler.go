package branches

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-tenancy/internal/http/middleware"
	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/tenancy"
)

// Service is the branch scoping manager.
type Service interface {
	Create(ctx context.Context, p domain.Principal, in tenancy.CreateBranchInput) (*domain.Branch, error)
	List(ctx context.Context, p domain.Principal) ([]*domain.Branch, error)
	ListActive(ctx context.Context, p domain.Principal) ([]*domain.Branch, error)
	ListByTenant(ctx context.Context, p domain.Principal, tenantID string) ([]*domain.Branch, error)
	Get(ctx context.Context, p domain.Principal, id string) (*domain.Branch, error)
}

// Handler handles branch endpoints.
type Handler struct {
	branches Service
	rs       *httputil.Responder
}

// NewHandler creates a new branches handler.
func NewHandler(branches Service, rs *httputil.Responder) *Handler {
	return &Handler{branches: branches, rs: rs}
}

// CreateRequest represents a branch creation request.
type CreateRequest struct {
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	ManagerID string `json:"manager_id"`
}

// Create adds a branch to a tenant.
// POST /api/branches
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

	branch, err := h.branches.Create(r.Context(), p, tenancy.CreateBranchInput(req))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "New branch created successfully", "branch", branch)
}

// List returns the branches visible to the caller.
// GET /api/branches
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}
	h.writeList(w, r)(h.branches.List(r.Context(), p))
}

// ListActive returns the active branches visible to the caller.
// GET /api/branches/active
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}
	h.writeList(w, r)(h.branches.ListActive(r.Context(), p))
}

// ListByTenant returns the branches of one tenant.
// GET /api/branches/tenant/{tenantID}
func (h *Handler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}
	h.writeList(w, r)(h.branches.ListByTenant(r.Context(), p, chi.URLParam(r, "tenantID")))
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request) func([]*domain.Branch, error) {
	return func(branches []*domain.Branch, err error) {
		if err != nil {
			h.rs.WriteError(w, r, err)
			return
		}
		httputil.JSON(w, http.StatusOK, branches)
	}
}

// Get returns one branch.
// GET /api/branches/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	branch, err := h.branches.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, branch)
}
