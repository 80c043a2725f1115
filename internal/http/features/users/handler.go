package users

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-tenancy/internal/http/middleware"
	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/tenancy"
)

// Service is the user provisioning and scoping manager.
type Service interface {
	Login(ctx context.Context, email, password string) (*tenancy.LoginResult, error)
	Create(ctx context.Context, p domain.Principal, in tenancy.CreateUserInput) (*domain.User, error)
	List(ctx context.Context, p domain.Principal) ([]*domain.User, error)
	Get(ctx context.Context, p domain.Principal, id string) (*domain.User, error)
	Update(ctx context.Context, p domain.Principal, id string, in tenancy.UpdateUserInput) (*domain.User, error)
	Deactivate(ctx context.Context, p domain.Principal, id string) (*domain.User, error)
	Reactivate(ctx context.Context, p domain.Principal, id string) (*domain.User, error)
}

// Handler handles user endpoints.
type Handler struct {
	users Service
	rs    *httputil.Responder
}

// NewHandler creates a new users handler.
func NewHandler(users Service, rs *httputil.Responder) *Handler {
	return &Handler{users: users, rs: rs}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// CreateRequest represents a user creation request.
type CreateRequest struct {
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// UpdateRequest represents a partial user update.
type UpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
// POST /api/users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.Decode(r, &req); err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     result.Token.Token,
		TokenType: result.Token.TokenType,
		ExpiresAt: result.Token.ExpiresAt,
		User:      result.User,
	})
}

// Create provisions a user.
// POST /api/users
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

	user, err := h.users.Create(r.Context(), p, tenancy.CreateUserInput(req))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "User created successfully", "user", user)
}

// List returns the users visible to the caller.
// GET /api/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	users, err := h.users.List(r.Context(), p)
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, users)
}

// Get returns one user.
// GET /api/users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	user, err := h.users.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// Update applies a partial update.
// PUT /api/users/{id}
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

	user, err := h.users.Update(r.Context(), p, chi.URLParam(r, "id"), tenancy.UpdateUserInput(req))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.Message(w, http.StatusOK, "User updated successfully", "user", user)
}

// Deactivate soft-deletes a user.
// PUT /api/users/deactivate/{id}
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.users.Deactivate, "User deactivated successfully")
}

// Reactivate restores a deactivated user.
// PUT /api/users/reactivate/{id}
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.users.Reactivate, "User reactivated successfully")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Principal, string) (*domain.User, error), message string) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.rs.WriteError(w, r, middleware.ErrNoPrincipal)
		return
	}

	user, err := fn(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.rs.WriteError(w, r, err)
		return
	}
	httputil.Message(w, http.StatusOK, message, "user", user)
}
