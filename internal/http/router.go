package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/simple-tenancy/internal/http/features/branches"
	"github.com/tendant/simple-tenancy/internal/http/features/tenants"
	"github.com/tendant/simple-tenancy/internal/http/features/users"
	"github.com/tendant/simple-tenancy/internal/http/middleware"
	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/metrics"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger   *slog.Logger
	Gate     middleware.Gate
	Tenants  tenants.Service
	Branches branches.Service
	Users    users.Service

	// Metrics enables request instrumentation and GET /metrics when set.
	Metrics *metrics.Metrics
	// Health reports readiness of backing stores. Optional.
	Health func(ctx context.Context) error

	LoginRateLimit     middleware.RateLimitConfig
	SecurityHeaders    middleware.SecurityHeadersConfig
	MaxRequestBodySize int64
	// Debug exposes the cause of internal errors in responses.
	Debug bool
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	rs := httputil.NewResponder(cfg.Logger, cfg.Debug)

	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				cfg.Logger.ErrorContext(r.Context(), "health check failed", "error", err)
				httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	authenticate := middleware.Authenticate(cfg.Gate, rs)

	tenantsHandler := tenants.NewHandler(cfg.Tenants, rs)
	r.Route("/api/tenants", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRoles(cfg.Gate, rs, domain.RoleSuperadmin))
		tenantsHandler.RegisterRoutes(r)
	})

	branchesHandler := branches.NewHandler(cfg.Branches, rs)
	r.Route("/api/branches", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRoles(cfg.Gate, rs, domain.RoleSuperadmin, domain.RoleOwner))
		branchesHandler.RegisterRoutes(r)
	})

	usersHandler := users.NewHandler(cfg.Users, rs)
	r.Route("/api/users", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.LoginRateLimit)).Post("/login", usersHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			usersHandler.RegisterRoutes(r, middleware.RequireRoles(cfg.Gate, rs, domain.RoleSuperadmin, domain.RoleOwner, domain.RoleManager))
		})
	})

	return r
}
