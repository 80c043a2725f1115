// Package admin embeds the multi-tenant admin API into a host application.
//
// Setup:
//
//  1. Apply the schema, either with Config.AutoMigrate or by running the
//     goose migrations in pkg/repository/migrations
//  2. Create an Admin instance and mount its router
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	a, err := admin.New(ctx, admin.Config{
//	    DB:          db,
//	    JWTSecret:   "your-secret-key-at-least-32-chars",
//	    AutoMigrate: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", a.Router())
//	http.ListenAndServe(":8080", r)
//
// Protecting host routes with the same credentials:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(a.AuthMiddleware())
//	    r.Get("/reports", func(w http.ResponseWriter, r *http.Request) {
//	        p, _ := admin.PrincipalFrom(r.Context())
//	        ...
//	    })
//	})
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	httpserver "github.com/tendant/simple-tenancy/internal/http"
	"github.com/tendant/simple-tenancy/internal/http/middleware"
	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/metrics"
	"github.com/tendant/simple-tenancy/pkg/repository"
	"github.com/tendant/simple-tenancy/pkg/tenancy"
)

// Config holds the configuration for an embedded admin API.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the secret key for signing tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in tokens (default: "simple-tenancy").
	JWTIssuer string

	// AutoMigrate applies pending migrations in New.
	AutoMigrate bool

	// Metrics enables instrumentation and GET /metrics (optional).
	Metrics *metrics.Metrics

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Admin is an embedded tenancy admin API.
type Admin struct {
	config   Config
	gate     *auth.Gate
	tenants  *tenancy.TenantService
	branches *tenancy.BranchService
	users    *tenancy.UserService
	rs       *httputil.Responder
}

// New creates an Admin instance. Without AutoMigrate it returns an error if
// the schema has not been applied.
func New(ctx context.Context, cfg Config) (*Admin, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, cfg.DB); err != nil {
			return nil, fmt.Errorf("admin: %w", err)
		}
	} else if err := validateSchema(ctx, cfg.DB); err != nil {
		return nil, err
	}

	tenantsRepo := repository.NewTenantsRepository(cfg.DB)
	branchesRepo := repository.NewBranchesRepository(cfg.DB)
	usersRepo := repository.NewUsersRepository(cfg.DB)
	txRunner := repository.NewTxRunner(cfg.DB)

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
	})
	opts := []tenancy.Option{tenancy.WithLogger(cfg.Logger), tenancy.WithMetrics(cfg.Metrics)}

	return &Admin{
		config:   cfg,
		gate:     auth.NewGate(tokens, usersRepo, cfg.Logger),
		tenants:  tenancy.NewTenantService(tenantsRepo, branchesRepo, txRunner, opts...),
		branches: tenancy.NewBranchService(branchesRepo, tenantsRepo, usersRepo, opts...),
		users:    tenancy.NewUserService(usersRepo, tenantsRepo, branchesRepo, auth.Argon2Hasher{}, tokens, opts...),
		rs:       httputil.NewResponder(cfg.Logger, false),
	}, nil
}

// Router returns the admin API routes:
//
//	/api/tenants    - tenant lifecycle (superadmin)
//	/api/branches   - branch scoping (superadmin, owner)
//	/api/users      - login and user provisioning
//	/health         - liveness and database ping
//	/metrics        - Prometheus scrape (if Metrics is set)
func (a *Admin) Router() http.Handler {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:   a.config.Logger,
		Gate:     a.gate,
		Tenants:  a.tenants,
		Branches: a.branches,
		Users:    a.users,
		Metrics:  a.config.Metrics,
		Health:   a.config.DB.PingContext,
		LoginRateLimit: middleware.RateLimitConfig{
			Enabled:  true,
			Requests: 10,
			Window:   time.Minute,
			Logger:   a.config.Logger,
		},
		SecurityHeaders:    middleware.APISecurityHeaders(true),
		MaxRequestBodySize: 1 << 20,
	})
}

// AuthMiddleware returns middleware that authenticates bearer tokens issued
// by this instance. Use PrincipalFrom in the wrapped handlers.
func (a *Admin) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Authenticate(a.gate, a.rs)
}

// PrincipalFrom extracts the authenticated principal from a context.
// Use after AuthMiddleware.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	return middleware.PrincipalFrom(ctx)
}

// Tenants returns the tenant lifecycle manager for direct use.
func (a *Admin) Tenants() *tenancy.TenantService { return a.tenants }

// Branches returns the branch scoping manager for direct use.
func (a *Admin) Branches() *tenancy.BranchService { return a.branches }

// Users returns the user provisioning manager for direct use.
func (a *Admin) Users() *tenancy.UserService { return a.users }

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("admin: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("admin: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("admin: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-tenancy"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(ctx context.Context, db *sql.DB) error {
	requiredTables := []string{"tenants", "branches", "users"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("admin: missing table '%s' - run migrations first", table)
		}
		if err != nil {
			return fmt.Errorf("admin: failed to check schema: %w", err)
		}
	}

	return nil
}
