// Package tenancy implements the tenant, branch and user managers. Every
// operation takes the acting principal explicitly and enforces data scoping on
// top of the coarse role check done by the credential gate.
package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/metrics"
)

// TenantStore persists tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Tenant, error)
	List(ctx context.Context, filter domain.TenantFilter) ([]*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// BranchStore persists branches.
type BranchStore interface {
	Create(ctx context.Context, branch *domain.Branch) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Branch, error)
	List(ctx context.Context, filter domain.BranchFilter) ([]*domain.Branch, error)
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// TxRunner runs fn as one unit of work. Stores called with the ctx passed to
// fn take part in it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TokenIssuer issues credentials for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (*auth.IssuedToken, error)
}

type serviceConfig struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a manager.
type Option func(*serviceConfig)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) {
		c.now = now
	}
}

func newServiceConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

func (c serviceConfig) timestamp() time.Time {
	return c.now().UTC()
}

// requireRole rejects principals outside roles.
func (c serviceConfig) requireRole(ctx context.Context, p domain.Principal, roles ...domain.Role) error {
	if p.HasRole(roles...) {
		return nil
	}
	return c.deny(ctx, p, "role not permitted")
}

// deny logs a scope denial and returns Forbidden.
func (c serviceConfig) deny(ctx context.Context, p domain.Principal, reason string) error {
	c.logger.WarnContext(ctx, "access denied", "user_id", p.ID, "role", p.Role, "reason", reason)
	c.metrics.IncrementAccessDenied(string(domain.KindForbidden))
	return domain.Forbidden("access denied: insufficient permissions")
}

func requiredFields(fields ...auth.Field) error {
	missing := auth.RequireFields(fields...)
	if len(missing) == 0 {
		return nil
	}
	return domain.Validation("missing required fields: " + strings.Join(missing, ", "))
}

func validateEmail(email string) error {
	if err := auth.ValidateEmail(email); err != nil {
		return domain.WrapError(err, domain.KindValidation, "invalid email address format")
	}
	return nil
}

// lookupErr maps a store lookup failure to a kinded error.
func lookupErr(err error, sentinel error, message string) error {
	if errors.Is(err, sentinel) {
		return domain.NotFound(message)
	}
	return domain.Unexpected(err, "failed to load record")
}

// writeErr maps a store write failure to a kinded error.
func writeErr(err error, message string) error {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return domain.Conflict("email already in use")
	case errors.Is(err, domain.ErrTenantNotFound):
		return domain.NotFound("tenant not found")
	case errors.Is(err, domain.ErrBranchNotFound):
		return domain.NotFound("branch not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return domain.NotFound("user not found")
	}
	return domain.Unexpected(err, message)
}

// coalesce returns v unless it is blank, in which case fallback.
func coalesce(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
