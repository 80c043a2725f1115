package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// BootstrapInput names the initial superadmin and the tenant it belongs to.
type BootstrapInput struct {
	TenantName string
	Email      string
	Password   string
}

// Bootstrap seeds a superadmin so a fresh deployment can issue its first
// token. It is idempotent: an existing superadmin with the same email is
// returned with created=false. A new platform tenant gets its Main branch in
// the same unit of work.
func Bootstrap(ctx context.Context, tenants TenantStore, branches BranchStore, users UserStore, tx TxRunner, hasher auth.PasswordHasher, in BootstrapInput, opts ...Option) (user *domain.User, created bool, err error) {
	cfg := newServiceConfig(opts)
	if in.Email == "" || in.Password == "" {
		return nil, false, fmt.Errorf("bootstrap: email and password are required")
	}
	if in.TenantName == "" {
		in.TenantName = "Platform"
	}

	err = tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := users.GetByEmail(ctx, in.Email)
		if err == nil {
			if existing.Role != domain.RoleSuperadmin {
				return fmt.Errorf("bootstrap: %s exists with role %s", in.Email, existing.Role)
			}
			user = existing
			return nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("bootstrap: lookup user: %w", err)
		}

		now := cfg.timestamp()
		tenant, err := tenants.GetByEmail(ctx, in.Email)
		if errors.Is(err, domain.ErrTenantNotFound) {
			tenant = &domain.Tenant{
				ID:        uuid.New(),
				Name:      in.TenantName,
				Email:     in.Email,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tenants.Create(ctx, tenant); err != nil {
				return fmt.Errorf("bootstrap: create tenant: %w", err)
			}
			err = branches.Create(ctx, &domain.Branch{
				ID:        uuid.New(),
				TenantID:  tenant.ID,
				Name:      domain.MainBranchName,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("bootstrap: create main branch: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("bootstrap: tenant: %w", err)
		}

		hash, err := hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("bootstrap: hash password: %w", err)
		}
		user = &domain.User{
			ID:           uuid.New(),
			TenantID:     tenant.ID,
			Name:         "Superadmin",
			Email:        in.Email,
			Role:         domain.RoleSuperadmin,
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("bootstrap: create user: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		cfg.logger.InfoContext(ctx, "superadmin seeded", "user_id", user.ID, "tenant_id", user.TenantID)
		cfg.metrics.IncrementUserCreated(string(domain.RoleSuperadmin))
	}
	return user.WithoutPassword(), created, nil
}
