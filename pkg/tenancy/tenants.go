package tenancy

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// CreateTenantInput holds the fields for provisioning a tenant. Address seeds
// the Main branch.
type CreateTenantInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// UpdateTenantInput holds a partial tenant update. Blank fields are left as is.
type UpdateTenantInput struct {
	Name  string
	Email string
	Phone string
}

// TenantService manages tenant lifecycle. Every operation is superadmin only.
type TenantService struct {
	tenants  TenantStore
	branches BranchStore
	tx       TxRunner
	serviceConfig
}

// NewTenantService creates a new tenant service.
func NewTenantService(tenants TenantStore, branches BranchStore, tx TxRunner, opts ...Option) *TenantService {
	return &TenantService{
		tenants:       tenants,
		branches:      branches,
		tx:            tx,
		serviceConfig: newServiceConfig(opts),
	}
}

// Create provisions a tenant together with its Main branch in one unit of work.
func (s *TenantService) Create(ctx context.Context, p domain.Principal, in CreateTenantInput) (*domain.Tenant, error) {
	if err := s.requireRole(ctx, p, domain.RoleSuperadmin); err != nil {
		return nil, err
	}
	if err := requiredFields(
		auth.Field{Name: "name", Value: in.Name},
		auth.Field{Name: "email", Value: in.Email},
		auth.Field{Name: "phone", Value: in.Phone},
	); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}

	now := s.timestamp()
	tenant := &domain.Tenant{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	branch := &domain.Branch{
		ID:        uuid.New(),
		TenantID:  tenant.ID,
		Name:      domain.MainBranchName,
		Address:   in.Address,
		Phone:     in.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.tenants.GetByEmail(ctx, in.Email); err == nil {
			return domain.Conflict("email already registered")
		} else if !errors.Is(err, domain.ErrTenantNotFound) {
			return domain.Unexpected(err, "failed to check tenant email")
		}

		if err := s.tenants.Create(ctx, tenant); err != nil {
			if errors.Is(err, domain.ErrEmailTaken) {
				return domain.Conflict("email already registered")
			}
			return domain.Unexpected(err, "failed to create tenant")
		}
		if err := s.branches.Create(ctx, branch); err != nil {
			return domain.Unexpected(err, "failed to create main branch")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tenant created", "tenant_id", tenant.ID, "main_branch_id", branch.ID, "actor_id", p.ID)
	s.metrics.IncrementTenantCreated()
	s.metrics.IncrementBranchCreated()
	return tenant, nil
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context, p domain.Principal) ([]*domain.Tenant, error) {
	return s.list(ctx, p, domain.TenantFilter{}, "no tenants found")
}

// ListActive returns active tenants.
func (s *TenantService) ListActive(ctx context.Context, p domain.Principal) ([]*domain.Tenant, error) {
	return s.list(ctx, p, domain.TenantFilter{ActiveOnly: true}, "no active tenants found")
}

func (s *TenantService) list(ctx context.Context, p domain.Principal, filter domain.TenantFilter, emptyMsg string) ([]*domain.Tenant, error) {
	if err := s.requireRole(ctx, p, domain.RoleSuperadmin); err != nil {
		return nil, err
	}
	tenants, err := s.tenants.List(ctx, filter)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list tenants")
	}
	if len(tenants) == 0 {
		return nil, domain.NotFoundEmpty(emptyMsg)
	}
	return tenants, nil
}

// Get returns a tenant by ID.
func (s *TenantService) Get(ctx context.Context, p domain.Principal, rawID string) (*domain.Tenant, error) {
	if err := s.requireRole(ctx, p, domain.RoleSuperadmin); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(rawID, "tenant")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Update applies a partial update. A changed email must not belong to another tenant.
func (s *TenantService) Update(ctx context.Context, p domain.Principal, rawID string, in UpdateTenantInput) (*domain.Tenant, error) {
	if err := s.requireRole(ctx, p, domain.RoleSuperadmin); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(rawID, "tenant")
	if err != nil {
		return nil, err
	}
	tenant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email != "" && in.Email != tenant.Email {
		if err := validateEmail(in.Email); err != nil {
			return nil, err
		}
		if other, err := s.tenants.GetByEmail(ctx, in.Email); err == nil && other.ID != tenant.ID {
			return nil, domain.Conflict("email already in use")
		} else if err != nil && !errors.Is(err, domain.ErrTenantNotFound) {
			return nil, domain.Unexpected(err, "failed to check tenant email")
		}
	}

	tenant.Name = coalesce(in.Name, tenant.Name)
	tenant.Email = coalesce(in.Email, tenant.Email)
	tenant.Phone = coalesce(in.Phone, tenant.Phone)
	tenant.UpdatedAt = s.timestamp()

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, writeErr(err, "failed to update tenant")
	}

	s.logger.InfoContext(ctx, "tenant updated", "tenant_id", tenant.ID, "actor_id", p.ID)
	return tenant, nil
}

// Deactivate marks an active tenant inactive.
func (s *TenantService) Deactivate(ctx context.Context, p domain.Principal, rawID string) (*domain.Tenant, error) {
	return s.setActive(ctx, p, rawID, false)
}

// Reactivate marks an inactive tenant active.
func (s *TenantService) Reactivate(ctx context.Context, p domain.Principal, rawID string) (*domain.Tenant, error) {
	return s.setActive(ctx, p, rawID, true)
}

func (s *TenantService) setActive(ctx context.Context, p domain.Principal, rawID string, active bool) (*domain.Tenant, error) {
	if err := s.requireRole(ctx, p, domain.RoleSuperadmin); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(rawID, "tenant")
	if err != nil {
		return nil, err
	}
	tenant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	unchanged := domain.InvalidState("tenant is already deactivated")
	if active {
		unchanged = domain.InvalidState("tenant is already active")
	}
	if tenant.IsActive == active {
		return nil, unchanged
	}

	if err := s.tenants.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, domain.ErrStateUnchanged) {
			return nil, unchanged
		}
		return nil, writeErr(err, "failed to update tenant state")
	}

	s.logger.InfoContext(ctx, "tenant state changed", "tenant_id", id, "active", active, "actor_id", p.ID)
	s.metrics.IncrementStateTransition("tenant", active)
	return s.load(ctx, id)
}

func (s *TenantService) load(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, domain.ErrTenantNotFound, "tenant not found")
	}
	return tenant, nil
}
