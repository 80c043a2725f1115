package tenancy

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// CreateBranchInput holds the fields for a new branch. ManagerID is optional.
type CreateBranchInput struct {
	TenantID  string
	Name      string
	Address   string
	Phone     string
	ManagerID string
}

// BranchService manages branches. Superadmins see every tenant; owners are
// confined to their own.
type BranchService struct {
	branches BranchStore
	tenants  TenantStore
	users    UserStore
	serviceConfig
}

// NewBranchService creates a new branch service.
func NewBranchService(branches BranchStore, tenants TenantStore, users UserStore, opts ...Option) *BranchService {
	return &BranchService{
		branches:      branches,
		tenants:       tenants,
		users:         users,
		serviceConfig: newServiceConfig(opts),
	}
}

var branchRoles = []domain.Role{domain.RoleSuperadmin, domain.RoleOwner}

// Create adds a branch to a tenant, optionally assigning a manager.
func (s *BranchService) Create(ctx context.Context, p domain.Principal, in CreateBranchInput) (*domain.Branch, error) {
	if err := s.requireRole(ctx, p, branchRoles...); err != nil {
		return nil, err
	}
	if err := requiredFields(
		auth.Field{Name: "tenant_id", Value: in.TenantID},
		auth.Field{Name: "name", Value: in.Name},
		auth.Field{Name: "address", Value: in.Address},
	); err != nil {
		return nil, err
	}
	tenantID, err := domain.ParseID(in.TenantID, "tenant")
	if err != nil {
		return nil, err
	}
	if !p.IsSuperadmin() && !p.InTenant(tenantID) {
		return nil, s.deny(ctx, p, "branch create outside own tenant")
	}

	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, lookupErr(err, domain.ErrTenantNotFound, "tenant not found")
	}

	var managerID *uuid.UUID
	if strings.TrimSpace(in.ManagerID) != "" {
		id, err := domain.ParseID(in.ManagerID, "manager")
		if err != nil {
			return nil, err
		}
		manager, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, lookupErr(err, domain.ErrUserNotFound, "manager not found")
		}
		if manager.Role != domain.RoleManager {
			return nil, domain.Validation("assigned user is not a manager")
		}
		if manager.TenantID != tenantID {
			return nil, domain.Validation("manager does not belong to the specified tenant")
		}
		managerID = &manager.ID
	}

	now := s.timestamp()
	branch := &domain.Branch{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      in.Name,
		Address:   in.Address,
		Phone:     in.Phone,
		ManagerID: managerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, writeErr(err, "failed to create branch")
	}

	s.logger.InfoContext(ctx, "branch created", "branch_id", branch.ID, "tenant_id", tenantID, "actor_id", p.ID)
	s.metrics.IncrementBranchCreated()
	return branch, nil
}

// List returns the branches visible to the principal.
func (s *BranchService) List(ctx context.Context, p domain.Principal) ([]*domain.Branch, error) {
	return s.list(ctx, p, false, "no branches found")
}

// ListActive returns the active branches visible to the principal.
func (s *BranchService) ListActive(ctx context.Context, p domain.Principal) ([]*domain.Branch, error) {
	return s.list(ctx, p, true, "no active branches found")
}

func (s *BranchService) list(ctx context.Context, p domain.Principal, activeOnly bool, emptyMsg string) ([]*domain.Branch, error) {
	if err := s.requireRole(ctx, p, branchRoles...); err != nil {
		return nil, err
	}

	// Non-superadmins are always filtered on their own tenant, never on input.
	filter := domain.BranchFilter{ActiveOnly: activeOnly}
	if !p.IsSuperadmin() {
		tenantID := p.TenantID
		filter.TenantID = &tenantID
	}

	branches, err := s.branches.List(ctx, filter)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list branches")
	}
	if len(branches) == 0 {
		return nil, domain.NotFoundEmpty(emptyMsg)
	}
	return branches, nil
}

// ListByTenant returns every branch of a tenant.
func (s *BranchService) ListByTenant(ctx context.Context, p domain.Principal, rawTenantID string) ([]*domain.Branch, error) {
	if err := s.requireRole(ctx, p, branchRoles...); err != nil {
		return nil, err
	}
	tenantID, err := domain.ParseID(rawTenantID, "tenant")
	if err != nil {
		return nil, err
	}
	if !p.IsSuperadmin() && !p.InTenant(tenantID) {
		return nil, s.deny(ctx, p, "branch listing of foreign tenant")
	}

	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, lookupErr(err, domain.ErrTenantNotFound, "tenant not found")
	}

	branches, err := s.branches.List(ctx, domain.BranchFilter{TenantID: &tenantID})
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list branches")
	}
	if len(branches) == 0 {
		return nil, domain.NotFoundEmpty("no branches found for this tenant")
	}
	return branches, nil
}

// Get returns a branch by ID.
func (s *BranchService) Get(ctx context.Context, p domain.Principal, rawID string) (*domain.Branch, error) {
	if err := s.requireRole(ctx, p, branchRoles...); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(rawID, "branch")
	if err != nil {
		return nil, err
	}

	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, domain.ErrBranchNotFound, "branch not found")
	}
	if !p.IsSuperadmin() && !p.InTenant(branch.TenantID) {
		return nil, s.deny(ctx, p, "branch of foreign tenant")
	}
	return branch, nil
}
