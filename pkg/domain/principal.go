package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID       uuid.UUID
	Role     Role
	TenantID uuid.UUID
	BranchID *uuid.UUID
	Name     string
	Email    string
}

// PrincipalFromUser builds the principal for an authenticated user.
func PrincipalFromUser(u *User) Principal {
	return Principal{
		ID:       u.ID,
		Role:     u.Role,
		TenantID: u.TenantID,
		BranchID: u.BranchID,
		Name:     u.Name,
		Email:    u.Email,
	}
}

// HasRole reports whether the principal holds one of roles.
func (p Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

// IsSuperadmin reports whether the principal is a superadmin.
func (p Principal) IsSuperadmin() bool {
	return p.Role == RoleSuperadmin
}

// InTenant reports whether the principal belongs to tenantID.
func (p Principal) InTenant(tenantID uuid.UUID) bool {
	return p.TenantID == tenantID
}

// InBranch reports whether the principal belongs to branchID.
func (p Principal) InBranch(branchID *uuid.UUID) bool {
	return p.BranchID != nil && branchID != nil && *p.BranchID == *branchID
}
