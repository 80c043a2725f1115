package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the role of a user within its tenant.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleStaff      Role = "staff"
	RoleRider      Role = "rider"
	RoleCustomer   Role = "customer"
)

// Roles lists every known role.
var Roles = []Role{RoleSuperadmin, RoleOwner, RoleManager, RoleStaff, RoleRider, RoleCustomer}

// ParseRole returns the role named s.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// RequiresBranch reports whether users with this role must belong to a branch.
func (r Role) RequiresBranch() bool {
	switch r {
	case RoleManager, RoleStaff, RoleRider, RoleCustomer:
		return true
	}
	return false
}

// User represents an account. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	BranchID     *uuid.UUID `json:"branch_id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// WithoutPassword returns a copy of the user with the password hash cleared.
func (u *User) WithoutPassword() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// UserFilter narrows user listings. Nil fields are not filtered on.
type UserFilter struct {
	TenantID    *uuid.UUID
	BranchID    *uuid.UUID
	ExcludeRole Role
}
