package domain

import (
	"time"

	"github.com/google/uuid"
)

// MainBranchName is the name of the branch provisioned with every tenant.
const MainBranchName = "Main"

// Tenant represents an organizational account that owns branches and users.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantFilter narrows tenant listings.
type TenantFilter struct {
	ActiveOnly bool
}
