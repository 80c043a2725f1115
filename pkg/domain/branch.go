package domain

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a location of a tenant, optionally run by a manager.
type Branch struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Phone     string     `json:"phone"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BranchFilter narrows branch listings. A nil TenantID means all tenants.
type BranchFilter struct {
	TenantID   *uuid.UUID
	ActiveOnly bool
}
