package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/domain"
)

// TenantStore is the tenant view of a Store.
type TenantStore struct {
	s *Store
}

// Create inserts a tenant, rejecting a duplicate email.
func (t *TenantStore) Create(ctx context.Context, tenant *domain.Tenant) error {
	defer t.s.lock(ctx)()

	if t.s.tenantEmailTaken(tenant.Email, tenant.ID) {
		return domain.ErrEmailTaken
	}
	if _, exists := t.s.tenants[tenant.ID]; !exists {
		t.s.tenantOrder = append(t.s.tenantOrder, tenant.ID)
	}
	t.s.tenants[tenant.ID] = *tenant
	return nil
}

// GetByID retrieves a tenant by ID.
func (t *TenantStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	tenant, ok := t.s.tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return &tenant, nil
}

// GetByEmail retrieves a tenant by email.
func (t *TenantStore) GetByEmail(_ context.Context, email string) (*domain.Tenant, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	for _, id := range t.s.tenantOrder {
		if tenant := t.s.tenants[id]; tenant.Email == email {
			return &tenant, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

// List returns tenants in insertion order.
func (t *TenantStore) List(_ context.Context, filter domain.TenantFilter) ([]*domain.Tenant, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var out []*domain.Tenant
	for _, id := range t.s.tenantOrder {
		tenant := t.s.tenants[id]
		if filter.ActiveOnly && !tenant.IsActive {
			continue
		}
		out = append(out, &tenant)
	}
	return out, nil
}

// Update saves the editable fields of a tenant.
func (t *TenantStore) Update(ctx context.Context, tenant *domain.Tenant) error {
	defer t.s.lock(ctx)()

	current, ok := t.s.tenants[tenant.ID]
	if !ok {
		return domain.ErrTenantNotFound
	}
	if t.s.tenantEmailTaken(tenant.Email, tenant.ID) {
		return domain.ErrEmailTaken
	}
	current.Name = tenant.Name
	current.Email = tenant.Email
	current.Phone = tenant.Phone
	current.UpdatedAt = tenant.UpdatedAt
	t.s.tenants[tenant.ID] = current
	return nil
}

// SetActive flips the active flag, reporting ErrStateUnchanged when it already matches.
func (t *TenantStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	defer t.s.lock(ctx)()

	tenant, ok := t.s.tenants[id]
	if !ok {
		return domain.ErrTenantNotFound
	}
	if tenant.IsActive == active {
		return domain.ErrStateUnchanged
	}
	tenant.IsActive = active
	tenant.UpdatedAt = t.s.now()
	t.s.tenants[id] = tenant
	return nil
}
