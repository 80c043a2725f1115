package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// TenantsRepository handles tenant data persistence.
type TenantsRepository struct {
	db *sql.DB
}

// NewTenantsRepository creates a new tenants repository.
func NewTenantsRepository(db *sql.DB) *TenantsRepository {
	return &TenantsRepository{db: db}
}

const tenantColumns = `id, name, email, phone, is_active, created_at, updated_at`

// Create creates a new tenant. Joins the transaction in ctx, if any.
func (r *TenantsRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, email, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := querier(ctx, r.db).ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Email,
		tenant.Phone,
		tenant.IsActive,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

// GetByID retrieves a tenant by ID.
func (r *TenantsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(querier(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a tenant by exact email.
func (r *TenantsRepository) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE email = $1`
	return scanTenant(querier(ctx, r.db).QueryRowContext(ctx, query, email))
}

// List retrieves tenants matching the filter, oldest first.
func (r *TenantsRepository) List(ctx context.Context, filter domain.TenantFilter) ([]*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	if filter.ActiveOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := querier(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, rows.Err()
}

// Update updates a tenant's profile fields.
func (r *TenantsRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, email = $3, phone = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := querier(ctx, r.db).ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Email,
		tenant.Phone,
		tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}

	return nil
}

// SetActive flips the active flag. Returns domain.ErrStateUnchanged when the
// tenant already has the requested state.
func (r *TenantsRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE tenants
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1 AND is_active <> $2
	`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, active)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrStateUnchanged
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Email,
		&tenant.Phone,
		&tenant.IsActive,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}
