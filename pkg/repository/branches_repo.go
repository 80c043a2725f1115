package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// BranchesRepository handles branch data persistence.
type BranchesRepository struct {
	db *sql.DB
}

// NewBranchesRepository creates a new branches repository.
func NewBranchesRepository(db *sql.DB) *BranchesRepository {
	return &BranchesRepository{db: db}
}

const branchColumns = `id, tenant_id, name, address, phone, manager_id, is_active, created_at, updated_at`

// Create creates a new branch. Joins the transaction in ctx, if any.
func (r *BranchesRepository) Create(ctx context.Context, branch *domain.Branch) error {
	query := `
		INSERT INTO branches (id, tenant_id, name, address, phone, manager_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := querier(ctx, r.db).ExecContext(ctx, query,
		branch.ID,
		branch.TenantID,
		branch.Name,
		branch.Address,
		branch.Phone,
		branch.ManagerID,
		branch.IsActive,
		branch.CreatedAt,
		branch.UpdatedAt,
	)
	if constraint, ok := foreignKeyConstraint(err); ok {
		if constraint == "branches_manager_id_fkey" {
			return domain.ErrUserNotFound
		}
		return domain.ErrTenantNotFound
	}
	return err
}

// GetByID retrieves a branch by ID.
func (r *BranchesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	return scanBranch(querier(ctx, r.db).QueryRowContext(ctx, query, id))
}

// List retrieves branches matching the filter, oldest first.
func (r *BranchesRepository) List(ctx context.Context, filter domain.BranchFilter) ([]*domain.Branch, error) {
	var (
		conds []string
		args  []any
	)
	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		conds = append(conds, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}

	query := `SELECT ` + branchColumns + ` FROM branches`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := querier(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*domain.Branch
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}

	return branches, rows.Err()
}

func scanBranch(row rowScanner) (*domain.Branch, error) {
	var (
		branch    domain.Branch
		managerID uuid.NullUUID
	)
	err := row.Scan(
		&branch.ID,
		&branch.TenantID,
		&branch.Name,
		&branch.Address,
		&branch.Phone,
		&managerID,
		&branch.IsActive,
		&branch.CreatedAt,
		&branch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBranchNotFound
		}
		return nil, err
	}
	if managerID.Valid {
		branch.ManagerID = &managerID.UUID
	}
	return &branch, nil
}
