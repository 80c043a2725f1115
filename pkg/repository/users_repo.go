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

// UsersRepository handles user data persistence.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

const userColumns = `id, tenant_id, branch_id, name, email, phone, role, password_hash, is_active, created_at, updated_at`

// Create creates a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, tenant_id, branch_id, name, email, phone, role, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := querier(ctx, r.db).ExecContext(ctx, query,
		user.ID,
		user.TenantID,
		user.BranchID,
		user.Name,
		user.Email,
		user.Phone,
		string(user.Role),
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapUserWriteError(err)
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(querier(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by exact email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(querier(ctx, r.db).QueryRowContext(ctx, query, email))
}

// List retrieves users matching the filter, oldest first.
func (r *UsersRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	var (
		conds []string
		args  []any
	)
	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		conds = append(conds, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		conds = append(conds, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if filter.ExcludeRole != "" {
		args = append(args, string(filter.ExcludeRole))
		conds = append(conds, fmt.Sprintf("role <> $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := querier(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Update updates a user's profile fields and password hash.
func (r *UsersRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone = $4, password_hash = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := querier(ctx, r.db).ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.UpdatedAt,
	)
	if err != nil {
		return mapUserWriteError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// SetActive flips the active flag. Returns domain.ErrStateUnchanged when the
// user already has the requested state.
func (r *UsersRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE users
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

func mapUserWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if constraint, ok := foreignKeyConstraint(err); ok {
		if constraint == "users_tenant_id_fkey" {
			return domain.ErrTenantNotFound
		}
		return domain.ErrBranchNotFound
	}
	return err
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user     domain.User
		branchID uuid.NullUUID
		role     string
	)
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&branchID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&role,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if branchID.Valid {
		user.BranchID = &branchID.UUID
	}
	user.Role = domain.Role(role)
	return &user, nil
}
