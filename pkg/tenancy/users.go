package tenancy

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

const invalidCredentials = "invalid email or password"

// CreateUserInput holds the fields for a new user. BranchID is required for
// branch-bound roles only.
type CreateUserInput struct {
	TenantID string
	BranchID string
	Name     string
	Email    string
	Phone    string
	Role     string
	Password string
}

// UpdateUserInput holds a partial user update. Blank fields are left as is.
type UpdateUserInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	Token *auth.IssuedToken
	User  *domain.User
}

// UserService provisions users and applies role-scoped visibility.
type UserService struct {
	users    UserStore
	tenants  TenantStore
	branches BranchStore
	hasher   auth.PasswordHasher
	tokens   TokenIssuer
	serviceConfig
}

// NewUserService creates a new user service.
func NewUserService(users UserStore, tenants TenantStore, branches BranchStore, hasher auth.PasswordHasher, tokens TokenIssuer, opts ...Option) *UserService {
	return &UserService{
		users:         users,
		tenants:       tenants,
		branches:      branches,
		hasher:        hasher,
		tokens:        tokens,
		serviceConfig: newServiceConfig(opts),
	}
}

var (
	userAdminRoles   = []domain.Role{domain.RoleSuperadmin, domain.RoleOwner, domain.RoleManager}
	managerCreatable = []domain.Role{domain.RoleStaff, domain.RoleRider, domain.RoleCustomer}
)

// Login verifies credentials and issues a token. Every failure is reported
// with the same message.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := requiredFields(
		auth.Field{Name: "email", Value: email},
		auth.Field{Name: "password", Value: password},
	); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, s.loginFailed(ctx, "unknown email")
		}
		return nil, domain.Unexpected(err, "failed to load user")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, "password mismatch")
	}
	if !user.IsActive {
		return nil, s.loginFailed(ctx, "user deactivated")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	s.metrics.IncrementLogin("success")
	return &LoginResult{Token: token, User: user.WithoutPassword()}, nil
}

func (s *UserService) loginFailed(ctx context.Context, reason string) error {
	s.logger.WarnContext(ctx, "login failed", "reason", reason)
	s.metrics.IncrementLogin("failure")
	return domain.NewError(domain.KindUnauthorized, invalidCredentials)
}

// Create provisions a user bound to a tenant and, for branch-bound roles, a
// branch of that tenant. The password is hashed before it reaches the store.
func (s *UserService) Create(ctx context.Context, p domain.Principal, in CreateUserInput) (*domain.User, error) {
	if err := s.requireRole(ctx, p, userAdminRoles...); err != nil {
		return nil, err
	}
	if err := requiredFields(
		auth.Field{Name: "tenant_id", Value: in.TenantID},
		auth.Field{Name: "name", Value: in.Name},
		auth.Field{Name: "email", Value: in.Email},
		auth.Field{Name: "phone", Value: in.Phone},
		auth.Field{Name: "role", Value: in.Role},
		auth.Field{Name: "password", Value: in.Password},
	); err != nil {
		return nil, err
	}
	tenantID, err := domain.ParseID(in.TenantID, "tenant")
	if err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, domain.Validation("invalid role")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}

	var branchID *uuid.UUID
	if strings.TrimSpace(in.BranchID) != "" {
		id, err := domain.ParseID(in.BranchID, "branch")
		if err != nil {
			return nil, err
		}
		branchID = &id
	}

	if err := s.canCreate(ctx, p, tenantID, branchID, role); err != nil {
		return nil, err
	}

	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, lookupErr(err, domain.ErrTenantNotFound, "tenant not found")
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.Conflict("email is already registered")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.Unexpected(err, "failed to check user email")
	}

	if branchID == nil && role.RequiresBranch() {
		return nil, domain.Validation("branch is required for this role")
	}
	if branchID != nil {
		branch, err := s.branches.GetByID(ctx, *branchID)
		if err != nil {
			return nil, lookupErr(err, domain.ErrBranchNotFound, "branch not found")
		}
		if branch.TenantID != tenantID {
			return nil, domain.Validation("branch does not belong to the specified tenant")
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to hash password")
	}

	now := s.timestamp()
	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		BranchID:     branchID,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, writeErr(err, "failed to create user")
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "tenant_id", tenantID, "role", role, "actor_id", p.ID)
	s.metrics.IncrementUserCreated(string(role))
	return user.WithoutPassword(), nil
}

// canCreate confines owners to their tenant and managers to their branch.
func (s *UserService) canCreate(ctx context.Context, p domain.Principal, tenantID uuid.UUID, branchID *uuid.UUID, role domain.Role) error {
	switch p.Role {
	case domain.RoleSuperadmin:
		return nil
	case domain.RoleOwner:
		if !p.InTenant(tenantID) {
			return s.deny(ctx, p, "user create outside own tenant")
		}
		if role == domain.RoleSuperadmin {
			return s.deny(ctx, p, "owner cannot create superadmin")
		}
		return nil
	case domain.RoleManager:
		if !p.InTenant(tenantID) || (branchID != nil && !p.InBranch(branchID)) {
			return s.deny(ctx, p, "user create outside own branch")
		}
		if !slices.Contains(managerCreatable, role) {
			return s.deny(ctx, p, "manager cannot create role "+string(role))
		}
		return nil
	}
	return s.deny(ctx, p, "role cannot create users")
}

// List returns the users visible to the principal: everything for a
// superadmin, the own tenant for an owner, and non-owners of the own tenant
// and branch for a manager. Other roles are forbidden.
func (s *UserService) List(ctx context.Context, p domain.Principal) ([]*domain.User, error) {
	if err := s.requireRole(ctx, p, userAdminRoles...); err != nil {
		return nil, err
	}

	var filter domain.UserFilter
	switch p.Role {
	case domain.RoleOwner:
		tenantID := p.TenantID
		filter.TenantID = &tenantID
	case domain.RoleManager:
		if p.BranchID == nil {
			return nil, s.deny(ctx, p, "manager without branch")
		}
		tenantID, branchID := p.TenantID, *p.BranchID
		filter.TenantID = &tenantID
		filter.BranchID = &branchID
		filter.ExcludeRole = domain.RoleOwner
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list users")
	}
	if len(users) == 0 {
		return nil, domain.NotFoundEmpty("no users found")
	}
	for i, u := range users {
		users[i] = u.WithoutPassword()
	}
	return users, nil
}

// Get returns a user the principal may see.
func (s *UserService) Get(ctx context.Context, p domain.Principal, rawID string) (*domain.User, error) {
	user, err := s.loadVisible(ctx, p, rawID)
	if err != nil {
		return nil, err
	}
	return user.WithoutPassword(), nil
}

// Update applies a partial update to a user the principal may see. A new
// password is hashed like on creation.
func (s *UserService) Update(ctx context.Context, p domain.Principal, rawID string, in UpdateUserInput) (*domain.User, error) {
	user, err := s.loadVisible(ctx, p, rawID)
	if err != nil {
		return nil, err
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email != "" && in.Email != user.Email {
		if err := validateEmail(in.Email); err != nil {
			return nil, err
		}
		if other, err := s.users.GetByEmail(ctx, in.Email); err == nil && other.ID != user.ID {
			return nil, domain.Conflict("email already in use")
		} else if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Unexpected(err, "failed to check user email")
		}
	}

	user.Name = coalesce(in.Name, user.Name)
	user.Email = coalesce(in.Email, user.Email)
	user.Phone = coalesce(in.Phone, user.Phone)
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, domain.Unexpected(err, "failed to hash password")
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.timestamp()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, writeErr(err, "failed to update user")
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", user.ID, "actor_id", p.ID, "password_changed", in.Password != "")
	return user.WithoutPassword(), nil
}

// Deactivate marks an active user inactive.
func (s *UserService) Deactivate(ctx context.Context, p domain.Principal, rawID string) (*domain.User, error) {
	return s.setActive(ctx, p, rawID, false)
}

// Reactivate marks an inactive user active.
func (s *UserService) Reactivate(ctx context.Context, p domain.Principal, rawID string) (*domain.User, error) {
	return s.setActive(ctx, p, rawID, true)
}

func (s *UserService) setActive(ctx context.Context, p domain.Principal, rawID string, active bool) (*domain.User, error) {
	if err := s.requireRole(ctx, p, userAdminRoles...); err != nil {
		return nil, err
	}
	user, err := s.loadVisible(ctx, p, rawID)
	if err != nil {
		return nil, err
	}
	if user.ID == p.ID {
		return nil, s.deny(ctx, p, "activation toggle on self")
	}

	unchanged := domain.InvalidState("user is already deactivated")
	if active {
		unchanged = domain.InvalidState("user is already active")
	}
	if user.IsActive == active {
		return nil, unchanged
	}

	if err := s.users.SetActive(ctx, user.ID, active); err != nil {
		if errors.Is(err, domain.ErrStateUnchanged) {
			return nil, unchanged
		}
		return nil, writeErr(err, "failed to update user state")
	}

	s.logger.InfoContext(ctx, "user state changed", "user_id", user.ID, "active", active, "actor_id", p.ID)
	s.metrics.IncrementStateTransition("user", active)

	updated, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, lookupErr(err, domain.ErrUserNotFound, "user not found")
	}
	return updated.WithoutPassword(), nil
}

// loadVisible parses the id, loads the user and checks the principal's scope.
func (s *UserService) loadVisible(ctx context.Context, p domain.Principal, rawID string) (*domain.User, error) {
	id, err := domain.ParseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, domain.ErrUserNotFound, "user not found")
	}
	if !canSee(p, user) {
		return nil, s.deny(ctx, p, "user outside scope")
	}
	return user, nil
}

func canSee(p domain.Principal, u *domain.User) bool {
	if p.ID == u.ID {
		return true
	}
	switch p.Role {
	case domain.RoleSuperadmin:
		return true
	case domain.RoleOwner:
		return p.InTenant(u.TenantID) && u.Role != domain.RoleSuperadmin
	case domain.RoleManager:
		return p.InTenant(u.TenantID) && p.InBranch(u.BranchID) &&
			u.Role != domain.RoleOwner && u.Role != domain.RoleSuperadmin
	}
	return false
}
