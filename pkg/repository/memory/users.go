package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/domain"
)

// UserStore is the user view of a Store.
type UserStore struct {
	s *Store
}

// Create inserts a user after checking email uniqueness and references.
func (u *UserStore) Create(ctx context.Context, user *domain.User) error {
	defer u.s.lock(ctx)()

	if u.s.emailTaken(user.Email, user.ID) {
		return domain.ErrEmailTaken
	}
	if _, ok := u.s.tenants[user.TenantID]; !ok {
		return domain.ErrTenantNotFound
	}
	if user.BranchID != nil {
		if _, ok := u.s.branches[*user.BranchID]; !ok {
			return domain.ErrBranchNotFound
		}
	}
	if _, exists := u.s.users[user.ID]; !exists {
		u.s.userOrder = append(u.s.userOrder, user.ID)
	}
	u.s.users[user.ID] = cloneUser(*user)
	return nil
}

// GetByID retrieves a user by ID.
func (u *UserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user = cloneUser(user)
	return &user, nil
}

// GetByEmail retrieves a user by exact email.
func (u *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, id := range u.s.userOrder {
		if user := u.s.users[id]; user.Email == email {
			user = cloneUser(user)
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// List returns users matching the filter in insertion order.
func (u *UserStore) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	var out []*domain.User
	for _, id := range u.s.userOrder {
		user := u.s.users[id]
		if filter.TenantID != nil && user.TenantID != *filter.TenantID {
			continue
		}
		if filter.BranchID != nil && (user.BranchID == nil || *user.BranchID != *filter.BranchID) {
			continue
		}
		if filter.ExcludeRole != "" && user.Role == filter.ExcludeRole {
			continue
		}
		user = cloneUser(user)
		out = append(out, &user)
	}
	return out, nil
}

// Update saves the editable fields of a user.
func (u *UserStore) Update(ctx context.Context, user *domain.User) error {
	defer u.s.lock(ctx)()

	current, ok := u.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.s.emailTaken(user.Email, user.ID) {
		return domain.ErrEmailTaken
	}
	current.Name = user.Name
	current.Email = user.Email
	current.Phone = user.Phone
	current.PasswordHash = user.PasswordHash
	current.UpdatedAt = user.UpdatedAt
	u.s.users[user.ID] = current
	return nil
}

// SetActive flips the active flag, reporting ErrStateUnchanged when it already matches.
func (u *UserStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	defer u.s.lock(ctx)()

	user, ok := u.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if user.IsActive == active {
		return domain.ErrStateUnchanged
	}
	user.IsActive = active
	user.UpdatedAt = u.s.now()
	u.s.users[id] = user
	return nil
}

// cloneUser detaches the branch pointer from the stored record.
func cloneUser(u domain.User) domain.User {
	if u.BranchID != nil {
		id := *u.BranchID
		u.BranchID = &id
	}
	return u
}
