package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/domain"
)

// BranchStore is the branch view of a Store.
type BranchStore struct {
	s *Store
}

// Create inserts a branch after checking its tenant and manager exist.
func (b *BranchStore) Create(ctx context.Context, branch *domain.Branch) error {
	defer b.s.lock(ctx)()

	if _, ok := b.s.tenants[branch.TenantID]; !ok {
		return domain.ErrTenantNotFound
	}
	if branch.ManagerID != nil {
		if _, ok := b.s.users[*branch.ManagerID]; !ok {
			return domain.ErrUserNotFound
		}
	}
	if _, exists := b.s.branches[branch.ID]; !exists {
		b.s.branchOrder = append(b.s.branchOrder, branch.ID)
	}
	b.s.branches[branch.ID] = cloneBranch(*branch)
	return nil
}

// GetByID retrieves a branch by ID.
func (b *BranchStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Branch, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	branch, ok := b.s.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	branch = cloneBranch(branch)
	return &branch, nil
}

// List returns branches matching the filter in insertion order.
func (b *BranchStore) List(_ context.Context, filter domain.BranchFilter) ([]*domain.Branch, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	var out []*domain.Branch
	for _, id := range b.s.branchOrder {
		branch := b.s.branches[id]
		if filter.TenantID != nil && branch.TenantID != *filter.TenantID {
			continue
		}
		if filter.ActiveOnly && !branch.IsActive {
			continue
		}
		branch = cloneBranch(branch)
		out = append(out, &branch)
	}
	return out, nil
}

func cloneBranch(b domain.Branch) domain.Branch {
	if b.ManagerID != nil {
		id := *b.ManagerID
		b.ManagerID = &id
	}
	return b
}
