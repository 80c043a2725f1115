// Package memory provides in-memory implementations of the tenancy stores.
// It backs tests and local runs without Postgres.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-tenancy/pkg/domain"
)

// Store holds tenants, branches and users behind a single lock.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time

	tenants  map[uuid.UUID]domain.Tenant
	branches map[uuid.UUID]domain.Branch
	users    map[uuid.UUID]domain.User

	// insertion order, for stable listing
	tenantOrder []uuid.UUID
	branchOrder []uuid.UUID
	userOrder   []uuid.UUID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		tenants:  make(map[uuid.UUID]domain.Tenant),
		branches: make(map[uuid.UUID]domain.Branch),
		users:    make(map[uuid.UUID]domain.User),
	}
}

// Tenants returns the tenant view of the store.
func (s *Store) Tenants() *TenantStore { return &TenantStore{s: s} }

// Branches returns the branch view of the store.
func (s *Store) Branches() *BranchStore { return &BranchStore{s: s} }

// Users returns the user view of the store.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

type snapshot struct {
	tenants     map[uuid.UUID]domain.Tenant
	branches    map[uuid.UUID]domain.Branch
	users       map[uuid.UUID]domain.User
	tenantOrder []uuid.UUID
	branchOrder []uuid.UUID
	userOrder   []uuid.UUID
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		tenants:     maps.Clone(s.tenants),
		branches:    maps.Clone(s.branches),
		users:       maps.Clone(s.users),
		tenantOrder: slices.Clone(s.tenantOrder),
		branchOrder: slices.Clone(s.branchOrder),
		userOrder:   slices.Clone(s.userOrder),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = snap.tenants
	s.branches = snap.branches
	s.users = snap.users
	s.tenantOrder = snap.tenantOrder
	s.branchOrder = snap.branchOrder
	s.userOrder = snap.userOrder
}

type txKey struct{}

// RunInTx runs fn as a unit of work. Any error from fn restores the store to
// its state before fn ran. Units of work are serialized with each other and
// with writes made outside them; nested calls join the outer one.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the write lock. Outside a unit of work it first waits for any
// running one, so a rollback cannot discard the write.
func (s *Store) lock(ctx context.Context) (unlock func()) {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) tenantEmailTaken(email string, except uuid.UUID) bool {
	for id, t := range s.tenants {
		if id != except && t.Email == email {
			return true
		}
	}
	return false
}
