package tenancy

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/metrics"
	"github.com/tendant/simple-tenancy/pkg/repository/memory"
)

// plainHasher keeps tests fast; Argon2 is covered in pkg/auth.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (plainHasher) Verify(password, hash string) bool { return hash == "plain$"+password }

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	metrics  *metrics.Metrics
	tokens   *auth.TokenService
	tenants  *TenantService
	branches *BranchService
	users    *UserService
}

var superadmin = domain.Principal{ID: uuid.New(), Role: domain.RoleSuperadmin, TenantID: uuid.New()}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	m := metrics.New()
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("0123456789abcdef0123456789abcdef")})
	opts := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }),
	}

	return &fixture{
		ctx:      context.Background(),
		store:    store,
		metrics:  m,
		tokens:   tokens,
		tenants:  NewTenantService(store.Tenants(), store.Branches(), store, opts...),
		branches: NewBranchService(store.Branches(), store.Tenants(), store.Users(), opts...),
		users:    NewUserService(store.Users(), store.Tenants(), store.Branches(), plainHasher{}, tokens, opts...),
	}
}

// createTenant provisions a tenant and returns it with its Main branch.
func (f *fixture) createTenant(t *testing.T, name, email string) (*domain.Tenant, *domain.Branch) {
	t.Helper()

	tenant, err := f.tenants.Create(f.ctx, superadmin, CreateTenantInput{Name: name, Email: email, Phone: "555", Address: "1 Main St"})
	require.NoError(t, err)

	branches, err := f.store.Branches().List(f.ctx, domain.BranchFilter{TenantID: &tenant.ID})
	require.NoError(t, err)
	require.Len(t, branches, 1)
	return tenant, branches[0]
}

// addBranch creates an extra branch for a tenant.
func (f *fixture) addBranch(t *testing.T, tenantID uuid.UUID, name string) *domain.Branch {
	t.Helper()

	branch, err := f.branches.Create(f.ctx, superadmin, CreateBranchInput{TenantID: tenantID.String(), Name: name, Address: "2 Side St"})
	require.NoError(t, err)
	return branch
}

// seedUser creates a user through the service as superadmin and returns the
// principal it would authenticate as.
func (f *fixture) seedUser(t *testing.T, tenantID uuid.UUID, branch *domain.Branch, role domain.Role, email string) (*domain.User, domain.Principal) {
	t.Helper()

	in := CreateUserInput{
		TenantID: tenantID.String(),
		Name:     string(role),
		Email:    email,
		Phone:    "555",
		Role:     string(role),
		Password: "secret-" + email,
	}
	if branch != nil {
		in.BranchID = branch.ID.String()
	}
	user, err := f.users.Create(f.ctx, superadmin, in)
	require.NoError(t, err)
	return user, domain.PrincipalFromUser(user)
}

func requireKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}
