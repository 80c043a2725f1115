//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tendant/simple-tenancy/pkg/domain"
	"github.com/tendant/simple-tenancy/pkg/repository"
)

type PostgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	tenants   *repository.TenantsRepository
	branches  *repository.BranchesRepository
	users     *repository.UsersRepository
	tx        *repository.TxRunner
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tenancy"),
		tcpostgres.WithUsername("tenancy"),
		tcpostgres.WithPassword("tenancy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sql.Open("postgres", dsn)
	s.Require().NoError(err)
	s.Require().NoError(db.PingContext(ctx))
	s.Require().NoError(repository.Migrate(ctx, db))

	s.db = db
	s.tenants = repository.NewTenantsRepository(db)
	s.branches = repository.NewBranchesRepository(db)
	s.users = repository.NewUsersRepository(db)
	s.tx = repository.NewTxRunner(db)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.db.ExecContext(context.Background(), `TRUNCATE users, branches, tenants CASCADE`)
	s.Require().NoError(err)
}

func newTenant(email string) *domain.Tenant {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Tenant{ID: uuid.New(), Name: "Acme", Email: email, IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func newBranch(tenantID uuid.UUID) *domain.Branch {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Branch{ID: uuid.New(), TenantID: tenantID, Name: domain.MainBranchName, IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func newUser(tenantID uuid.UUID, branchID *uuid.UUID, role domain.Role, email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID: uuid.New(), TenantID: tenantID, BranchID: branchID, Name: "User", Email: email,
		Role: role, PasswordHash: "hash", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
}

func (s *PostgresSuite) TestMigrationVersion() {
	version, err := repository.MigrationVersion(context.Background(), s.db)
	s.Require().NoError(err)
	s.EqualValues(1, version)
}

func (s *PostgresSuite) TestTenantLifecycle() {
	ctx := context.Background()
	tenant := newTenant("owner@acme.com")
	s.Require().NoError(s.tenants.Create(ctx, tenant))

	s.ErrorIs(s.tenants.Create(ctx, newTenant("owner@acme.com")), domain.ErrEmailTaken)

	found, err := s.tenants.GetByEmail(ctx, "owner@acme.com")
	s.Require().NoError(err)
	s.Equal(tenant.ID, found.ID)

	s.ErrorIs(s.tenants.SetActive(ctx, tenant.ID, true), domain.ErrStateUnchanged)
	s.NoError(s.tenants.SetActive(ctx, tenant.ID, false))
	s.ErrorIs(s.tenants.SetActive(ctx, uuid.New(), false), domain.ErrTenantNotFound)

	active, err := s.tenants.List(ctx, domain.TenantFilter{ActiveOnly: true})
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *PostgresSuite) TestForeignKeysMapToNotFound() {
	ctx := context.Background()

	s.ErrorIs(s.branches.Create(ctx, newBranch(uuid.New())), domain.ErrTenantNotFound)

	tenant := newTenant("fk@acme.com")
	s.Require().NoError(s.tenants.Create(ctx, tenant))
	missing := uuid.New()
	s.ErrorIs(s.users.Create(ctx, newUser(tenant.ID, &missing, domain.RoleStaff, "s@acme.com")), domain.ErrBranchNotFound)
	s.ErrorIs(s.users.Create(ctx, newUser(uuid.New(), nil, domain.RoleOwner, "o@acme.com")), domain.ErrTenantNotFound)
}

func (s *PostgresSuite) TestUserListFilters() {
	ctx := context.Background()
	tenant := newTenant("list@acme.com")
	s.Require().NoError(s.tenants.Create(ctx, tenant))
	branch := newBranch(tenant.ID)
	s.Require().NoError(s.branches.Create(ctx, branch))

	owner := newUser(tenant.ID, nil, domain.RoleOwner, "list@acme.com")
	staff := newUser(tenant.ID, &branch.ID, domain.RoleStaff, "staff@acme.com")
	s.Require().NoError(s.users.Create(ctx, owner))
	s.Require().NoError(s.users.Create(ctx, staff))

	got, err := s.users.List(ctx, domain.UserFilter{TenantID: &tenant.ID, BranchID: &branch.ID, ExcludeRole: domain.RoleOwner})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(staff.ID, got[0].ID)
	s.Equal(domain.RoleStaff, got[0].Role)
}

func (s *PostgresSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	tenant := newTenant("tx@acme.com")
	boom := errors.New("boom")

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		s.Require().NoError(s.tenants.Create(ctx, tenant))
		s.Require().NoError(s.branches.Create(ctx, newBranch(tenant.ID)))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.tenants.GetByID(ctx, tenant.ID)
	s.ErrorIs(err, domain.ErrTenantNotFound)
}

// Concurrent creates with one email must leave exactly one row.
func (s *PostgresSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	tenant := newTenant("race@acme.com")
	s.Require().NoError(s.tenants.Create(ctx, tenant))

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.users.Create(ctx, newUser(tenant.ID, nil, domain.RoleOwner, "race-user@acme.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrEmailTaken):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.EqualValues(1, successes.Load())
	s.EqualValues(goroutines-1, conflicts.Load())
}
