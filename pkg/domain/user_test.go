package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestRole_RequiresBranch(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleSuperadmin, false},
		{RoleOwner, false},
		{RoleManager, true},
		{RoleStaff, true},
		{RoleRider, true},
		{RoleCustomer, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.RequiresBranch(); got != tt.want {
				t.Errorf("RequiresBranch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, ok := ParseRole(string(r))
		if !ok || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, ok)
		}
	}

	if _, ok := ParseRole("admin"); ok {
		t.Error("ParseRole(admin) should fail")
	}
	if _, ok := ParseRole("Owner"); ok {
		t.Error("ParseRole is case-sensitive")
	}
}

func TestUser_WithoutPassword(t *testing.T) {
	u := &User{ID: uuid.New(), Email: "a@x.com", PasswordHash: "$argon2id$..."}

	c := u.WithoutPassword()
	if c.PasswordHash != "" {
		t.Error("copy should not carry the hash")
	}
	if u.PasswordHash == "" {
		t.Error("original should be untouched")
	}
	if c.ID != u.ID {
		t.Errorf("ID: got %v, want %v", c.ID, u.ID)
	}
}

func TestPrincipal_Scope(t *testing.T) {
	tenantID := uuid.New()
	branchID := uuid.New()
	other := uuid.New()

	p := Principal{ID: uuid.New(), Role: RoleManager, TenantID: tenantID, BranchID: &branchID}

	if !p.InTenant(tenantID) || p.InTenant(other) {
		t.Error("InTenant mismatch")
	}
	if !p.InBranch(&branchID) || p.InBranch(&other) || p.InBranch(nil) {
		t.Error("InBranch mismatch")
	}
	if !p.HasRole(RoleOwner, RoleManager) || p.HasRole(RoleSuperadmin) {
		t.Error("HasRole mismatch")
	}

	owner := Principal{Role: RoleOwner, TenantID: tenantID}
	if owner.InBranch(&branchID) {
		t.Error("principal without branch is in no branch")
	}
}

func TestParseID(t *testing.T) {
	id := uuid.New()

	got, err := ParseID(id.String(), "tenant")
	if err != nil || got != id {
		t.Fatalf("ParseID() = %v, %v", got, err)
	}

	for _, raw := range []string{"", "abc", "507f1f77bcf86cd799439011", uuid.Nil.String()} {
		_, err := ParseID(raw, "tenant")
		if !HasKind(err, KindValidation) {
			t.Errorf("ParseID(%q): got %v, want validation error", raw, err)
		}
		if MessageOf(err) != "invalid tenant ID format" {
			t.Errorf("ParseID(%q): message %q", raw, MessageOf(err))
		}
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create tenant: %w", Unexpected(cause, "failed to create tenant"))

	if KindOf(err) != KindUnexpected {
		t.Errorf("KindOf() = %v", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if MessageOf(err) != "failed to create tenant" {
		t.Errorf("MessageOf() = %q", MessageOf(err))
	}

	if KindOf(errors.New("plain")) != KindUnexpected {
		t.Error("plain errors are unexpected")
	}
	if MessageOf(errors.New("plain")) != "internal server error" {
		t.Error("plain errors must not leak their text")
	}
	if HasKind(nil, KindUnexpected) {
		t.Error("nil has no kind")
	}
	if !HasKind(Conflict("taken"), KindConflict) {
		t.Error("HasKind(Conflict) should be true")
	}
}
