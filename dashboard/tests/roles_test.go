package tests

import (
	"testing"

	"referral_platform/dashboard/schema"
)

func TestDefaultRoles(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	roles, err := admin.listRoles()
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != len(schema.DefaultRoles) {
		t.Fatalf("expected %d roles, got %d", len(schema.DefaultRoles), len(roles))
	}

	byName := map[string]int{}
	for _, role := range roles {
		byName[role.Name] = role.UserCount
	}
	if byName[schema.RoleAdmin] != 1 {
		t.Fatalf("expected 1 admin, got %d", byName[schema.RoleAdmin])
	}

	if _, err := env.newUser("staff_r1", schema.RoleStaff); err != nil {
		t.Fatal(err)
	}

	roles, err = admin.listRoles()
	if err != nil {
		t.Fatal(err)
	}
	for _, role := range roles {
		if role.Name == schema.RoleStaff && role.UserCount != 1 {
			t.Fatalf("expected 1 staff user, got %d", role.UserCount)
		}
	}
}

func TestPermissionCatalog(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	catalog, err := admin.permissionCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != len(schema.PermissionCatalog) {
		t.Fatalf("expected %d permissions, got %d", len(schema.PermissionCatalog), len(catalog))
	}

	for i, perm := range catalog {
		if perm.Id != schema.PermissionCatalog[i].Id {
			t.Fatalf("catalog mismatch at %d: %v", i, perm)
		}
	}
}

func TestCreateAndDeleteRole(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	roleId, err := admin.createRole("auditor", "Auditor", []string{schema.PermAnalyticsRead})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createRole("auditor", "Auditor Again", nil); err == nil {
		t.Fatal("duplicate role name should fail")
	}

	roles, err := admin.listRoles()
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	var adminRoleId int64
	for _, role := range roles {
		if role.Id == roleId {
			found = true
			if len(role.Permissions) != 1 || role.Permissions[0] != schema.PermAnalyticsRead {
				t.Fatalf("invalid auditor permissions %v", role.Permissions)
			}
		}
		if role.Name == schema.RoleAdmin {
			adminRoleId = role.Id
		}
	}
	if !found {
		t.Fatal("created role missing from list")
	}

	// The admin role has a holder, so it cannot be deleted.
	if err := admin.deleteRole(adminRoleId); err == nil {
		t.Fatal("deleting a role with users should fail")
	}

	if err := admin.deleteRole(roleId); err != nil {
		t.Fatal(err)
	}
	if err := admin.deleteRole(roleId); err == nil {
		t.Fatal("deleting a missing role should fail")
	}
}
