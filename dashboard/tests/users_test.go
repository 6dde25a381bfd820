package tests

import (
	"slices"
	"testing"

	"referral_platform/dashboard/schema"
)

func TestLoginAndSession(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	session, err := admin.session()
	if err != nil {
		t.Fatal(err)
	}
	if session.Email != adminEmail || session.Role != schema.RoleAdmin || session.UserId != admin.userId {
		t.Fatalf("invalid admin session %v", session)
	}

	bad := env.newClient()
	if err := bad.login(loginInfo{Email: adminEmail, Password: "wrong"}); err != ErrUnauthorized {
		t.Fatal("login with wrong password should fail")
	}
	if err := bad.login(loginInfo{Email: "nobody@mail.com", Password: adminPassword}); err != ErrUnauthorized {
		t.Fatal("login with unknown email should fail")
	}

	anon := env.newClient()
	if _, err := anon.session(); err != ErrUnauthorized {
		t.Fatal("session without token should be unauthorized")
	}
}

func TestCreateUser(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	userId, err := admin.createUser("Staff One", "staff1@mail.com", "staff1_password", schema.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createUser("Staff Again", "staff1@mail.com", "other_password", schema.RoleStaff); err == nil {
		t.Fatal("duplicate email should fail")
	}

	c := env.newClient()
	if err := c.login(loginInfo{Email: "staff1@mail.com", Password: "staff1_password"}); err != nil {
		t.Fatal(err)
	}

	session, err := c.session()
	if err != nil {
		t.Fatal(err)
	}
	if session.UserId != userId || session.Role != schema.RoleStaff || session.Status != schema.StatusActive {
		t.Fatalf("invalid session %v", session)
	}

	// New users start with their role's default permission set.
	expected := []string{schema.PermUsersRead, schema.PermFormsRead}
	if !slices.Equal([]string(session.Permissions), expected) {
		t.Fatalf("expected permissions %v, got %v", expected, session.Permissions)
	}
}

func TestSessionReflectsPermissionChanges(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("staff2", schema.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := user.analyticsSummary(); err != ErrForbidden {
		t.Fatal("staff should not have analytics access")
	}

	err = admin.setPermissions(user.userId, []string{schema.PermUsersRead, schema.PermFormsRead, schema.PermAnalyticsRead})
	if err != nil {
		t.Fatal(err)
	}

	// Same token, no re-login: the grant is visible on the next request.
	session, err := user.session()
	if err != nil {
		t.Fatal(err)
	}
	if !session.Permissions.Contains(schema.PermAnalyticsRead) {
		t.Fatalf("expected analytics:read in %v", session.Permissions)
	}

	if _, err := user.analyticsSummary(); err != nil {
		t.Fatal(err)
	}
}

func TestRoleChangeResetsPermissions(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("staff3", schema.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	// Grant a permission outside the role defaults, then change the role; the
	// custom grant must not survive.
	if err := admin.setPermissions(user.userId, []string{schema.PermSettingsWrite}); err != nil {
		t.Fatal(err)
	}

	if err := admin.setRole(user.userId, schema.RoleManager); err != nil {
		t.Fatal(err)
	}

	session, err := user.session()
	if err != nil {
		t.Fatal(err)
	}
	if session.Role != schema.RoleManager {
		t.Fatalf("expected manager role, got %v", session.Role)
	}

	expected := []string{schema.PermUsersRead, schema.PermFormsRead, schema.PermFormsWrite, schema.PermAnalyticsRead}
	if !slices.Equal([]string(session.Permissions), expected) {
		t.Fatalf("expected permissions %v, got %v", expected, session.Permissions)
	}

	if err := admin.setRole(user.userId, "no_such_role"); err == nil {
		t.Fatal("unknown role should be rejected")
	}
}

func TestInactiveUserBlocked(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("staff4", schema.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setUserStatus(user.userId, schema.StatusInactive); err != nil {
		t.Fatal(err)
	}

	if _, err := user.session(); err != ErrForbidden {
		t.Fatal("inactive user should be blocked with a valid token")
	}
	if _, err := user.listForms(); err != ErrForbidden {
		t.Fatal("inactive user should be blocked everywhere")
	}

	if err := admin.setUserStatus(user.userId, schema.StatusActive); err != nil {
		t.Fatal(err)
	}
	if _, err := user.session(); err != nil {
		t.Fatal(err)
	}

	if err := admin.setUserStatus(user.userId, "frozen"); err == nil {
		t.Fatal("unknown status should be rejected")
	}
}

func TestPermissionEnforcement(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("basic1", schema.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := user.listUsers(); err != ErrForbidden {
		t.Fatal("user role should not list users")
	}
	if _, err := user.createUser("x", "x@mail.com", "x_password", schema.RoleUser); err != ErrForbidden {
		t.Fatal("user role should not create users")
	}
	if _, err := user.createRole("custom", "Custom", nil); err != ErrForbidden {
		t.Fatal("role creation is admin only")
	}
	if _, err := user.listForms(); err != nil {
		t.Fatal(err)
	}

	manager, err := env.newUser("manager1", schema.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := manager.listUsers(); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.createRole("custom", "Custom", nil); err != ErrForbidden {
		t.Fatal("role creation is admin only, even for managers")
	}
}

func TestDeleteUser(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("staff5", schema.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.deleteUser(admin.userId); err == nil {
		t.Fatal("self delete should be rejected")
	}

	if err := admin.deleteUser(user.userId); err != nil {
		t.Fatal(err)
	}

	// Deleted user's token no longer resolves.
	if _, err := user.session(); err != ErrUnauthorized {
		t.Fatal("deleted user should be unauthorized")
	}

	if err := admin.deleteUser(user.userId); err == nil {
		t.Fatal("deleting a missing user should fail")
	}
}
