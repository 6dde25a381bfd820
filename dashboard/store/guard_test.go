package store

import (
	"errors"
	"path/filepath"
	"testing"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
)

func guardTestStore(t *testing.T) *LocalStore {
	s, err := OpenLocalStore(filepath.Join(t.TempDir(), "records.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGuardedWrites(t *testing.T) {
	inner := guardTestStore(t)

	editor := auth.Identity{
		UserId:      7,
		Role:        schema.RoleManager,
		Permissions: schema.StringList{schema.PermFormsRead, schema.PermFormsWrite},
	}
	guarded := Guard(inner, editor)

	if _, _, err := guarded.Insert(schema.FormsTable, Record{"name": "allowed"}); err != nil {
		t.Fatal(err)
	}

	_, _, err := guarded.Insert(schema.UsersTable, Record{"email": "x@mail.com"})
	if !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, err := guarded.UpdateWhere(schema.UsersTable, Record{"name": "x"}, Eq("id", 1)); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, err := guarded.DeleteWhere(schema.BrandingTable, Eq("id", 1)); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	// The denied insert must not have reached the inner store.
	if _, err := inner.GetOne(schema.UsersTable, Eq("email", "x@mail.com")); err != ErrNotFound {
		t.Fatal("denied write leaked through")
	}
}

func TestGuardedReadsPassThrough(t *testing.T) {
	inner := guardTestStore(t)
	if _, _, err := inner.Insert(schema.UsersTable, Record{"email": "a@mail.com"}); err != nil {
		t.Fatal(err)
	}

	// No permissions at all: reads still work, read gating is a route concern.
	guarded := Guard(inner, auth.Identity{Role: schema.RoleUser})

	if _, err := guarded.GetOne(schema.UsersTable, Eq("email", "a@mail.com")); err != nil {
		t.Fatal(err)
	}
	records, err := guarded.GetMany(schema.UsersTable, nil, Options{})
	if err != nil || len(records) != 1 {
		t.Fatalf("expected read to pass through, got %v, %v", records, err)
	}
}

func TestGuardedAdminBypass(t *testing.T) {
	inner := guardTestStore(t)
	guarded := Guard(inner, auth.Identity{Role: schema.RoleAdmin})

	for _, table := range []string{
		schema.UsersTable, schema.RolesTable, schema.FormsTable,
		schema.SubmissionsTable, schema.BrandingTable,
	} {
		if _, _, err := guarded.Insert(table, Record{"marker": table}); err != nil {
			t.Fatalf("admin insert into %v failed: %v", table, err)
		}
	}

	// Tables outside the map are never writable through the guard, admin or
	// not.
	if _, _, err := guarded.Insert("audit_log", Record{}); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for unmapped table, got %v", err)
	}
}
