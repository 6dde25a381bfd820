package store

import (
	"fmt"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
)

// writePermissions maps each table to the permission a non-admin identity
// needs before the guarded store will mutate it. The public referral and
// submission flow writes through the unguarded store on purpose: anonymous
// inserts are part of the product.
var writePermissions = map[string]string{
	schema.UsersTable:       schema.PermUsersWrite,
	schema.RolesTable:       schema.PermSettingsWrite,
	schema.FormsTable:       schema.PermFormsWrite,
	schema.SubmissionsTable: schema.PermFormsWrite,
	schema.BrandingTable:    schema.PermSettingsWrite,
}

// Guarded binds an identity to a store and enforces the authorization
// predicate at the mutation entry points, so a view cannot bypass the route
// guard and write directly. Reads pass through untouched; read gating stays
// at the route layer.
type Guarded struct {
	inner    Store
	identity auth.Identity
}

func Guard(inner Store, identity auth.Identity) *Guarded {
	return &Guarded{inner: inner, identity: identity}
}

func (g *Guarded) checkWrite(table string) error {
	permission, ok := writePermissions[table]
	if !ok {
		return fmt.Errorf("table %v is not writable through the guarded store: %w", table, auth.ErrPermissionDenied)
	}
	if !auth.HasPermission(g.identity, permission) {
		return fmt.Errorf("user %v requires the %v permission to modify %v: %w",
			g.identity.UserId, permission, table, auth.ErrPermissionDenied)
	}
	return nil
}

func (g *Guarded) Insert(table string, rec Record) (int64, Record, error) {
	if err := g.checkWrite(table); err != nil {
		return 0, nil, err
	}
	return g.inner.Insert(table, rec)
}

func (g *Guarded) UpdateWhere(table string, patch Record, cond *Cond) (int64, error) {
	if err := g.checkWrite(table); err != nil {
		return 0, err
	}
	return g.inner.UpdateWhere(table, patch, cond)
}

func (g *Guarded) DeleteWhere(table string, cond *Cond) (int64, error) {
	if err := g.checkWrite(table); err != nil {
		return 0, err
	}
	return g.inner.DeleteWhere(table, cond)
}

func (g *Guarded) GetOne(table string, cond *Cond) (Record, error) {
	return g.inner.GetOne(table, cond)
}

func (g *Guarded) GetMany(table string, cond *Cond, opts Options) ([]Record, error) {
	return g.inner.GetMany(table, cond, opts)
}
