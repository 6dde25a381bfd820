package auth

import (
	"context"
	"errors"
	"net/http"

	"referral_platform/dashboard/schema"
)

// Identity is the resolved representation of the logged-in user. It is
// passed explicitly to the predicate functions and carried on the request
// context by the guard middleware; nothing reads it from globals.
type Identity struct {
	UserId      int64             `json:"user_id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        string            `json:"role"`
	Status      string            `json:"status"`
	Permissions schema.StringList `json:"permissions"`
	Department  string            `json:"department"`
	Location    string            `json:"location"`
}

var ErrPermissionDenied = errors.New("permission denied")

// HasPermission is the authorization predicate: admins pass every check
// unconditionally, everyone else needs the permission string in their set.
// Strings outside the catalog behave as never-granted; no validation happens
// at check time.
func HasPermission(identity Identity, permission string) bool {
	if identity.Role == schema.RoleAdmin {
		return true
	}
	return identity.Permissions.Contains(permission)
}

func IsAdmin(identity Identity) bool {
	return identity.Role == schema.RoleAdmin
}

// IsManager treats admins as managers, matching the dashboard's visibility
// rules.
func IsManager(identity Identity) bool {
	return identity.Role == schema.RoleManager || identity.Role == schema.RoleAdmin
}

type identityCtxKey struct{}

func withIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext returns the identity the guard middleware resolved for
// this request.
func IdentityFromContext(r *http.Request) (Identity, error) {
	identity, ok := r.Context().Value(identityCtxKey{}).(Identity)
	if !ok {
		return Identity{}, errors.New("no identity present on request")
	}
	return identity, nil
}
