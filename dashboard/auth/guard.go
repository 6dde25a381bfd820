package auth

import (
	"fmt"
	"net/http"

	"referral_platform/dashboard/schema"
)

// Route guard middleware. Protected routes stack these in a fixed order:
// token verification (provider middleware), then ResolveIdentity, then
// ActiveOnly, then at most one of AdminOnly / PermissionOnly. Denials render
// a response and nothing else; admin-only and named-permission failures are
// deliberately uniform.

// ResolveIdentity re-resolves the token's user against backing storage on
// every request, so a permission change or deactivation takes effect without
// waiting for the token to expire. A user row that disappeared invalidates
// the session.
func ResolveIdentity(provider IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			userId, err := UserIdFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			identity, err := provider.Resolve(userId)
			if err != nil {
				http.Error(w, fmt.Sprintf("session is no longer valid: %v", err), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		}
		return http.HandlerFunc(hfn)
	}
}

// ActiveOnly blocks authenticated-but-inactive accounts from every protected
// view.
func ActiveOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if identity.Status != schema.StatusActive {
				http.Error(w, "account is inactive, please contact an administrator", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if !IsAdmin(identity) {
				http.Error(w, fmt.Sprintf("user %v is not an admin", identity.UserId), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func PermissionOnly(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if !HasPermission(identity, permission) {
				http.Error(w, fmt.Sprintf("user %v does not have the %v permission", identity.UserId, permission), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
