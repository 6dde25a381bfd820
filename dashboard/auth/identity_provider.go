package auth

import (
	"errors"

	"github.com/go-chi/chi/v5"
)

type LoginResult struct {
	Identity    Identity
	AccessToken string
}

// IdentityProvider authenticates credentials and resolves user ids back to
// identities. The production provider is backed by the user table; the
// static provider carries the fixed demo accounts and is injected explicitly
// in demo deployments and tests rather than hiding as a fallback branch
// inside login.
type IdentityProvider interface {
	AuthMiddleware() chi.Middlewares

	// Login verifies a credential pair and issues an access token.
	Login(email, password string) (LoginResult, error)

	// Resolve reloads the identity for a user id from backing storage so
	// that permission changes made after login are picked up on session
	// restore.
	Resolve(userId int64) (Identity, error)

	// CreateUser registers a new user with the given role and that role's
	// default permission set. Returns the new user id.
	CreateUser(name, email, password, role string) (int64, error)
}

var ErrUserEmailAlreadyExists = errors.New("email is already in use")
var ErrInvalidCredentials = errors.New("email and password do not match")
var ErrCreateUserUnsupported = errors.New("this identity provider does not support user creation")
