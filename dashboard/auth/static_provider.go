package auth

import (
	"fmt"
	"sync"

	"referral_platform/dashboard/schema"

	"github.com/go-chi/chi/v5"
)

// StaticAccount is a fixed demo credential. Passwords here stay plaintext:
// the provider exists for demo deployments and tests where no user table is
// reachable, and is wired in explicitly instead of hiding inside the
// production login path.
type StaticAccount struct {
	Email       string
	Password    string
	Name        string
	Role        string
	Permissions schema.StringList
}

// DemoAccounts mirrors the sample dataset the dashboard ships with.
var DemoAccounts = []StaticAccount{
	{
		Email: "admin@example.com", Password: "admin123", Name: "Admin User", Role: schema.RoleAdmin,
		Permissions: schema.StringList{
			schema.PermUsersRead, schema.PermUsersWrite, schema.PermFormsRead, schema.PermFormsWrite,
			schema.PermAnalyticsRead, schema.PermSettingsRead, schema.PermSettingsWrite,
		},
	},
	{
		Email: "manager@example.com", Password: "manager123", Name: "Manager User", Role: schema.RoleManager,
		Permissions: schema.StringList{
			schema.PermUsersRead, schema.PermFormsRead, schema.PermFormsWrite, schema.PermAnalyticsRead,
		},
	},
	{
		Email: "user@example.com", Password: "user123", Name: "Regular User", Role: schema.RoleUser,
		Permissions: schema.StringList{schema.PermFormsRead},
	},
}

// StaticIdentityProvider authenticates against an in-memory account table.
type StaticIdentityProvider struct {
	jwtManager *JwtManager

	mu         sync.Mutex
	accounts   []StaticAccount
	identities map[int64]Identity
	nextId     int64
}

func NewStaticIdentityProvider(accounts []StaticAccount) *StaticIdentityProvider {
	return &StaticIdentityProvider{
		jwtManager: NewJwtManager(),
		accounts:   accounts,
		identities: map[int64]Identity{},
		nextId:     1,
	}
}

func (auth *StaticIdentityProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier(), auth.jwtManager.Authenticator()}
}

func (auth *StaticIdentityProvider) Login(email, password string) (LoginResult, error) {
	auth.mu.Lock()
	defer auth.mu.Unlock()

	for _, account := range auth.accounts {
		if account.Email != email || account.Password != password {
			continue
		}

		identity := Identity{
			UserId:      auth.nextId,
			Email:       account.Email,
			Name:        account.Name,
			Role:        account.Role,
			Status:      schema.StatusActive,
			Permissions: account.Permissions,
		}
		auth.identities[auth.nextId] = identity
		auth.nextId++

		token, err := auth.jwtManager.CreateUserJwt(identity.UserId)
		if err != nil {
			return LoginResult{}, fmt.Errorf("login failed: %w", err)
		}

		return LoginResult{Identity: identity, AccessToken: token}, nil
	}

	return LoginResult{}, ErrInvalidCredentials
}

func (auth *StaticIdentityProvider) Resolve(userId int64) (Identity, error) {
	auth.mu.Lock()
	defer auth.mu.Unlock()

	identity, ok := auth.identities[userId]
	if !ok {
		return Identity{}, fmt.Errorf("no session for user id %v", userId)
	}
	return identity, nil
}

func (auth *StaticIdentityProvider) CreateUser(name, email, password, role string) (int64, error) {
	auth.mu.Lock()
	defer auth.mu.Unlock()

	for _, account := range auth.accounts {
		if account.Email == email {
			return 0, ErrUserEmailAlreadyExists
		}
	}
	return 0, ErrCreateUserUnsupported
}
