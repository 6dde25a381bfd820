package auth

import (
	"fmt"
	"log/slog"
	"time"

	"referral_platform/dashboard/schema"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BasicIdentityProvider authenticates against the user table with bcrypt
// password hashes.
type BasicIdentityProvider struct {
	jwtManager *JwtManager
	db         *gorm.DB
}

func NewBasicIdentityProvider(db *gorm.DB) *BasicIdentityProvider {
	return &BasicIdentityProvider{
		jwtManager: NewJwtManager(),
		db:         db,
	}
}

func (auth *BasicIdentityProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier(), auth.jwtManager.Authenticator()}
}

func identityFromUser(user schema.User) Identity {
	return Identity{
		UserId:      user.Id,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Status:      user.Status,
		Permissions: user.Permissions,
		Department:  user.Department,
		Location:    user.Location,
	}
}

func (auth *BasicIdentityProvider) Login(email, password string) (LoginResult, error) {
	var user schema.User
	result := auth.db.Find(&user, "email = ?", email)
	if result.Error != nil {
		return LoginResult{}, schema.NewDbError("locating user for email", result.Error)
	}

	if result.RowsAffected != 1 {
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := auth.jwtManager.CreateUserJwt(user.Id)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login failed: %w", err)
	}

	auth.stampLastLogin(user.Id)

	return LoginResult{Identity: identityFromUser(user), AccessToken: token}, nil
}

// stampLastLogin is best effort: a failed stamp never fails the login.
func (auth *BasicIdentityProvider) stampLastLogin(userId int64) {
	now := time.Now().UTC()
	result := auth.db.Model(&schema.User{}).Where("id = ?", userId).Update("last_login_at", &now)
	if result.Error != nil {
		slog.Error("error stamping last login", "user_id", userId, "error", result.Error)
	}
}

func (auth *BasicIdentityProvider) Resolve(userId int64) (Identity, error) {
	user, err := schema.GetUser(userId, auth.db)
	if err != nil {
		return Identity{}, err
	}
	return identityFromUser(user), nil
}

func (auth *BasicIdentityProvider) CreateUser(name, email, password, role string) (int64, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return 0, fmt.Errorf("error encrypting password: %w", err)
	}

	newUser := schema.User{
		Name:     name,
		Email:    email,
		Password: hashedPwd,
		Role:     role,
		Status:   schema.StatusActive,
	}

	err = auth.db.Transaction(func(txn *gorm.DB) error {
		exists, err := schema.UserExists(txn, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrUserEmailAlreadyExists
		}

		roleRow, err := schema.GetRoleByName(role, txn)
		if err != nil {
			return err
		}
		newUser.Permissions = roleRow.Permissions

		var maxId int64
		result := txn.Model(&schema.User{}).Select("coalesce(max(id), 0)").Scan(&maxId)
		if result.Error != nil {
			return schema.NewDbError("finding max user id", result.Error)
		}
		newUser.Id = maxId + 1

		result = txn.Create(&newUser)
		if result.Error != nil {
			return schema.NewDbError("creating new user entry", result.Error)
		}

		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("error creating new user: %w", err)
	}

	return newUser.Id, nil
}
