package schema

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type DbError struct {
	action string
	err    error
}

func NewDbError(action string, err error) error {
	slog.Error("sql error", "action", action, "error", err)
	return DbError{action: action, err: err}
}

func (e DbError) Error() string {
	return fmt.Sprintf("sql error while %v: %v", e.action, e.err)
}

func (e DbError) Unwrap() error {
	return e.err
}

func GetUser(userId int64, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, fmt.Errorf("no user with id %v", userId)
		}
		return user, NewDbError("retrieving user by id", result.Error)
	}

	return user, nil
}

func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, fmt.Errorf("no user with email %v", email)
		}
		return user, NewDbError("retrieving user by email", result.Error)
	}

	return user, nil
}

func GetRoleByName(name string, db *gorm.DB) (Role, error) {
	var role Role

	result := db.First(&role, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return role, fmt.Errorf("no role named %v", name)
		}
		return role, NewDbError("retrieving role by name", result.Error)
	}

	return role, nil
}

func UserExists(db *gorm.DB, email string) (bool, error) {
	var user User
	result := db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, NewDbError("checking if user exists", result.Error)
	}
	return true, nil
}
