package tests

import (
	"fmt"
	"testing"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/services"
	"referral_platform/dashboard/store"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	api chi.Router
}

const (
	adminName     = "Admin"
	adminEmail    = "admin@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		t.Fatal(err)
	}

	dashboard := services.NewDashboard(store.NewSqlStore(db), auth.NewBasicIdentityProvider(db))
	dashboard.InitDefaults(adminName, adminEmail, adminPassword)

	return testEnv{api: dashboard.Routes()}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

// newUser creates and logs in a user with the given role, using the admin
// account for the creation.
func (t *testEnv) newUser(name, role string) (client, error) {
	admin, err := t.adminClient()
	if err != nil {
		return client{}, err
	}

	email := fmt.Sprintf("%v@mail.com", name)
	password := fmt.Sprintf("%v_password", name)

	if _, err := admin.createUser(name, email, password, role); err != nil {
		return client{}, err
	}

	c := t.newClient()
	if err := c.login(loginInfo{Email: email, Password: password}); err != nil {
		return client{}, err
	}
	return c, nil
}
