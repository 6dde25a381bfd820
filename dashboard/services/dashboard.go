package services

import (
	"errors"
	"log"
	"log/slog"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/store"
	"referral_platform/dashboard/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dashboard bundles the resource services behind a single router.
type Dashboard struct {
	user       UserService
	role       RoleService
	form       FormService
	submission SubmissionService
	referral   ReferralService
	branding   BrandingService
	analytics  AnalyticsService
}

func NewDashboard(recordStore store.Store, userAuth auth.IdentityProvider) Dashboard {
	return Dashboard{
		user:       UserService{store: recordStore, userAuth: userAuth},
		role:       RoleService{store: recordStore, userAuth: userAuth},
		form:       FormService{store: recordStore, userAuth: userAuth},
		submission: SubmissionService{store: recordStore, userAuth: userAuth},
		referral:   ReferralService{store: recordStore, userAuth: userAuth},
		branding:   BrandingService{store: recordStore, userAuth: userAuth},
		analytics:  AnalyticsService{store: recordStore, userAuth: userAuth},
	}
}

func (d *Dashboard) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Mount("/user", d.user.Routes())
	r.Mount("/role", d.role.Routes())
	r.Mount("/form", d.form.Routes())
	r.Mount("/submission", d.submission.Routes())
	r.Mount("/referral", d.referral.Routes())
	r.Mount("/branding", d.branding.Routes())
	r.Mount("/analytics", d.analytics.Routes())

	return r
}

// InitDefaults seeds the role table and the bootstrap admin account. Safe to
// call on every startup; existing rows are left alone.
func (d *Dashboard) InitDefaults(adminName, adminEmail, adminPassword string) {
	existing, err := d.role.store.GetMany(schema.RolesTable, nil, store.Options{Limit: 1})
	if err != nil {
		log.Panicf("error checking for existing roles: %v", err)
	}

	if len(existing) == 0 {
		for _, role := range schema.DefaultRoles {
			_, _, err := d.role.store.Insert(schema.RolesTable, store.Record{
				"name":         role.Name,
				"display_name": role.DisplayName,
				"description":  role.Description,
				"permissions":  utils.MarshalList(role.Permissions),
			})
			if err != nil {
				log.Panicf("error seeding default role %v: %v", role.Name, err)
			}
		}
		slog.Info("seeded default roles", "count", len(schema.DefaultRoles))
	}

	_, err = d.user.userAuth.CreateUser(adminName, adminEmail, adminPassword, schema.RoleAdmin)
	if errors.Is(err, auth.ErrCreateUserUnsupported) {
		// Demo deployments ship fixed accounts; there is no admin to create.
		slog.Warn("skipping admin bootstrap", "reason", err)
	} else if err != nil && !errors.Is(err, auth.ErrUserEmailAlreadyExists) {
		log.Panicf("error initializing admin at startup: %v", err)
	}
}

// guards stacks the route guard in its fixed order: valid token, identity
// re-resolved from storage, account active. Routes append at most one of
// AdminOnly / PermissionOnly after it.
func guards(userAuth auth.IdentityProvider) chi.Middlewares {
	m := append(chi.Middlewares{}, userAuth.AuthMiddleware()...)
	return append(m, auth.ResolveIdentity(userAuth), auth.ActiveOnly())
}
