package services

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/store"
	"referral_platform/dashboard/utils"

	"github.com/go-chi/chi/v5"
)

type RoleService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *RoleService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermUsersRead))

		r.Get("/list", s.List)
		r.Get("/permissions", s.PermissionCatalog)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.AdminOnly())

		r.Post("/create", s.CreateRole)
		r.Put("/{role_id}", s.UpdateRole)
		r.Delete("/{role_id}", s.DeleteRole)
	})

	return r
}

type RoleInfo struct {
	Id          int64    `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"user_count"`
}

func (s *RoleService) List(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.GetMany(schema.RolesTable, nil, store.Options{OrderBy: "id"})
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing roles: %v", err), http.StatusBadRequest)
		return
	}

	infos := make([]RoleInfo, 0, len(records))
	for _, rec := range records {
		id, _ := store.Id(rec)
		name := store.Str(rec, "name")

		// The user count is derived on read; the role row does not track it.
		holders, err := s.store.GetMany(schema.UsersTable, store.Eq("role", name), store.Options{})
		if err != nil {
			http.Error(w, fmt.Sprintf("error counting users for role %v: %v", name, err), http.StatusBadRequest)
			return
		}

		infos = append(infos, RoleInfo{
			Id:          id,
			Name:        name,
			DisplayName: store.Str(rec, "display_name"),
			Description: store.Str(rec, "description"),
			Permissions: utils.UnmarshalList(store.Str(rec, "permissions")),
			UserCount:   len(holders),
		})
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *RoleService) PermissionCatalog(w http.ResponseWriter, r *http.Request) {
	utils.WriteJsonResponse(w, schema.PermissionCatalog)
}

type roleRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (s *RoleService) CreateRole(w http.ResponseWriter, r *http.Request) {
	var params roleRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if missing := utils.MissingFields(map[string]string{
		"name": params.Name, "display_name": params.DisplayName,
	}); len(missing) > 0 {
		http.Error(w, fmt.Sprintf("missing required fields: %v", missing), http.StatusBadRequest)
		return
	}

	_, err := s.store.GetOne(schema.RolesTable, store.Eq("name", params.Name))
	if err == nil {
		http.Error(w, fmt.Sprintf("role %v already exists", params.Name), http.StatusBadRequest)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("error checking for existing role: %v", err), http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	roleId, _, err := store.Guard(s.store, identity).Insert(schema.RolesTable, store.Record{
		"name":         params.Name,
		"display_name": params.DisplayName,
		"description":  params.Description,
		"permissions":  utils.MarshalList(params.Permissions),
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating role: %v", err), http.StatusBadRequest)
		return
	}

	utils.WriteJsonResponse(w, map[string]int64{"role_id": roleId})
}

func roleIdParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	roleId, err := strconv.ParseInt(chi.URLParam(r, "role_id"), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid role id: %v", err), http.StatusBadRequest)
		return 0, false
	}
	return roleId, true
}

func (s *RoleService) UpdateRole(w http.ResponseWriter, r *http.Request) {
	roleId, ok := roleIdParam(w, r)
	if !ok {
		return
	}

	var params roleRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	patch := store.Record{}
	if params.DisplayName != "" {
		patch["display_name"] = params.DisplayName
	}
	if params.Description != "" {
		patch["description"] = params.Description
	}
	if params.Permissions != nil {
		patch["permissions"] = utils.MarshalList(params.Permissions)
	}
	if len(patch) == 0 {
		http.Error(w, "no updatable fields in request", http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	affected, err := store.Guard(s.store, identity).UpdateWhere(schema.RolesTable, patch, store.Eq("id", roleId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating role %v: %v", roleId, err), http.StatusBadRequest)
		return
	}
	if affected == 0 {
		http.Error(w, fmt.Sprintf("no role with id %v", roleId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *RoleService) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleId, ok := roleIdParam(w, r)
	if !ok {
		return
	}

	rec, err := s.store.GetOne(schema.RolesTable, store.Eq("id", roleId))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("no role with id %v", roleId), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("error retrieving role: %v", err), http.StatusBadRequest)
		return
	}

	name := store.Str(rec, "name")
	holders, err := s.store.GetMany(schema.UsersTable, store.Eq("role", name), store.Options{Limit: 1})
	if err != nil {
		http.Error(w, fmt.Sprintf("error checking role usage: %v", err), http.StatusBadRequest)
		return
	}
	if len(holders) > 0 {
		http.Error(w, fmt.Sprintf("role %v is still assigned to users", name), http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if _, err := store.Guard(s.store, identity).DeleteWhere(schema.RolesTable, store.Eq("id", roleId)); err != nil {
		http.Error(w, fmt.Sprintf("error deleting role %v: %v", roleId, err), http.StatusBadRequest)
		return
	}

	utils.WriteSuccess(w)
}
