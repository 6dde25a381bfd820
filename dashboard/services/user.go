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

type UserService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Post("/login", s.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)

		r.Get("/session", s.Session)
		r.Post("/logout", s.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermUsersRead))

		r.Get("/list", s.List)
		r.Get("/{user_id}", s.Info)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermUsersWrite))

		r.Post("/create", s.CreateUser)
		r.Put("/{user_id}", s.UpdateUser)
		r.Delete("/{user_id}", s.DeleteUser)

		r.Put("/{user_id}/role", s.SetRole)
		r.Put("/{user_id}/permissions", s.SetPermissions)
		r.Put("/{user_id}/status", s.SetStatus)
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        auth.Identity `json:"user"`
	AccessToken string        `json:"access_token"`
}

func (s *UserService) Login(w http.ResponseWriter, r *http.Request) {
	var params loginRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.Login(params.Email, params.Password)
	if err != nil {
		http.Error(w, fmt.Sprintf("login failed: %v", err), http.StatusUnauthorized)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{User: login.Identity, AccessToken: login.AccessToken})
}

// Session returns the freshly resolved identity for the caller's token. The
// guard middleware already re-read the user row, so permission or status
// changes made since login are reflected here.
func (s *UserService) Session(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	utils.WriteJsonResponse(w, identity)
}

// Logout exists for client symmetry. Access tokens are stateless, so there
// is no server-side session to invalidate; clients drop the token.
func (s *UserService) Logout(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w)
}

type UserInfo struct {
	Id               int64    `json:"id"`
	Email            string   `json:"email"`
	Name             string   `json:"name"`
	Role             string   `json:"role"`
	Status           string   `json:"status"`
	Permissions      []string `json:"permissions"`
	Phone            string   `json:"phone"`
	Department       string   `json:"department"`
	Location         string   `json:"location"`
	StudentName      string   `json:"student_name"`
	StudentGrade     string   `json:"student_grade"`
	ReferralsCount   int64    `json:"referrals_count"`
	ConversionsCount int64    `json:"conversions_count"`
	LastLoginAt      string   `json:"last_login_at,omitempty"`
	CreatedAt        string   `json:"created_at,omitempty"`
}

func userInfoFromRecord(rec store.Record) UserInfo {
	id, _ := store.Id(rec)
	var lastLogin string
	if v := rec["last_login_at"]; v != nil {
		lastLogin = fmt.Sprint(v)
	}
	var createdAt string
	if v := rec["created_at"]; v != nil {
		createdAt = fmt.Sprint(v)
	}

	return UserInfo{
		Id:               id,
		Email:            store.Str(rec, "email"),
		Name:             store.Str(rec, "name"),
		Role:             store.Str(rec, "role"),
		Status:           store.Str(rec, "status"),
		Permissions:      utils.UnmarshalList(store.Str(rec, "permissions")),
		Phone:            store.Str(rec, "phone"),
		Department:       store.Str(rec, "department"),
		Location:         store.Str(rec, "location"),
		StudentName:      store.Str(rec, "student_name"),
		StudentGrade:     store.Str(rec, "student_grade"),
		ReferralsCount:   store.Int(rec, "referrals_count"),
		ConversionsCount: store.Int(rec, "conversions_count"),
		LastLoginAt:      lastLogin,
		CreatedAt:        createdAt,
	}
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.GetMany(schema.UsersTable, nil, store.Options{OrderBy: "created_at"})
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing users: %v", err), http.StatusBadRequest)
		return
	}

	infos := make([]UserInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, userInfoFromRecord(rec))
	}
	utils.WriteJsonResponse(w, infos)
}

func userIdParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userId, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid user id: %v", err), http.StatusBadRequest)
		return 0, false
	}
	return userId, true
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	userId, ok := userIdParam(w, r)
	if !ok {
		return
	}

	rec, err := s.store.GetOne(schema.UsersTable, store.Eq("id", userId))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("no user with id %v", userId), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("error retrieving user: %v", err), http.StatusBadRequest)
		return
	}

	utils.WriteJsonResponse(w, userInfoFromRecord(rec))
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type createUserResponse struct {
	UserId int64 `json:"user_id"`
}

func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params createUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if missing := utils.MissingFields(map[string]string{
		"name": params.Name, "email": params.Email, "password": params.Password,
	}); len(missing) > 0 {
		http.Error(w, fmt.Sprintf("missing required fields: %v", missing), http.StatusBadRequest)
		return
	}
	if !utils.ValidEmail(params.Email) {
		http.Error(w, fmt.Sprintf("invalid email address %v", params.Email), http.StatusBadRequest)
		return
	}
	if params.Role == "" {
		params.Role = schema.RoleUser
	}

	userId, err := s.userAuth.CreateUser(params.Name, params.Email, params.Password, params.Role)
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating user: %v", err), http.StatusBadRequest)
		return
	}

	utils.WriteJsonResponse(w, createUserResponse{UserId: userId})
}

type updateUserRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Department   *string `json:"department"`
	Location     *string `json:"location"`
	StudentName  *string `json:"student_name"`
	StudentGrade *string `json:"student_grade"`
}

func (s *UserService) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := userIdParam(w, r)
	if !ok {
		return
	}

	var params updateUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	patch := store.Record{}
	setField := func(key string, value *string) {
		if value != nil {
			patch[key] = *value
		}
	}
	setField("name", params.Name)
	setField("phone", params.Phone)
	setField("department", params.Department)
	setField("location", params.Location)
	setField("student_name", params.StudentName)
	setField("student_grade", params.StudentGrade)

	if len(patch) == 0 {
		http.Error(w, "no updatable fields in request", http.StatusBadRequest)
		return
	}

	s.applyUserPatch(w, r, userId, patch)
}

// applyUserPatch runs a mutation through the identity-guarded store so the
// permission check holds even if a future caller skips the route middleware.
func (s *UserService) applyUserPatch(w http.ResponseWriter, r *http.Request, userId int64, patch store.Record) {
	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	affected, err := store.Guard(s.store, identity).UpdateWhere(schema.UsersTable, patch, store.Eq("id", userId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating user %v: %v", userId, err), http.StatusBadRequest)
		return
	}
	if affected == 0 {
		http.Error(w, fmt.Sprintf("no user with id %v", userId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := userIdParam(w, r)
	if !ok {
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if identity.UserId == userId {
		http.Error(w, "cannot delete your own account", http.StatusBadRequest)
		return
	}

	// Referral links owned by the user are left in place; there are no
	// cascading deletes anywhere in this system.
	removed, err := store.Guard(s.store, identity).DeleteWhere(schema.UsersTable, store.Eq("id", userId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), http.StatusBadRequest)
		return
	}
	if removed == 0 {
		http.Error(w, fmt.Sprintf("no user with id %v", userId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRole changes a user's role and resets their permission set to the
// role's default set. Per-user grants do not survive a role change; roles
// are authoritative.
func (s *UserService) SetRole(w http.ResponseWriter, r *http.Request) {
	userId, ok := userIdParam(w, r)
	if !ok {
		return
	}

	var params setRoleRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	roleRec, err := s.store.GetOne(schema.RolesTable, store.Eq("name", params.Role))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("no role named %v", params.Role), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("error retrieving role: %v", err), http.StatusBadRequest)
		return
	}

	s.applyUserPatch(w, r, userId, store.Record{
		"role":        params.Role,
		"permissions": store.Str(roleRec, "permissions"),
	})
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (s *UserService) SetPermissions(w http.ResponseWriter, r *http.Request) {
	userId, ok := userIdParam(w, r)
	if !ok {
		return
	}

	var params setPermissionsRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	s.applyUserPatch(w, r, userId, store.Record{
		"permissions": utils.MarshalList(params.Permissions),
	})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *UserService) SetStatus(w http.ResponseWriter, r *http.Request) {
	userId, ok := userIdParam(w, r)
	if !ok {
		return
	}

	var params setStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	switch params.Status {
	case schema.StatusActive, schema.StatusInactive, schema.StatusPending:
	default:
		http.Error(w, fmt.Sprintf("invalid status %v", params.Status), http.StatusBadRequest)
		return
	}

	s.applyUserPatch(w, r, userId, store.Record{"status": params.Status})
}
