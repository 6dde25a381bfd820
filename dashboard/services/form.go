package services

import (
	"encoding/json"
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

type FormService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *FormService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermFormsRead))

		r.Get("/list", s.List)
		r.Get("/{form_id}", s.Info)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermFormsWrite))

		r.Post("/create", s.CreateForm)
		r.Put("/{form_id}", s.UpdateForm)
		r.Delete("/{form_id}", s.DeleteForm)
		r.Put("/{form_id}/status", s.SetStatus)
	})

	return r
}

type FormInfo struct {
	Id          int64                `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      string               `json:"status"`
	Fields      []schema.FormField   `json:"fields"`
	Sections    []schema.FormSection `json:"sections"`
	Settings    schema.FormSettings  `json:"settings"`
	Submissions int64                `json:"submissions"`
	CreatedAt   string               `json:"created_at,omitempty"`
	UpdatedAt   string               `json:"updated_at,omitempty"`
}

func formInfoFromRecord(rec store.Record) FormInfo {
	id, _ := store.Id(rec)

	info := FormInfo{
		Id:          id,
		Name:        store.Str(rec, "name"),
		Description: store.Str(rec, "description"),
		Status:      store.Str(rec, "status"),
		Submissions: store.Int(rec, "submissions"),
	}
	if v := rec["created_at"]; v != nil {
		info.CreatedAt = fmt.Sprint(v)
	}
	if v := rec["updated_at"]; v != nil {
		info.UpdatedAt = fmt.Sprint(v)
	}

	// Stored as JSON text columns; malformed content renders as empty, the
	// dashboard never hard-fails on bad stored data.
	_ = json.Unmarshal([]byte(store.Str(rec, "fields")), &info.Fields)
	_ = json.Unmarshal([]byte(store.Str(rec, "sections")), &info.Sections)
	_ = json.Unmarshal([]byte(store.Str(rec, "settings")), &info.Settings)

	return info
}

func (s *FormService) List(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.GetMany(schema.FormsTable, nil, store.Options{OrderBy: "created_at", Descending: true})
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing forms: %v", err), http.StatusBadRequest)
		return
	}

	infos := make([]FormInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, formInfoFromRecord(rec))
	}
	utils.WriteJsonResponse(w, infos)
}

func formIdParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	formId, err := strconv.ParseInt(chi.URLParam(r, "form_id"), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid form id: %v", err), http.StatusBadRequest)
		return 0, false
	}
	return formId, true
}

func (s *FormService) Info(w http.ResponseWriter, r *http.Request) {
	formId, ok := formIdParam(w, r)
	if !ok {
		return
	}

	rec, err := s.store.GetOne(schema.FormsTable, store.Eq("id", formId))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("no form with id %v", formId), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("error retrieving form: %v", err), http.StatusBadRequest)
		return
	}

	utils.WriteJsonResponse(w, formInfoFromRecord(rec))
}

type formRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      string               `json:"status"`
	Fields      []schema.FormField   `json:"fields"`
	Sections    []schema.FormSection `json:"sections"`
	Settings    schema.FormSettings  `json:"settings"`
}

func validateFields(fields []schema.FormField) error {
	seen := map[string]bool{}
	for _, field := range fields {
		if field.Id == "" {
			return fmt.Errorf("field with label %q is missing an id", field.Label)
		}
		if seen[field.Id] {
			return fmt.Errorf("duplicate field id %q", field.Id)
		}
		seen[field.Id] = true

		if !schema.FieldTypes.Contains(field.Type) {
			return fmt.Errorf("field %q has unknown type %q", field.Id, field.Type)
		}

		if (field.Type == "select" || field.Type == "radio") && len(field.Options) == 0 {
			return fmt.Errorf("field %q of type %v requires options", field.Id, field.Type)
		}
	}
	return nil
}

func marshalFormParts(params formRequest) (fields, sections, settings string, err error) {
	if params.Fields == nil {
		params.Fields = []schema.FormField{}
	}
	if params.Sections == nil {
		params.Sections = []schema.FormSection{}
	}

	fieldsData, err := json.Marshal(params.Fields)
	if err != nil {
		return "", "", "", fmt.Errorf("error encoding fields: %w", err)
	}
	sectionsData, err := json.Marshal(params.Sections)
	if err != nil {
		return "", "", "", fmt.Errorf("error encoding sections: %w", err)
	}
	settingsData, err := json.Marshal(params.Settings)
	if err != nil {
		return "", "", "", fmt.Errorf("error encoding settings: %w", err)
	}

	return string(fieldsData), string(sectionsData), string(settingsData), nil
}

func (s *FormService) CreateForm(w http.ResponseWriter, r *http.Request) {
	var params formRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "form name is required", http.StatusBadRequest)
		return
	}
	if params.Status == "" {
		params.Status = schema.FormDraft
	}
	if err := validateFields(params.Fields); err != nil {
		http.Error(w, fmt.Sprintf("invalid form definition: %v", err), http.StatusBadRequest)
		return
	}

	fields, sections, settings, err := marshalFormParts(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	formId, _, err := store.Guard(s.store, identity).Insert(schema.FormsTable, store.Record{
		"name":        params.Name,
		"description": params.Description,
		"status":      params.Status,
		"fields":      fields,
		"sections":    sections,
		"settings":    settings,
		"submissions": 0,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating form: %v", err), http.StatusBadRequest)
		return
	}

	utils.WriteJsonResponse(w, map[string]int64{"form_id": formId})
}

func (s *FormService) UpdateForm(w http.ResponseWriter, r *http.Request) {
	formId, ok := formIdParam(w, r)
	if !ok {
		return
	}

	var params formRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := validateFields(params.Fields); err != nil {
		http.Error(w, fmt.Sprintf("invalid form definition: %v", err), http.StatusBadRequest)
		return
	}

	fields, sections, settings, err := marshalFormParts(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := store.Record{
		"fields":   fields,
		"sections": sections,
		"settings": settings,
	}
	if params.Name != "" {
		patch["name"] = params.Name
	}
	if params.Description != "" {
		patch["description"] = params.Description
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	affected, err := store.Guard(s.store, identity).UpdateWhere(schema.FormsTable, patch, store.Eq("id", formId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating form %v: %v", formId, err), http.StatusBadRequest)
		return
	}
	if affected == 0 {
		http.Error(w, fmt.Sprintf("no form with id %v", formId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *FormService) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formId, ok := formIdParam(w, r)
	if !ok {
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	removed, err := store.Guard(s.store, identity).DeleteWhere(schema.FormsTable, store.Eq("id", formId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting form %v: %v", formId, err), http.StatusBadRequest)
		return
	}
	if removed == 0 {
		http.Error(w, fmt.Sprintf("no form with id %v", formId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *FormService) SetStatus(w http.ResponseWriter, r *http.Request) {
	formId, ok := formIdParam(w, r)
	if !ok {
		return
	}

	var params setStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	switch params.Status {
	case schema.FormDraft, schema.FormActive, schema.FormArchived:
	default:
		http.Error(w, fmt.Sprintf("invalid form status %v", params.Status), http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	affected, err := store.Guard(s.store, identity).UpdateWhere(schema.FormsTable,
		store.Record{"status": params.Status}, store.Eq("id", formId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating form status: %v", err), http.StatusBadRequest)
		return
	}
	if affected == 0 {
		http.Error(w, fmt.Sprintf("no form with id %v", formId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}
