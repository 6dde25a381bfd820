package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/store"
	"referral_platform/dashboard/utils"

	"github.com/go-chi/chi/v5"
)

type SubmissionService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *SubmissionService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermFormsRead))

		r.Get("/list", s.List)
		r.Get("/export", s.ExportCSV)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermFormsWrite))

		r.Put("/{submission_id}/status", s.SetStatus)
		r.Delete("/{submission_id}", s.DeleteSubmission)
	})

	return r
}

// filteredSubmissions applies the list filters: an equality status filter
// pushed into the store, and a free-text search applied in memory since the
// store supports equality only.
func (s *SubmissionService) filteredSubmissions(r *http.Request) ([]store.Record, error) {
	var cond *store.Cond
	if status := r.URL.Query().Get("status"); status != "" {
		cond = store.Eq("status", status)
	}

	records, err := s.store.GetMany(schema.SubmissionsTable, cond,
		store.Options{OrderBy: "created_at", Descending: true})
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(r.URL.Query().Get("search"))
	if search == "" {
		return records, nil
	}

	searchFields := []string{"parent_name", "parent_email", "student_name", "school_name", "affiliate_id"}

	var matched []store.Record
	for _, rec := range records {
		for _, field := range searchFields {
			if strings.Contains(strings.ToLower(store.Str(rec, field)), search) {
				matched = append(matched, rec)
				break
			}
		}
	}
	return matched, nil
}

func (s *SubmissionService) List(w http.ResponseWriter, r *http.Request) {
	records, err := s.filteredSubmissions(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing submissions: %v", err), http.StatusBadRequest)
		return
	}

	submissions := make([]schema.FormSubmission, 0, len(records))
	for _, rec := range records {
		var submission schema.FormSubmission
		if err := store.Decode(rec, &submission); err != nil {
			http.Error(w, fmt.Sprintf("error decoding submission: %v", err), http.StatusInternalServerError)
			return
		}
		submissions = append(submissions, submission)
	}

	utils.WriteJsonResponse(w, submissions)
}

func (s *SubmissionService) ExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.filteredSubmissions(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("error exporting submissions: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.csv"`)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(submissionsCSV(records))); err != nil {
		// Too late for an error status; the transfer just ends short.
		slog.Error("error writing csv response", "error", err)
	}
}

func submissionIdParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	submissionId, err := strconv.ParseInt(chi.URLParam(r, "submission_id"), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid submission id: %v", err), http.StatusBadRequest)
		return 0, false
	}
	return submissionId, true
}

// SetStatus moves a submission to any status in the catalog; there is no
// state machine over transitions.
func (s *SubmissionService) SetStatus(w http.ResponseWriter, r *http.Request) {
	submissionId, ok := submissionIdParam(w, r)
	if !ok {
		return
	}

	var params setStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if !schema.SubmissionStatuses.Contains(params.Status) {
		http.Error(w, fmt.Sprintf("invalid submission status %v", params.Status), http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	affected, err := store.Guard(s.store, identity).UpdateWhere(schema.SubmissionsTable,
		store.Record{"status": params.Status}, store.Eq("id", submissionId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating submission status: %v", err), http.StatusBadRequest)
		return
	}
	if affected == 0 {
		http.Error(w, fmt.Sprintf("no submission with id %v", submissionId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}

func (s *SubmissionService) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	submissionId, ok := submissionIdParam(w, r)
	if !ok {
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	removed, err := store.Guard(s.store, identity).DeleteWhere(schema.SubmissionsTable, store.Eq("id", submissionId))
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting submission %v: %v", submissionId, err), http.StatusBadRequest)
		return
	}
	if removed == 0 {
		http.Error(w, fmt.Sprintf("no submission with id %v", submissionId), http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}
