package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/store"
	"referral_platform/dashboard/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ReferralService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *ReferralService) Routes() chi.Router {
	r := chi.NewRouter()

	// Public surface: visiting a referral link and submitting the form are
	// anonymous, so their writes go through the unguarded store.
	r.Group(func(r chi.Router) {
		r.Get("/visit/{affiliate_id}", s.Visit)
		r.Post("/submit", s.Submit)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)

		r.Get("/links", s.MyLinks)
		r.Post("/links", s.CreateLink)
	})

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermAnalyticsRead))

		r.Get("/links/all", s.AllLinks)
	})

	return r
}

func linkFromRecord(rec store.Record) (schema.ReferralLink, error) {
	var link schema.ReferralLink
	err := store.Decode(rec, &link)
	return link, err
}

type visitResponse struct {
	Link schema.ReferralLink `json:"link"`
	Form *FormInfo           `json:"form,omitempty"`
}

// Visit resolves a public affiliate identifier. The first sighting creates
// the link row with clicks=1; later visits increment the click counter and
// stamp last_used_at. Counters only ever move up.
func (s *ReferralService) Visit(w http.ResponseWriter, r *http.Request) {
	affiliateId := chi.URLParam(r, "affiliate_id")
	now := time.Now().UTC()

	rec, err := s.store.GetOne(schema.ReferralsTable, store.Eq("affiliate_id", affiliateId))
	if errors.Is(err, store.ErrNotFound) {
		_, rec, err = s.store.Insert(schema.ReferralsTable, store.Record{
			"affiliate_id": affiliateId,
			"user_id":      nil,
			"clicks":       1,
			"conversions":  0,
			"last_used_at": now.Format(time.RFC3339),
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("error recording referral visit: %v", err), http.StatusInternalServerError)
			return
		}
	} else if err != nil {
		http.Error(w, fmt.Sprintf("error resolving referral link: %v", err), http.StatusInternalServerError)
		return
	} else {
		patch := store.Record{
			"clicks":       store.Int(rec, "clicks") + 1,
			"last_used_at": now.Format(time.RFC3339),
		}
		_, err := s.store.UpdateWhere(schema.ReferralsTable, patch, store.Eq("affiliate_id", affiliateId))
		if err != nil {
			http.Error(w, fmt.Sprintf("error recording referral visit: %v", err), http.StatusInternalServerError)
			return
		}
		// The response mirrors the stored row, fresh stamp included.
		for k, v := range patch {
			rec[k] = v
		}
	}

	link, err := linkFromRecord(rec)
	if err != nil {
		http.Error(w, fmt.Sprintf("error decoding referral link: %v", err), http.StatusInternalServerError)
		return
	}

	res := visitResponse{Link: link}

	// The active form definition rides along so the public page can render
	// and prefill without a second round trip. No active form is fine.
	formRec, err := s.store.GetOne(schema.FormsTable, store.Eq("status", schema.FormActive))
	if err == nil {
		info := formInfoFromRecord(formRec)
		res.Form = &info
	} else if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("error loading active form for referral visit", "error", err)
	}

	utils.WriteJsonResponse(w, res)
}

type submitRequest struct {
	AffiliateId string `json:"affiliate_id"`

	FormName string `json:"form_name"`

	ParentName  string `json:"parent_name"`
	ParentEmail string `json:"parent_email"`
	ParentPhone string `json:"parent_phone"`

	StudentName  string `json:"student_name"`
	StudentGrade string `json:"student_grade"`
	StudentEmail string `json:"student_email"`
	StudentPhone string `json:"student_phone"`

	SchoolName   string `json:"school_name"`
	DistrictName string `json:"district_name"`
	City         string `json:"city"`
	State        string `json:"state"`

	Program    string `json:"program"`
	ReferredBy string `json:"referred_by"`
	Notes      string `json:"notes"`
}

type submitResponse struct {
	SubmissionId int64 `json:"submission_id"`
}

// Submit accepts the public application form. Validation failures block the
// submission before anything is written; a successful submission is stored
// with status pending, bound to the referral link when an affiliate id is
// present, and bumps that link's conversion counter.
func (s *ReferralService) Submit(w http.ResponseWriter, r *http.Request) {
	var params submitRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if missing := utils.MissingFields(map[string]string{
		"parent_name":  params.ParentName,
		"parent_email": params.ParentEmail,
		"student_name": params.StudentName,
	}); len(missing) > 0 {
		http.Error(w, fmt.Sprintf("missing required fields: %v", missing), http.StatusBadRequest)
		return
	}
	if !utils.ValidEmail(params.ParentEmail) {
		http.Error(w, fmt.Sprintf("invalid email address %v", params.ParentEmail), http.StatusBadRequest)
		return
	}

	var referralId any
	if params.AffiliateId != "" {
		rec, err := s.store.GetOne(schema.ReferralsTable, store.Eq("affiliate_id", params.AffiliateId))
		if err == nil {
			id, idErr := store.Id(rec)
			if idErr == nil {
				referralId = id
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			http.Error(w, fmt.Sprintf("error resolving referral link: %v", err), http.StatusInternalServerError)
			return
		}
	}

	submissionId, _, err := s.store.Insert(schema.SubmissionsTable, store.Record{
		"referral_id":   referralId,
		"form_name":     params.FormName,
		"parent_name":   params.ParentName,
		"parent_email":  params.ParentEmail,
		"parent_phone":  params.ParentPhone,
		"student_name":  params.StudentName,
		"student_grade": params.StudentGrade,
		"student_email": params.StudentEmail,
		"student_phone": params.StudentPhone,
		"school_name":   params.SchoolName,
		"district_name": params.DistrictName,
		"city":          params.City,
		"state":         params.State,
		"program":       params.Program,
		"referred_by":   params.ReferredBy,
		"affiliate_id":  params.AffiliateId,
		"status":        schema.SubmissionPending,
		"notes":         params.Notes,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error saving submission: %v", err), http.StatusInternalServerError)
		return
	}

	if referralId != nil {
		s.bumpConversions(params.AffiliateId)
	}
	s.bumpFormCounter(params.FormName)

	utils.WriteJsonResponse(w, submitResponse{SubmissionId: submissionId})
}

// bumpConversions is best effort: the submission is already stored, a missed
// counter increment is not worth failing the applicant over.
func (s *ReferralService) bumpConversions(affiliateId string) {
	rec, err := s.store.GetOne(schema.ReferralsTable, store.Eq("affiliate_id", affiliateId))
	if err != nil {
		slog.Error("error reloading referral link for conversion", "affiliate_id", affiliateId, "error", err)
		return
	}

	_, err = s.store.UpdateWhere(schema.ReferralsTable, store.Record{
		"conversions": store.Int(rec, "conversions") + 1,
	}, store.Eq("affiliate_id", affiliateId))
	if err != nil {
		slog.Error("error incrementing conversions", "affiliate_id", affiliateId, "error", err)
	}
}

func (s *ReferralService) bumpFormCounter(formName string) {
	if formName == "" {
		return
	}

	rec, err := s.store.GetOne(schema.FormsTable, store.Eq("name", formName))
	if err != nil {
		return
	}

	_, err = s.store.UpdateWhere(schema.FormsTable, store.Record{
		"submissions": store.Int(rec, "submissions") + 1,
	}, store.Eq("name", formName))
	if err != nil {
		slog.Error("error incrementing form submission counter", "form", formName, "error", err)
	}
}

func (s *ReferralService) MyLinks(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	s.writeLinks(w, store.Eq("user_id", identity.UserId))
}

func (s *ReferralService) AllLinks(w http.ResponseWriter, r *http.Request) {
	s.writeLinks(w, nil)
}

func (s *ReferralService) writeLinks(w http.ResponseWriter, cond *store.Cond) {
	records, err := s.store.GetMany(schema.ReferralsTable, cond,
		store.Options{OrderBy: "created_at", Descending: true})
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing referral links: %v", err), http.StatusBadRequest)
		return
	}

	links := make([]schema.ReferralLink, 0, len(records))
	for _, rec := range records {
		link, err := linkFromRecord(rec)
		if err != nil {
			http.Error(w, fmt.Sprintf("error decoding referral link: %v", err), http.StatusInternalServerError)
			return
		}
		links = append(links, link)
	}

	utils.WriteJsonResponse(w, links)
}

// CreateLink mints a fresh affiliate identifier for the calling user.
func (s *ReferralService) CreateLink(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	affiliateId := newAffiliateId()

	_, rec, err := s.store.Insert(schema.ReferralsTable, store.Record{
		"affiliate_id": affiliateId,
		"user_id":      identity.UserId,
		"clicks":       0,
		"conversions":  0,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating referral link: %v", err), http.StatusInternalServerError)
		return
	}

	link, err := linkFromRecord(rec)
	if err != nil {
		http.Error(w, fmt.Sprintf("error decoding referral link: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, link)
}

func newAffiliateId() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
