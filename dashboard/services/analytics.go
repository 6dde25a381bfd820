package services

import (
	"fmt"
	"net/http"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/store"
	"referral_platform/dashboard/utils"

	"github.com/go-chi/chi/v5"
)

type AnalyticsService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *AnalyticsService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermAnalyticsRead))

		r.Get("/summary", s.Summary)
	})

	return r
}

type AnalyticsSummary struct {
	TotalUsers       int `json:"total_users"`
	ActiveUsers      int `json:"active_users"`
	TotalLinks       int `json:"total_links"`
	TotalClicks      int `json:"total_clicks"`
	TotalConversions int `json:"total_conversions"`

	TotalSubmissions    int            `json:"total_submissions"`
	SubmissionsByStatus map[string]int `json:"submissions_by_status"`
	ConversionRatePct   float64        `json:"conversion_rate_pct"`
}

// Summary aggregates the dashboard headline numbers in one pass per table.
// The counters live on the referral link rows, so totals are simple sums.
func (s *AnalyticsService) Summary(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.GetMany(schema.UsersTable, nil, store.Options{})
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading users: %v", err), http.StatusInternalServerError)
		return
	}
	links, err := s.store.GetMany(schema.ReferralsTable, nil, store.Options{})
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading referral links: %v", err), http.StatusInternalServerError)
		return
	}
	submissions, err := s.store.GetMany(schema.SubmissionsTable, nil, store.Options{})
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading submissions: %v", err), http.StatusInternalServerError)
		return
	}

	summary := AnalyticsSummary{
		TotalUsers:          len(users),
		TotalLinks:          len(links),
		TotalSubmissions:    len(submissions),
		SubmissionsByStatus: map[string]int{},
	}

	for _, rec := range users {
		if store.Str(rec, "status") == schema.StatusActive {
			summary.ActiveUsers++
		}
	}

	for _, rec := range links {
		summary.TotalClicks += int(store.Int(rec, "clicks"))
		summary.TotalConversions += int(store.Int(rec, "conversions"))
	}

	for _, rec := range submissions {
		summary.SubmissionsByStatus[store.Str(rec, "status")]++
	}

	if summary.TotalClicks > 0 {
		summary.ConversionRatePct = 100 * float64(summary.TotalConversions) / float64(summary.TotalClicks)
	}

	utils.WriteJsonResponse(w, summary)
}
