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

type BrandingService struct {
	store    store.Store
	userAuth auth.IdentityProvider
}

func (s *BrandingService) Routes() chi.Router {
	r := chi.NewRouter()

	// Branding is read publicly so the login page and the referral landing
	// page can render it before anyone authenticates.
	r.Get("/", s.Current)

	r.Group(func(r chi.Router) {
		r.Use(guards(s.userAuth)...)
		r.Use(auth.PermissionOnly(schema.PermSettingsWrite))

		r.Post("/", s.Save)
	})

	return r
}

func defaultBranding() schema.BrandingSettings {
	return schema.BrandingSettings{
		SiteName:       "Referral Dashboard",
		Tagline:        "Track referrals. Grow enrollment.",
		PrimaryColor:   "#2563eb",
		SecondaryColor: "#1e40af",
		ShowTagline:    true,
		FontHeading:    "Inter",
		FontBody:       "Inter",
	}
}

// Current returns the most recently saved branding row. The table is
// append-only, so latest-by-created_at wins; an empty table falls back to the
// built-in defaults rather than erroring.
func (s *BrandingService) Current(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.GetMany(schema.BrandingTable, nil,
		store.Options{OrderBy: "created_at", Descending: true, Limit: 1})
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading branding settings: %v", err), http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		utils.WriteJsonResponse(w, defaultBranding())
		return
	}

	var branding schema.BrandingSettings
	if err := store.Decode(records[0], &branding); err != nil {
		http.Error(w, fmt.Sprintf("error decoding branding settings: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, branding)
}

type brandingRequest struct {
	SiteName       string `json:"site_name"`
	Tagline        string `json:"tagline"`
	LogoUrl        string `json:"logo_url"`
	LogoAlt        string `json:"logo_alt"`
	FaviconUrl     string `json:"favicon_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FooterText     string `json:"footer_text"`
	ShowTagline    bool   `json:"show_tagline"`
	CustomFonts    bool   `json:"custom_fonts"`
	FontHeading    string `json:"font_heading"`
	FontBody       string `json:"font_body"`
}

// Save appends a new branding row. Earlier rows are kept as history.
func (s *BrandingService) Save(w http.ResponseWriter, r *http.Request) {
	var params brandingRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.SiteName == "" {
		http.Error(w, "site_name is required", http.StatusBadRequest)
		return
	}

	identity, err := auth.IdentityFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	brandingId, _, err := store.Guard(s.store, identity).Insert(schema.BrandingTable, store.Record{
		"site_name":       params.SiteName,
		"tagline":         params.Tagline,
		"logo_url":        params.LogoUrl,
		"logo_alt":        params.LogoAlt,
		"favicon_url":     params.FaviconUrl,
		"primary_color":   params.PrimaryColor,
		"secondary_color": params.SecondaryColor,
		"footer_text":     params.FooterText,
		"show_tagline":    params.ShowTagline,
		"custom_fonts":    params.CustomFonts,
		"font_heading":    params.FontHeading,
		"font_body":       params.FontBody,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error saving branding settings: %v", err), http.StatusBadRequest)
		return
	}

	utils.WriteJsonResponse(w, map[string]int64{"branding_id": brandingId})
}
