package store

import (
	"testing"

	"referral_platform/dashboard/schema"
)

func TestDecode(t *testing.T) {
	rec := Record{
		"id":           int64(4),
		"site_name":    "EduReferral",
		"show_tagline": true,
		"custom_fonts": false,
	}

	var branding schema.BrandingSettings
	if err := Decode(rec, &branding); err != nil {
		t.Fatal(err)
	}
	if branding.Id != 4 || branding.SiteName != "EduReferral" || !branding.ShowTagline {
		t.Fatalf("invalid decoded settings %v", branding)
	}
}

func TestDecodeNumericBools(t *testing.T) {
	// sqlite returns boolean columns as integers through the untyped scan.
	rec := Record{
		"id":           int64(1),
		"site_name":    "EduReferral",
		"show_tagline": int64(1),
		"custom_fonts": int64(0),
	}

	var branding schema.BrandingSettings
	if err := Decode(rec, &branding); err != nil {
		t.Fatal(err)
	}
	if !branding.ShowTagline || branding.CustomFonts {
		t.Fatalf("numeric booleans not normalized: %v", branding)
	}

	// The input record is left untouched.
	if _, ok := rec["show_tagline"].(int64); !ok {
		t.Fatal("decode must not mutate the source record")
	}
}

func TestDecodeLeavesRealBoolsAlone(t *testing.T) {
	rec := Record{"show_tagline": true, "custom_fonts": false, "site_name": "X"}

	var branding schema.BrandingSettings
	if err := Decode(rec, &branding); err != nil {
		t.Fatal(err)
	}
	if !branding.ShowTagline || branding.CustomFonts {
		t.Fatalf("plain booleans mishandled: %v", branding)
	}
}
