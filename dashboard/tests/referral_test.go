package tests

import (
	"testing"

	"referral_platform/dashboard/schema"
)

func sampleSubmission(affiliateId string) map[string]string {
	return map[string]string{
		"affiliate_id":  affiliateId,
		"form_name":     "Fall Intake",
		"parent_name":   "Pat Parent",
		"parent_email":  "pat@mail.com",
		"student_name":  "Sam Student",
		"student_grade": "5th",
		"school_name":   "Lincoln Elementary",
		"city":          "Springfield",
		"state":         "IL",
		"program":       "Math",
	}
}

func TestReferralVisitCounters(t *testing.T) {
	env := setupTestEnv(t)
	anon := env.newClient()

	// First sighting of an affiliate id creates the link.
	link, err := anon.visitLink("ref123")
	if err != nil {
		t.Fatal(err)
	}
	if link.Clicks != 1 || link.Conversions != 0 {
		t.Fatalf("expected clicks=1 conversions=0, got %v", link)
	}
	if link.LastUsedAt == nil {
		t.Fatal("expected last_used_at to be stamped")
	}

	firstSeen := *link.LastUsedAt

	link, err = anon.visitLink("ref123")
	if err != nil {
		t.Fatal(err)
	}
	if link.Clicks != 2 || link.Conversions != 0 {
		t.Fatalf("expected clicks=2 conversions=0, got %v", link)
	}
	if link.LastUsedAt == nil || link.LastUsedAt.Before(firstSeen) {
		t.Fatalf("expected a refreshed last_used_at, got %v", link.LastUsedAt)
	}

	// The echoed record matches what the store now holds.
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	all, err := admin.allLinks()
	if err != nil {
		t.Fatal(err)
	}
	for _, stored := range all {
		if stored.AffiliateId != "ref123" {
			continue
		}
		if stored.Clicks != link.Clicks || !stored.LastUsedAt.Equal(*link.LastUsedAt) {
			t.Fatalf("visit response diverged from stored link: %v vs %v", link, stored)
		}
	}

	// A different affiliate id gets its own counters.
	other, err := anon.visitLink("ref456")
	if err != nil {
		t.Fatal(err)
	}
	if other.Clicks != 1 {
		t.Fatalf("expected fresh counter, got %v", other)
	}
}

func TestSubmissionFlow(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	anon := env.newClient()
	if _, err := anon.visitLink("ref789"); err != nil {
		t.Fatal(err)
	}

	// Missing required fields are rejected before anything is written.
	incomplete := sampleSubmission("ref789")
	delete(incomplete, "parent_email")
	if _, err := anon.submit(incomplete); err == nil {
		t.Fatal("missing parent_email should be rejected")
	}

	badEmail := sampleSubmission("ref789")
	badEmail["parent_email"] = "not-an-email"
	if _, err := anon.submit(badEmail); err == nil {
		t.Fatal("malformed email should be rejected")
	}

	link, err := anon.visitLink("ref789")
	if err != nil {
		t.Fatal(err)
	}
	if link.Conversions != 0 {
		t.Fatal("rejected submissions must not count as conversions")
	}

	submissionId, err := anon.submit(sampleSubmission("ref789"))
	if err != nil {
		t.Fatal(err)
	}
	if submissionId == 0 {
		t.Fatal("expected a submission id")
	}

	link, err = anon.visitLink("ref789")
	if err != nil {
		t.Fatal(err)
	}
	if link.Conversions != 1 {
		t.Fatalf("expected conversions=1, got %v", link)
	}

	submissions, err := admin.listSubmissions("")
	if err != nil {
		t.Fatal(err)
	}
	if len(submissions) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(submissions))
	}
	sub := submissions[0]
	if sub.Status != schema.SubmissionPending || sub.AffiliateId != "ref789" || sub.ParentName != "Pat Parent" {
		t.Fatalf("invalid submission %v", sub)
	}
	if sub.ReferralId == nil || *sub.ReferralId != link.Id {
		t.Fatal("submission should be bound to the referral link")
	}
}

func TestSubmissionWithoutReferral(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	anon := env.newClient()
	submission := sampleSubmission("")
	if _, err := anon.submit(submission); err != nil {
		t.Fatal(err)
	}

	submissions, err := admin.listSubmissions("")
	if err != nil {
		t.Fatal(err)
	}
	if len(submissions) != 1 || submissions[0].ReferralId != nil {
		t.Fatalf("expected unbound submission, got %v", submissions)
	}
}

func TestReferralLinks(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("basic_r1", schema.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	link, err := user.createLink()
	if err != nil {
		t.Fatal(err)
	}
	if link.AffiliateId == "" || link.Clicks != 0 || link.Conversions != 0 {
		t.Fatalf("invalid new link %v", link)
	}
	if link.UserId == nil || *link.UserId != user.userId {
		t.Fatal("link should belong to its creator")
	}

	links, err := user.myLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].AffiliateId != link.AffiliateId {
		t.Fatalf("invalid link list %v", links)
	}

	// Listing everyone's links needs analytics access.
	if _, err := user.allLinks(); err != ErrForbidden {
		t.Fatal("all links should require analytics:read")
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	anon := env.newClient()
	if _, err := anon.visitLink("ref_outside"); err != nil {
		t.Fatal(err)
	}

	all, err := admin.allLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 links, got %d", len(all))
	}
}
