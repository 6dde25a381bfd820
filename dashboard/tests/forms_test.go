package tests

import (
	"testing"

	"referral_platform/dashboard/schema"
)

func sampleForm(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Referral intake form",
		"fields": []map[string]any{
			{"id": "parent_name", "type": "text", "label": "Parent Name", "required": true, "section": "parent"},
			{"id": "parent_email", "type": "email", "label": "Parent Email", "required": true, "section": "parent"},
			{"id": "program", "type": "select", "label": "Program", "section": "student", "options": []string{"Math", "Reading"}},
		},
		"sections": []map[string]any{
			{"id": "parent", "name": "Parent Information", "icon": "user"},
			{"id": "student", "name": "Student Information", "icon": "book"},
		},
		"settings": map[string]any{
			"allowDuplicates":  true,
			"submitButtonText": "Apply",
		},
	}
}

func TestFormLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	formId, err := admin.createForm(sampleForm("Fall Intake"))
	if err != nil {
		t.Fatal(err)
	}

	info, err := admin.formInfo(formId)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "Fall Intake" || info.Status != schema.FormDraft {
		t.Fatalf("invalid form info %v", info)
	}
	if len(info.Fields) != 3 || info.Fields[2].Options[1] != "Reading" {
		t.Fatalf("fields did not round trip: %v", info.Fields)
	}
	if len(info.Sections) != 2 || info.Sections[0].Id != "parent" {
		t.Fatalf("sections did not round trip: %v", info.Sections)
	}
	if !info.Settings.AllowDuplicates || info.Settings.SubmitButtonText != "Apply" {
		t.Fatalf("settings did not round trip: %v", info.Settings)
	}

	if err := admin.setFormStatus(formId, schema.FormActive); err != nil {
		t.Fatal(err)
	}
	if err := admin.setFormStatus(formId, "published"); err == nil {
		t.Fatal("unknown form status should be rejected")
	}

	forms, err := admin.listForms()
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0].Status != schema.FormActive {
		t.Fatalf("invalid form list %v", forms)
	}
}

func TestFormValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	noName := sampleForm("")
	if _, err := admin.createForm(noName); err == nil {
		t.Fatal("form without name should be rejected")
	}

	badType := sampleForm("Bad Type")
	badType["fields"] = []map[string]any{{"id": "a", "type": "slider", "label": "A"}}
	if _, err := admin.createForm(badType); err == nil {
		t.Fatal("unknown field type should be rejected")
	}

	dupIds := sampleForm("Dup Ids")
	dupIds["fields"] = []map[string]any{
		{"id": "a", "type": "text", "label": "A"},
		{"id": "a", "type": "text", "label": "B"},
	}
	if _, err := admin.createForm(dupIds); err == nil {
		t.Fatal("duplicate field ids should be rejected")
	}

	noOptions := sampleForm("No Options")
	noOptions["fields"] = []map[string]any{{"id": "a", "type": "select", "label": "A"}}
	if _, err := admin.createForm(noOptions); err == nil {
		t.Fatal("select without options should be rejected")
	}
}

func TestFormPermissions(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("basic_f1", schema.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := user.listForms(); err != nil {
		t.Fatal(err)
	}
	if _, err := user.createForm(sampleForm("Nope")); err != ErrForbidden {
		t.Fatal("forms:read should not allow form creation")
	}

	manager, err := env.newUser("manager_f1", schema.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := manager.createForm(sampleForm("Manager Form")); err != nil {
		t.Fatal(err)
	}
}
