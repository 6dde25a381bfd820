package schema

type StringList []string

func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// User roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleUser    = "user"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Form statuses.
const (
	FormDraft    = "draft"
	FormActive   = "active"
	FormArchived = "archived"
)

// Submission statuses. Transitions between them are unconstrained.
const (
	SubmissionPending   = "pending"
	SubmissionContacted = "contacted"
	SubmissionEnrolled  = "enrolled"
	SubmissionCompleted = "completed"
	SubmissionCancelled = "cancelled"
)

var SubmissionStatuses = StringList{
	SubmissionPending, SubmissionContacted, SubmissionEnrolled, SubmissionCompleted, SubmissionCancelled,
}

var FieldTypes = StringList{
	"text", "email", "phone", "select", "textarea", "date", "checkbox", "radio",
}

// Permission strings checked by the authorization predicate.
const (
	PermUsersRead      = "users:read"
	PermUsersWrite     = "users:write"
	PermFormsRead      = "forms:read"
	PermFormsWrite     = "forms:write"
	PermAnalyticsRead  = "analytics:read"
	PermAnalyticsWrite = "analytics:write"
	PermSettingsRead   = "settings:read"
	PermSettingsWrite  = "settings:write"
)

type Permission struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// PermissionCatalog is the fixed set of grantable permissions. The predicate
// never validates against it; a string outside the catalog is simply never
// granted.
var PermissionCatalog = []Permission{
	{Id: PermUsersRead, Name: "View Users", Description: "Can view user information and lists", Category: "User Management"},
	{Id: PermUsersWrite, Name: "Manage Users", Description: "Can create, edit, and delete users", Category: "User Management"},
	{Id: PermFormsRead, Name: "View Forms", Description: "Can view forms and submissions", Category: "Form Management"},
	{Id: PermFormsWrite, Name: "Manage Forms", Description: "Can create, edit, and delete forms", Category: "Form Management"},
	{Id: PermAnalyticsRead, Name: "View Analytics", Description: "Can view analytics and reports", Category: "Analytics"},
	{Id: PermAnalyticsWrite, Name: "Manage Analytics", Description: "Can configure analytics settings", Category: "Analytics"},
	{Id: PermSettingsRead, Name: "View Settings", Description: "Can view system settings", Category: "System Settings"},
	{Id: PermSettingsWrite, Name: "Manage Settings", Description: "Can modify system settings and configuration", Category: "System Settings"},
}

// DefaultRoles are seeded on startup when the roles table is empty. A user's
// permission set is reset to their role's set whenever the role changes.
var DefaultRoles = []Role{
	{
		Name:        RoleAdmin,
		DisplayName: "Administrator",
		Description: "Full system access with all permissions",
		Permissions: StringList{
			PermUsersRead, PermUsersWrite, PermFormsRead, PermFormsWrite,
			PermAnalyticsRead, PermAnalyticsWrite, PermSettingsRead, PermSettingsWrite,
		},
	},
	{
		Name:        RoleManager,
		DisplayName: "Manager",
		Description: "Management level access with most permissions",
		Permissions: StringList{PermUsersRead, PermFormsRead, PermFormsWrite, PermAnalyticsRead},
	},
	{
		Name:        RoleStaff,
		DisplayName: "Staff Member",
		Description: "Standard staff access with limited permissions",
		Permissions: StringList{PermUsersRead, PermFormsRead},
	},
	{
		Name:        RoleUser,
		DisplayName: "Regular User",
		Description: "Basic user access with minimal permissions",
		Permissions: StringList{PermFormsRead},
	},
}
