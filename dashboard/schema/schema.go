package schema

import "time"

// Table names as the record store sees them. The gorm models below exist for
// migration and for typed helpers; every runtime read/write goes through the
// generic store using these names.
const (
	UsersTable       = "users"
	RolesTable       = "roles"
	ReferralsTable   = "referral_links"
	SubmissionsTable = "form_submissions"
	FormsTable       = "forms"
	BrandingTable    = "branding_settings"
)

type User struct {
	Id int64 `gorm:"primaryKey" json:"id"`

	Email    string `gorm:"uniqueIndex" json:"email"`
	Name     string `json:"name"`
	Password []byte `json:"-"`

	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Permissions StringList `gorm:"serializer:json" json:"permissions"`

	Phone        string `json:"phone"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	StudentName  string `json:"student_name"`
	StudentGrade string `json:"student_grade"`

	ReferralsCount   int     `json:"referrals_count"`
	ConversionsCount int     `json:"conversions_count"`
	Earnings         float64 `json:"earnings"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Role struct {
	Id int64 `gorm:"primaryKey" json:"id"`

	Name        string     `gorm:"uniqueIndex" json:"name"`
	DisplayName string     `json:"display_name"`
	Description string     `json:"description"`
	Permissions StringList `gorm:"serializer:json" json:"permissions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReferralLink struct {
	Id int64 `gorm:"primaryKey" json:"id"`

	AffiliateId string `gorm:"uniqueIndex" json:"affiliate_id"`
	UserId      *int64 `json:"user_id"`

	Clicks      int `json:"clicks"`
	Conversions int `json:"conversions"`

	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type FormSubmission struct {
	Id int64 `gorm:"primaryKey" json:"id"`

	ReferralId *int64 `json:"referral_id"`
	FormName   string `json:"form_name"`

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

	AffiliateId string `json:"affiliate_id"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FormField struct {
	Id          string   `json:"id"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder"`
	Required    bool     `json:"required"`
	Section     string   `json:"section"`
	Options     []string `json:"options,omitempty"`
}

type FormSection struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type FormSettings struct {
	AllowDuplicates       bool   `json:"allowDuplicates"`
	SendConfirmationEmail bool   `json:"sendConfirmationEmail"`
	RedirectUrl           string `json:"redirectUrl"`
	SubmitButtonText      string `json:"submitButtonText"`
}

type Form struct {
	Id int64 `gorm:"primaryKey" json:"id"`

	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`

	Fields   []FormField   `gorm:"serializer:json" json:"fields"`
	Sections []FormSection `gorm:"serializer:json" json:"sections"`
	Settings FormSettings  `gorm:"serializer:json" json:"settings"`

	Submissions int `json:"submissions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BrandingSettings rows are append-only: saving branding inserts a new row
// and readers take the latest by creation time.
type BrandingSettings struct {
	Id int64 `gorm:"primaryKey" json:"id"`

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

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Role{}, &ReferralLink{}, &FormSubmission{}, &Form{}, &BrandingSettings{},
	}
}
