package viewmodels

// LoginViewData backs the member-number login form.
type LoginViewData struct {
	CSRFToken    string
	MemberNumber string
	Next         string
	ErrorMessage string
	Toast        *ToastViewData
}

// MemberProfile is the signed-in member's own record.
type MemberProfile struct {
	MemberNumber    string
	FullName        string
	Email           string
	Address         string
	Status          string
	CollectorNumber string
	Role            string
}

// DashboardViewData backs the profile card on the dashboard.
type DashboardViewData struct {
	Layout         LayoutData
	Profile        *MemberProfile
	ProfileMissing bool
}

// MemberItem is one row in the members list.
type MemberItem struct {
	MemberNumber string
	FullName     string
	Email        string
	Status       string
	Linked       bool
}

// MembersViewData backs the members list page.
type MembersViewData struct {
	Layout  LayoutData
	Members []MemberItem
}

// CollectorsViewData backs the collectors list page.
type CollectorsViewData struct {
	Layout     LayoutData
	Collectors []MemberItem
}

// PasswordViewData backs the password change form. FirstTime switches the
// form into the mandatory first-login reset mode, which has no
// current-password field and cannot be dismissed.
type PasswordViewData struct {
	Layout       LayoutData
	CSRFToken    string
	FirstTime    bool
	ErrorField   string
	ErrorMessage string
}
