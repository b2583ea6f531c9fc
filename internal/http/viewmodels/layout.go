package viewmodels

// LayoutData is the common chrome for every page.
type LayoutData struct {
	Title          string
	CSRFToken      string
	MemberNumber   string
	Role           string
	ActivePath     string
	ShowUsers      bool
	ShowCollectors bool
	Toast          *ToastViewData
}

// ToastViewData is a one-shot flash message.
type ToastViewData struct {
	Category    string
	Title       string
	Description string
}
