package viewmodels

// LoginViewData backs the standalone login page. SetupRequired switches
// the page to the bootstrap-admin hint when auth_users is empty.
type LoginViewData struct {
	CSRFToken     string
	Email         string
	Next          string
	ErrorMessage  string
	SetupRequired bool
	Toast         *ToastViewData
}
