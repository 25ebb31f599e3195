// Package viewmodels holds the plain data structs rendered by the views.
package viewmodels

type LayoutData struct {
	Title      string
	CSRFToken  string
	UserEmail  string
	UserRole   string
	IsAdmin    bool
	ActivePath string
	Toast      *ToastViewData
}

type ToastViewData struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
