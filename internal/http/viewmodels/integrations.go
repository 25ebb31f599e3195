package viewmodels

type IntegrationsViewData struct {
	Layout          LayoutData
	Integrations    []IntegrationItem
	HasIntegrations bool
}

type IntegrationItem struct {
	ID      int64
	Name    string
	Kind    string
	BaseURL string
	Enabled bool
}
