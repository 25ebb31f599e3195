package viewmodels

type DashboardViewData struct {
	Layout           LayoutData
	TotalWorkflows   int64
	RecentExecutions int64
	// SuccessRate is nil when no execution has finished yet; the view
	// renders a dash instead of a percentage.
	SuccessRate        *float64
	PendingApprovals   int64
	ActiveIntegrations []string
	Recent             []DashboardExecutionItem
}

type DashboardExecutionItem struct {
	ID           string
	WorkflowName string
	Status       string
	CreatedAt    string
}
