package viewmodels

type WorkflowsViewData struct {
	Layout        LayoutData
	Workflows     []WorkflowCard
	HasWorkflows  bool
	EmptyStateMsg string
}

type WorkflowCard struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	CreatedAt   string
}
