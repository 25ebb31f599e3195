package viewmodels

type ApprovalsViewData struct {
	Layout        LayoutData
	Approvals     []ApprovalItem
	HasApprovals  bool
	EmptyStateMsg string
}

type ApprovalItem struct {
	ID           string
	ExecutionID  string
	WorkflowName string
	StepName     string
	Message      string
	RequestedAt  string
}
