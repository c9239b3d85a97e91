package models

// CreateMaintenanceRequestInput is what a tenant submits when filing a request
type CreateMaintenanceRequestInput struct {
	UnitID      int64    `json:"unit_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority,omitempty"`
	Category    Category `json:"category,omitempty"`
}

// Decision is the landlord's verdict on a pending request
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type DecisionInput struct {
	Decision      Decision `json:"-"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	Reason        *string  `json:"reason,omitempty"`
}

type AssignInput struct {
	WorkmanID      int64    `json:"workman_id"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
}

type CompletionInput struct {
	ActualCost  *float64 `json:"actual_cost,omitempty"`
	ActualHours *float64 `json:"actual_hours,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// ListMaintenanceRequestsInput carries the query parameters of a listing
type ListMaintenanceRequestsInput struct {
	Status string
	Limit  int
	Offset int
}
