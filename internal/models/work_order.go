package models

import (
	"time"
)

// WorkOrderStatus mirrors the parent request once a workman is assigned.
// WorkOrderCancelled is reserved; no operation produces it.
type WorkOrderStatus string

const (
	WorkOrderAssigned   WorkOrderStatus = "assigned"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderCompleted  WorkOrderStatus = "completed"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

// WorkOrder is the assignment record of a workman to an approved request
type WorkOrder struct {
	ID             int64           `json:"id" db:"id"`
	RequestID      int64           `json:"request_id" db:"request_id"`
	WorkmanID      int64           `json:"workman_id" db:"workman_id"`
	Status         WorkOrderStatus `json:"status" db:"status"`
	EstimatedHours *float64        `json:"estimated_hours,omitempty" db:"estimated_hours"`
	ActualHours    *float64        `json:"actual_hours,omitempty" db:"actual_hours"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	AssignedAt     time.Time       `json:"assigned_at" db:"assigned_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// WorkOrderStatusFor maps a request status onto the work order status it implies.
func WorkOrderStatusFor(s RequestStatus) (WorkOrderStatus, bool) {
	switch s {
	case StatusAssigned:
		return WorkOrderAssigned, true
	case StatusInProgress:
		return WorkOrderInProgress, true
	case StatusCompleted:
		return WorkOrderCompleted, true
	}
	return "", false
}
