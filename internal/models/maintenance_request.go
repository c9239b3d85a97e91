package models

import (
	"time"
)

// RequestStatus is the lifecycle state of a maintenance request
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// Priority of a maintenance request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Category of a maintenance request
type Category string

const (
	CategoryPlumbing    Category = "plumbing"
	CategoryElectrical  Category = "electrical"
	CategoryHVAC        Category = "hvac"
	CategoryAppliance   Category = "appliance"
	CategoryStructural  Category = "structural"
	CategoryPestControl Category = "pest_control"
	CategoryGeneral     Category = "general"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryAppliance,
		CategoryStructural, CategoryPestControl, CategoryGeneral, CategoryOther:
		return true
	}
	return false
}

// MaintenanceRequest represents a tenant-filed repair request against a rental unit
type MaintenanceRequest struct {
	ID                int64         `json:"id" db:"id"`
	OrganizationID    int64         `json:"organization_id" db:"organization_id"`
	UnitID            int64         `json:"unit_id" db:"unit_id"`
	TenantID          int64         `json:"tenant_id" db:"tenant_id"`
	AssignedWorkmanID *int64        `json:"assigned_workman_id,omitempty" db:"assigned_workman_id"`
	Title             string        `json:"title" db:"title"`
	Description       string        `json:"description" db:"description"`
	Category          Category      `json:"category" db:"category"`
	Priority          Priority      `json:"priority" db:"priority"`
	Status            RequestStatus `json:"status" db:"status"`
	EstimatedCost     *float64      `json:"estimated_cost,omitempty" db:"estimated_cost"`
	ActualCost        *float64      `json:"actual_cost,omitempty" db:"actual_cost"`
	RejectionReason   *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
	ApprovedAt        *time.Time    `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt        *time.Time    `json:"rejected_at,omitempty" db:"rejected_at"`
	StartedAt         *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

// StatusChange describes one conditional transition of a request.
// The update only applies while the stored status still equals From.
type StatusChange struct {
	RequestID       int64
	From            RequestStatus
	To              RequestStatus
	At              time.Time
	WorkmanID       *int64
	EstimatedCost   *float64
	ActualCost      *float64
	RejectionReason *string
	EstimatedHours  *float64
	ActualHours     *float64
	Notes           *string
}

// MaintenanceRequestFilter narrows request listings. Zero values are ignored.
type MaintenanceRequestFilter struct {
	OrganizationID int64
	TenantID       int64
	LandlordID     int64
	WorkmanID      int64
	Status         *RequestStatus
	Limit          int
	Offset         int
}
