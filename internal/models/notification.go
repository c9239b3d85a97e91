package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind names the transition that produced a notification
type NotificationKind string

const (
	NotificationRequestCreated   NotificationKind = "maintenance.created"
	NotificationRequestApproved  NotificationKind = "maintenance.approved"
	NotificationRequestRejected  NotificationKind = "maintenance.rejected"
	NotificationRequestAssigned  NotificationKind = "maintenance.assigned"
	NotificationRequestStarted   NotificationKind = "maintenance.started"
	NotificationRequestCompleted NotificationKind = "maintenance.completed"
	NotificationRequestReminder  NotificationKind = "maintenance.reminder"
)

// NotificationEvent is what the service hands to a notification sink.
type NotificationEvent struct {
	ID             uuid.UUID        `json:"id"`
	Kind           NotificationKind `json:"kind"`
	OrganizationID int64            `json:"organization_id"`
	RecipientID    int64            `json:"recipient_id"`
	ActorID        int64            `json:"actor_id"`
	RequestID      int64            `json:"request_id"`
	Status         RequestStatus    `json:"status"`
	Subject        string           `json:"subject"`
	Body           string           `json:"body"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// Notification represents a stored inbox message
type Notification struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OrganizationID int64            `json:"organization_id" db:"organization_id"`
	RecipientID    int64            `json:"recipient_id" db:"recipient_id"`
	SenderID       *int64           `json:"sender_id,omitempty" db:"sender_id"`
	RequestID      *int64           `json:"request_id,omitempty" db:"request_id"`
	Kind           NotificationKind `json:"kind" db:"kind"`
	Subject        string           `json:"subject" db:"subject"`
	Body           string           `json:"body" db:"body"`
	ReadAt         *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
