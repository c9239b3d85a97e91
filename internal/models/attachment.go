package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a photo uploaded against a maintenance request
type Attachment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	RequestID      int64     `json:"request_id" db:"request_id"`
	UploadedBy     int64     `json:"uploaded_by" db:"uploaded_by"`
	ObjectKey      string    `json:"-" db:"object_key"`
	FileName       string    `json:"file_name" db:"file_name"`
	ContentType    string    `json:"content_type" db:"content_type"`
	SizeBytes      int64     `json:"size_bytes" db:"size_bytes"`
	URL            string    `json:"url,omitempty" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
