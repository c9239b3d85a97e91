package repositories

import (
	"context"

	"homelyquad/internal/models"

	"github.com/google/uuid"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	ListByRequest(ctx context.Context, requestID int64) ([]*models.Attachment, error)
}

type attachmentRepo struct {
	db DB
}

func NewAttachmentRepo(db DB) AttachmentRepository {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	query := `
		INSERT INTO maintenance_attachments (id, organization_id, request_id, uploaded_by, object_key, file_name, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		attachment.ID,
		attachment.OrganizationID,
		attachment.RequestID,
		attachment.UploadedBy,
		attachment.ObjectKey,
		attachment.FileName,
		attachment.ContentType,
		attachment.SizeBytes,
		attachment.CreatedAt,
	)
	return err
}

func (r *attachmentRepo) ListByRequest(ctx context.Context, requestID int64) ([]*models.Attachment, error) {
	query := `
		SELECT id, organization_id, request_id, uploaded_by, object_key, file_name, content_type, size_bytes, created_at
		FROM maintenance_attachments
		WHERE request_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		a := &models.Attachment{}
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.RequestID, &a.UploadedBy, &a.ObjectKey, &a.FileName, &a.ContentType, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
