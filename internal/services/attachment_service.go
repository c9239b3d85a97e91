package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/logger"
	"homelyquad/internal/models"
	"homelyquad/internal/repositories"

	"github.com/google/uuid"
)

const (
	MaxAttachmentSize     = 10 << 20
	attachmentURLLifetime = 15 * time.Minute
)

var attachmentExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadAttachmentInput describes one photo upload
type UploadAttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type AttachmentService interface {
	Upload(ctx context.Context, actor models.ActingUser, requestID int64, input UploadAttachmentInput) (*models.Attachment, error)
	List(ctx context.Context, actor models.ActingUser, requestID int64) ([]*models.Attachment, error)
}

type attachmentService struct {
	maintenance MaintenanceService
	repo        repositories.AttachmentRepository
	storage     ObjectStorage
	bucket      string
	now         func() time.Time
}

func NewAttachmentService(maintenance MaintenanceService, repo repositories.AttachmentRepository, storage ObjectStorage, bucket string) AttachmentService {
	return &attachmentService{
		maintenance: maintenance,
		repo:        repo,
		storage:     storage,
		bucket:      bucket,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *attachmentService) Upload(ctx context.Context, actor models.ActingUser, requestID int64, input UploadAttachmentInput) (*models.Attachment, error) {
	if input.Size <= 0 {
		return nil, common.NewValidationError("file", "file is empty")
	}
	if input.Size > MaxAttachmentSize {
		return nil, common.NewValidationError("file", fmt.Sprintf("file cannot exceed %d bytes", MaxAttachmentSize))
	}
	ext, ok := attachmentExtensions[input.ContentType]
	if !ok {
		return nil, common.NewValidationError("content_type", "only jpeg, png and webp images are accepted")
	}

	req, err := s.maintenance.Get(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("request %d is %s and takes no more attachments: %w", req.ID, req.Status, common.ErrInvalidTransition)
	}

	id := uuid.New()
	attachment := &models.Attachment{
		ID:             id,
		OrganizationID: req.OrganizationID,
		RequestID:      req.ID,
		UploadedBy:     actor.ID,
		ObjectKey:      fmt.Sprintf("org-%d/requests/%d/%s%s", req.OrganizationID, req.ID, id, ext),
		FileName:       cleanFileName(input.FileName, ext),
		ContentType:    input.ContentType,
		SizeBytes:      input.Size,
		CreatedAt:      s.now(),
	}

	if err := s.storage.Upload(ctx, s.bucket, attachment.ObjectKey, input.Reader, input.Size, input.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if delErr := s.storage.Delete(ctx, s.bucket, attachment.ObjectKey); delErr != nil {
			logger.WarnContext(ctx, "orphaned attachment object", "key", attachment.ObjectKey, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	s.sign(ctx, attachment)
	return attachment, nil
}

func (s *attachmentService) List(ctx context.Context, actor models.ActingUser, requestID int64) ([]*models.Attachment, error) {
	if _, err := s.maintenance.Get(ctx, actor, requestID); err != nil {
		return nil, err
	}
	attachments, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for _, a := range attachments {
		s.sign(ctx, a)
	}
	return attachments, nil
}

// sign fills URL with a short-lived download link. A signing failure leaves it empty.
func (s *attachmentService) sign(ctx context.Context, a *models.Attachment) {
	url, err := s.storage.PresignedURL(ctx, s.bucket, a.ObjectKey, attachmentURLLifetime)
	if err != nil {
		logger.WarnContext(ctx, "failed to presign attachment", "attachment_id", a.ID, "error", err)
		return
	}
	a.URL = url
}

func cleanFileName(name, ext string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "photo" + ext
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
