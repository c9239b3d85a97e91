package services

import (
	"context"
	"errors"
	"time"

	"homelyquad/internal/models"
	"homelyquad/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	// Create audit log entry
	LogActivity(ctx context.Context, organizationID int64, tableName, recordID, action string, changedBy *int64, oldValues, newValues models.JSONB) error

	// Get audit logs for specific entities
	GetEntityHistory(ctx context.Context, organizationID int64, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error)

	// Helper methods for common audit scenarios
	LogEntityCreate(ctx context.Context, organizationID int64, tableName, recordID string, changedBy *int64, newValues models.JSONB) error
	LogEntityUpdate(ctx context.Context, organizationID int64, tableName, recordID string, changedBy *int64, oldValues, newValues models.JSONB) error
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	now           func() time.Time
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// LogActivity creates a new audit log entry with validation
func (s *auditLogsService) LogActivity(ctx context.Context, organizationID int64, tableName, recordID, action string, changedBy *int64, oldValues, newValues models.JSONB) error {
	if tableName == "" {
		return errors.New("table_name is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	auditLog := &models.AuditLog{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		TableName:      tableName,
		RecordID:       recordID,
		Action:         action,
		NewValues:      newValues,
		OldValues:      oldValues,
		ChangedBy:      changedBy,
		CreatedAt:      s.now(),
	}

	return s.auditLogsRepo.Create(ctx, auditLog)
}

// GetEntityHistory retrieves audit history for a specific entity
func (s *auditLogsService) GetEntityHistory(ctx context.Context, organizationID int64, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	return s.auditLogsRepo.GetByTableAndRecord(ctx, organizationID, tableName, recordID, limit, offset)
}

// LogEntityCreate logs the creation of a new entity
func (s *auditLogsService) LogEntityCreate(ctx context.Context, organizationID int64, tableName, recordID string, changedBy *int64, newValues models.JSONB) error {
	return s.LogActivity(ctx, organizationID, tableName, recordID, models.ActionInsert, changedBy, nil, newValues)
}

// LogEntityUpdate logs the update of an existing entity
func (s *auditLogsService) LogEntityUpdate(ctx context.Context, organizationID int64, tableName, recordID string, changedBy *int64, oldValues, newValues models.JSONB) error {
	return s.LogActivity(ctx, organizationID, tableName, recordID, models.ActionUpdate, changedBy, oldValues, newValues)
}
