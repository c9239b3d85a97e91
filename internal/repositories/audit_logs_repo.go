package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homelyquad/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	// Create a new audit log entry
	Create(ctx context.Context, auditLog *models.AuditLog) error

	// Get audit logs for a specific table and record, oldest first
	GetByTableAndRecord(ctx context.Context, organizationID int64, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DB
}

func NewAuditLogsRepo(db DB) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now().UTC()
	}
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, organization_id, table_name, record_id, action, new_values, old_values, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var newValuesBytes, oldValuesBytes []byte
	var err error

	if auditLog.NewValues != nil {
		newValuesBytes, err = json.Marshal(auditLog.NewValues)
		if err != nil {
			return fmt.Errorf("failed to marshal new_values: %w", err)
		}
	}

	if auditLog.OldValues != nil {
		oldValuesBytes, err = json.Marshal(auditLog.OldValues)
		if err != nil {
			return fmt.Errorf("failed to marshal old_values: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.OrganizationID,
		auditLog.TableName,
		auditLog.RecordID,
		auditLog.Action,
		newValuesBytes,
		oldValuesBytes,
		auditLog.ChangedBy,
		auditLog.CreatedAt,
	)
	return err
}

func (r *auditLogsRepo) GetByTableAndRecord(ctx context.Context, organizationID int64, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, organization_id, table_name, record_id, action, new_values, old_values, changed_by, created_at
		FROM audit_logs
		WHERE organization_id = $1 AND table_name = $2 AND record_id = $3
		ORDER BY created_at ASC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, organizationID, tableName, recordID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		auditLog := &models.AuditLog{}
		var newValuesBytes, oldValuesBytes []byte
		err := rows.Scan(
			&auditLog.ID,
			&auditLog.OrganizationID,
			&auditLog.TableName,
			&auditLog.RecordID,
			&auditLog.Action,
			&newValuesBytes,
			&oldValuesBytes,
			&auditLog.ChangedBy,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(newValuesBytes) > 0 {
			if err := json.Unmarshal(newValuesBytes, &auditLog.NewValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal new_values: %w", err)
			}
		}
		if len(oldValuesBytes) > 0 {
			if err := json.Unmarshal(oldValuesBytes, &auditLog.OldValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal old_values: %w", err)
			}
		}
		logs = append(logs, auditLog)
	}
	return logs, rows.Err()
}
