package repositories

import (
	"context"
	"errors"
	"fmt"

	"homelyquad/internal/common"
	"homelyquad/internal/models"

	"github.com/jackc/pgx/v5"
)

// WorkOrderRepository reads work orders. Writes go through
// MaintenanceRequestRepository.ConditionalUpdateStatus.
type WorkOrderRepository interface {
	GetByRequestID(ctx context.Context, requestID int64) (*models.WorkOrder, error)
}

type workOrderRepo struct {
	db DB
}

func NewWorkOrderRepo(db DB) WorkOrderRepository {
	return &workOrderRepo{db: db}
}

func (r *workOrderRepo) GetByRequestID(ctx context.Context, requestID int64) (*models.WorkOrder, error) {
	wo := &models.WorkOrder{}
	query := `
		SELECT id, request_id, workman_id, status, estimated_hours, actual_hours, notes, assigned_at, started_at, completed_at
		FROM maintenance_work_orders
		WHERE request_id = $1
	`
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&wo.ID,
		&wo.RequestID,
		&wo.WorkmanID,
		&wo.Status,
		&wo.EstimatedHours,
		&wo.ActualHours,
		&wo.Notes,
		&wo.AssignedAt,
		&wo.StartedAt,
		&wo.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("work order for request %d: %w", requestID, common.ErrNotFound)
		}
		return nil, err
	}
	return wo, nil
}
