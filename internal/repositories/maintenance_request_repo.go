package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/models"

	"github.com/jackc/pgx/v5"
)

type MaintenanceRequestRepository interface {
	Create(ctx context.Context, req *models.MaintenanceRequest) error
	GetByID(ctx context.Context, id int64) (*models.MaintenanceRequest, error)

	// ConditionalUpdateStatus applies change only while the stored status equals change.From.
	// It returns common.ErrConflict when no row matched. Work order writes share the transaction.
	ConditionalUpdateStatus(ctx context.Context, change models.StatusChange) (*models.MaintenanceRequest, error)

	List(ctx context.Context, filter models.MaintenanceRequestFilter) ([]*models.MaintenanceRequest, error)

	// ListStalePending returns pending requests created before cutoff that were not
	// reminded about since cutoff, oldest first. A limit of 0 or less means DefaultStaleLimit.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.MaintenanceRequest, error)
	// MarkReminded records when a reminder about a pending request went out.
	MarkReminded(ctx context.Context, id int64, at time.Time) error
}

// DefaultStaleLimit caps ListStalePending when the caller passes no limit.
const DefaultStaleLimit = 100

func staleLimit(limit int) int {
	if limit <= 0 {
		return DefaultStaleLimit
	}
	return limit
}

const maintenanceRequestColumns = `id, organization_id, unit_id, tenant_id, assigned_workman_id, title, description,
		category, priority, status, estimated_cost, actual_cost, rejection_reason,
		created_at, updated_at, approved_at, rejected_at, started_at, completed_at`

type maintenanceRequestRepo struct {
	db DB
}

func NewMaintenanceRequestRepo(db DB) MaintenanceRequestRepository {
	return &maintenanceRequestRepo{db: db}
}

func scanMaintenanceRequest(row pgx.Row) (*models.MaintenanceRequest, error) {
	req := &models.MaintenanceRequest{}
	err := row.Scan(
		&req.ID,
		&req.OrganizationID,
		&req.UnitID,
		&req.TenantID,
		&req.AssignedWorkmanID,
		&req.Title,
		&req.Description,
		&req.Category,
		&req.Priority,
		&req.Status,
		&req.EstimatedCost,
		&req.ActualCost,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ApprovedAt,
		&req.RejectedAt,
		&req.StartedAt,
		&req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *maintenanceRequestRepo) Create(ctx context.Context, req *models.MaintenanceRequest) error {
	query := `
		INSERT INTO maintenance_requests (organization_id, unit_id, tenant_id, title, description, category, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		req.OrganizationID,
		req.UnitID,
		req.TenantID,
		req.Title,
		req.Description,
		req.Category,
		req.Priority,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to insert maintenance request: %w", err)
	}
	return nil
}

func (r *maintenanceRequestRepo) GetByID(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceRequestColumns + ` FROM maintenance_requests WHERE id = $1`
	req, err := scanMaintenanceRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("maintenance request %d: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}

// statusChangeAssignments builds the SET clause for change. $1..$4 are id, from, to and at.
func statusChangeAssignments(change models.StatusChange) (string, []interface{}) {
	sets := []string{"status = $3", "updated_at = $4"}
	args := []interface{}{change.RequestID, change.From, change.To, change.At}

	switch change.To {
	case models.StatusApproved:
		args = append(args, change.EstimatedCost)
		sets = append(sets, "approved_at = $4", "estimated_cost = COALESCE($5, estimated_cost)")
	case models.StatusRejected:
		args = append(args, change.RejectionReason)
		sets = append(sets, "rejected_at = $4", "rejection_reason = $5")
	case models.StatusAssigned:
		args = append(args, change.WorkmanID)
		sets = append(sets, "assigned_workman_id = $5")
	case models.StatusInProgress:
		sets = append(sets, "started_at = $4")
	case models.StatusCompleted:
		args = append(args, change.ActualCost)
		sets = append(sets, "completed_at = $4", "actual_cost = COALESCE($5, actual_cost)")
	}
	return strings.Join(sets, ", "), args
}

func (r *maintenanceRequestRepo) ConditionalUpdateStatus(ctx context.Context, change models.StatusChange) (*models.MaintenanceRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	set, args := statusChangeAssignments(change)
	query := `UPDATE maintenance_requests SET ` + set + `
		WHERE id = $1 AND status = $2
		RETURNING ` + maintenanceRequestColumns

	updated, err := scanMaintenanceRequest(tx.QueryRow(ctx, query, args...))
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("maintenance request %d is no longer %s: %w", change.RequestID, change.From, common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update maintenance request: %w", err)
	}

	if err := applyWorkOrderChange(ctx, tx, change); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}
	return updated, nil
}

// applyWorkOrderChange keeps the work order status in step with its request.
func applyWorkOrderChange(ctx context.Context, tx pgx.Tx, change models.StatusChange) error {
	status, ok := models.WorkOrderStatusFor(change.To)
	if !ok {
		return nil
	}

	var err error
	switch status {
	case models.WorkOrderAssigned:
		_, err = tx.Exec(ctx, `
			INSERT INTO maintenance_work_orders (request_id, workman_id, status, estimated_hours, assigned_at)
			VALUES ($1, $2, $3, $4, $5)
		`, change.RequestID, change.WorkmanID, status, change.EstimatedHours, change.At)
	case models.WorkOrderInProgress:
		_, err = tx.Exec(ctx, `
			UPDATE maintenance_work_orders SET status = $2, started_at = $3
			WHERE request_id = $1
		`, change.RequestID, status, change.At)
	case models.WorkOrderCompleted:
		_, err = tx.Exec(ctx, `
			UPDATE maintenance_work_orders
			SET status = $2, completed_at = $3, actual_hours = COALESCE($4, actual_hours), notes = COALESCE($5, notes)
			WHERE request_id = $1
		`, change.RequestID, status, change.At, change.ActualHours, change.Notes)
	}
	if err != nil {
		return fmt.Errorf("failed to write work order: %w", err)
	}
	return nil
}

func (r *maintenanceRequestRepo) List(ctx context.Context, filter models.MaintenanceRequestFilter) ([]*models.MaintenanceRequest, error) {
	var conditions []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.OrganizationID != 0 {
		add("organization_id = $%d", filter.OrganizationID)
	}
	if filter.TenantID != 0 {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.WorkmanID != 0 {
		add("assigned_workman_id = $%d", filter.WorkmanID)
	}
	if filter.LandlordID != 0 {
		add("unit_id IN (SELECT u.id FROM units u JOIN premises p ON p.id = u.premises_id WHERE p.landlord_id = $%d)", filter.LandlordID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}

	query := `SELECT ` + maintenanceRequestColumns + ` FROM maintenance_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.queryRequests(ctx, query, args...)
}

func (r *maintenanceRequestRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.MaintenanceRequest, error) {
	query := `SELECT ` + maintenanceRequestColumns + `
		FROM maintenance_requests
		WHERE status = $1 AND created_at < $2
		  AND (last_reminded_at IS NULL OR last_reminded_at < $2)
		ORDER BY created_at ASC
		LIMIT $3`
	return r.queryRequests(ctx, query, models.StatusPending, cutoff, staleLimit(limit))
}

func (r *maintenanceRequestRepo) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE maintenance_requests SET last_reminded_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to record reminder for request %d: %w", id, err)
	}
	return nil
}

func (r *maintenanceRequestRepo) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*models.MaintenanceRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.MaintenanceRequest
	for rows.Next() {
		req, err := scanMaintenanceRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
