package repositories

import (
	"time"

	"homelyquad/internal/models"
)

func stringPtr(s string) *string    { return &s }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

var requestColumns = []string{
	"id", "organization_id", "unit_id", "tenant_id", "assigned_workman_id", "title", "description",
	"category", "priority", "status", "estimated_cost", "actual_cost", "rejection_reason",
	"created_at", "updated_at", "approved_at", "rejected_at", "started_at", "completed_at",
}

// requestRow renders req in column order with the exact Go types Scan expects.
func requestRow(req *models.MaintenanceRequest) []interface{} {
	return []interface{}{
		req.ID, req.OrganizationID, req.UnitID, req.TenantID, req.AssignedWorkmanID, req.Title, req.Description,
		req.Category, req.Priority, req.Status, req.EstimatedCost, req.ActualCost, req.RejectionReason,
		req.CreatedAt, req.UpdatedAt, req.ApprovedAt, req.RejectedAt, req.StartedAt, req.CompletedAt,
	}
}

func sampleRequest(id int64, status models.RequestStatus, created time.Time) *models.MaintenanceRequest {
	return &models.MaintenanceRequest{
		ID:             id,
		OrganizationID: 1,
		UnitID:         10,
		TenantID:       100,
		Title:          "Leaking tap",
		Description:    "Kitchen tap drips all night",
		Category:       models.CategoryPlumbing,
		Priority:       models.PriorityMedium,
		Status:         status,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}
