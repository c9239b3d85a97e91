package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"homelyquad/internal/caching"
	"homelyquad/internal/common"
	"homelyquad/internal/logger"
	"homelyquad/internal/models"
	"homelyquad/internal/repositories"

	"github.com/google/uuid"
)

const (
	maintenanceRequestsTable = "maintenance_requests"

	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxReasonLength      = 1000
	maxNotesLength       = 2000

	defaultListLimit = 20
	maxListLimit     = 100

	ownershipCacheTTL = 10 * time.Minute
)

type MaintenanceService interface {
	// Tenant operations
	CreateRequest(ctx context.Context, actor models.ActingUser, input models.CreateMaintenanceRequestInput) (*models.MaintenanceRequest, error)

	// Landlord operations
	Decide(ctx context.Context, actor models.ActingUser, id int64, input models.DecisionInput) (*models.MaintenanceRequest, error)
	Assign(ctx context.Context, actor models.ActingUser, id int64, input models.AssignInput) (*models.MaintenanceRequest, error)

	// Workman operations
	Start(ctx context.Context, actor models.ActingUser, id int64) (*models.MaintenanceRequest, error)
	Complete(ctx context.Context, actor models.ActingUser, id int64, input models.CompletionInput) (*models.MaintenanceRequest, error)

	// Reads, restricted to the parties of a request
	Get(ctx context.Context, actor models.ActingUser, id int64) (*models.MaintenanceRequest, error)
	List(ctx context.Context, actor models.ActingUser, input models.ListMaintenanceRequestsInput) ([]*models.MaintenanceRequest, error)
	GetWorkOrder(ctx context.Context, actor models.ActingUser, id int64) (*models.WorkOrder, error)
	History(ctx context.Context, actor models.ActingUser, id int64, limit, offset int) ([]*models.AuditLog, error)

	// RemindStalePending re-notifies landlords about requests pending longer than olderThan,
	// at most once per olderThan window for each request.
	RemindStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type maintenanceService struct {
	requestRepo   repositories.MaintenanceRequestRepository
	workOrderRepo repositories.WorkOrderRepository
	unitRepo      repositories.UnitRepository
	userRepo      repositories.UserRepository
	auditSvc      AuditLogsService
	sink          NotificationSink
	cacheSvc      caching.CacheService
	now           func() time.Time
}

// NewMaintenanceService wires the request lifecycle. auditSvc, sink and cacheSvc may be nil.
func NewMaintenanceService(
	requestRepo repositories.MaintenanceRequestRepository,
	workOrderRepo repositories.WorkOrderRepository,
	unitRepo repositories.UnitRepository,
	userRepo repositories.UserRepository,
	auditSvc AuditLogsService,
	sink NotificationSink,
	cacheSvc caching.CacheService,
) MaintenanceService {
	return &maintenanceService{
		requestRepo:   requestRepo,
		workOrderRepo: workOrderRepo,
		unitRepo:      unitRepo,
		userRepo:      userRepo,
		auditSvc:      auditSvc,
		sink:          sink,
		cacheSvc:      cacheSvc,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *maintenanceService) CreateRequest(ctx context.Context, actor models.ActingUser, input models.CreateMaintenanceRequestInput) (*models.MaintenanceRequest, error) {
	if actor.Role != models.RoleTenant {
		return nil, fmt.Errorf("only tenants may file maintenance requests: %w", common.ErrForbidden)
	}
	if err := normalizeCreateInput(&input); err != nil {
		return nil, err
	}

	ownership, err := s.unitOwnership(ctx, input.UnitID)
	if err != nil {
		return nil, err
	}
	if ownership.OrganizationID != actor.OrganizationID {
		return nil, fmt.Errorf("unit %d: %w", input.UnitID, common.ErrNotFound)
	}

	now := s.now()
	leased, err := s.unitRepo.HasActiveLease(ctx, input.UnitID, actor.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check lease: %w", err)
	}
	if !leased {
		return nil, fmt.Errorf("tenant %d holds no active lease on unit %d: %w", actor.ID, input.UnitID, common.ErrForbidden)
	}

	req := &models.MaintenanceRequest{
		OrganizationID: actor.OrganizationID,
		UnitID:         input.UnitID,
		TenantID:       actor.ID,
		Title:          input.Title,
		Description:    input.Description,
		Category:       input.Category,
		Priority:       input.Priority,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create maintenance request: %w", err)
	}

	s.audit(ctx, actor, req.ID, nil, models.JSONB{
		"status":   string(req.Status),
		"unit_id":  req.UnitID,
		"title":    req.Title,
		"priority": string(req.Priority),
		"category": string(req.Category),
	})
	s.notify(ctx, actor, req, models.NotificationRequestCreated, ownership.LandlordID)

	return req, nil
}

func normalizeCreateInput(input *models.CreateMaintenanceRequestInput) error {
	if input.UnitID <= 0 {
		return common.NewValidationError("unit_id", "unit_id must be positive")
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return common.NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLength {
		return common.NewValidationError("title", fmt.Sprintf("title cannot exceed %d characters", maxTitleLength))
	}

	input.Description = strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(input.Description) > maxDescriptionLength {
		return common.NewValidationError("description", fmt.Sprintf("description cannot exceed %d characters", maxDescriptionLength))
	}

	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return common.NewValidationError("priority", "priority must be one of low, medium, high, urgent")
	}

	if input.Category == "" {
		input.Category = models.CategoryGeneral
	}
	if !input.Category.Valid() {
		return common.NewValidationError("category", "unknown category "+string(input.Category))
	}
	return nil
}

func (s *maintenanceService) Decide(ctx context.Context, actor models.ActingUser, id int64, input models.DecisionInput) (*models.MaintenanceRequest, error) {
	change := models.StatusChange{RequestID: id}
	kind := models.NotificationRequestApproved

	switch input.Decision {
	case models.DecisionApprove:
		if err := validateNonNegative(input.EstimatedCost, "estimated_cost"); err != nil {
			return nil, err
		}
		change.To = models.StatusApproved
		change.EstimatedCost = input.EstimatedCost
	case models.DecisionReject:
		if err := common.ValidateOptionalString(input.Reason, "reason", maxReasonLength); err != nil {
			return nil, common.NewValidationError("reason", err.Error())
		}
		change.To = models.StatusRejected
		change.RejectionReason = input.Reason
		kind = models.NotificationRequestRejected
	default:
		return nil, common.NewValidationError("decision", "decision must be approve or reject")
	}

	updated, _, err := s.transition(ctx, actor, change, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, actor, updated, kind, updated.TenantID)
	return updated, nil
}

func (s *maintenanceService) Assign(ctx context.Context, actor models.ActingUser, id int64, input models.AssignInput) (*models.MaintenanceRequest, error) {
	if input.WorkmanID <= 0 {
		return nil, common.NewValidationError("workman_id", "workman_id must be positive")
	}
	if err := validateNonNegative(input.EstimatedHours, "estimated_hours"); err != nil {
		return nil, err
	}

	change := models.StatusChange{
		RequestID:      id,
		To:             models.StatusAssigned,
		WorkmanID:      &input.WorkmanID,
		EstimatedHours: input.EstimatedHours,
	}
	checkWorkman := func(ctx context.Context) error {
		workman, err := s.userRepo.GetByID(ctx, input.WorkmanID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.NewValidationError("workman_id", "workman not found")
			}
			return fmt.Errorf("failed to load workman: %w", err)
		}
		if workman.Role != models.RoleWorkman || workman.OrganizationID != actor.OrganizationID {
			return common.NewValidationError("workman_id", "user is not a workman of this organization")
		}
		return nil
	}

	updated, _, err := s.transition(ctx, actor, change, checkWorkman)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, actor, updated, models.NotificationRequestAssigned, input.WorkmanID)
	return updated, nil
}

func (s *maintenanceService) Start(ctx context.Context, actor models.ActingUser, id int64) (*models.MaintenanceRequest, error) {
	updated, _, err := s.transition(ctx, actor, models.StatusChange{RequestID: id, To: models.StatusInProgress}, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, actor, updated, models.NotificationRequestStarted, updated.TenantID)
	return updated, nil
}

func (s *maintenanceService) Complete(ctx context.Context, actor models.ActingUser, id int64, input models.CompletionInput) (*models.MaintenanceRequest, error) {
	if err := validateNonNegative(input.ActualCost, "actual_cost"); err != nil {
		return nil, err
	}
	if err := validateNonNegative(input.ActualHours, "actual_hours"); err != nil {
		return nil, err
	}
	if err := common.ValidateOptionalString(input.Notes, "notes", maxNotesLength); err != nil {
		return nil, common.NewValidationError("notes", err.Error())
	}

	change := models.StatusChange{
		RequestID:   id,
		To:          models.StatusCompleted,
		ActualCost:  input.ActualCost,
		ActualHours: input.ActualHours,
		Notes:       input.Notes,
	}
	updated, parties, err := s.transition(ctx, actor, change, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, actor, updated, models.NotificationRequestCompleted, updated.TenantID)
	if parties.ownership != nil {
		s.notify(ctx, actor, updated, models.NotificationRequestCompleted, parties.ownership.LandlordID)
	}
	return updated, nil
}

// transition runs the gate, the table check and the conditional update, in that order.
// precheck runs after the table check and before the write.
func (s *maintenanceService) transition(ctx context.Context, actor models.ActingUser, change models.StatusChange, precheck func(context.Context) error) (*models.MaintenanceRequest, requestParties, error) {
	parties, err := s.loadParties(ctx, actor, change.RequestID)
	if err != nil {
		return nil, parties, err
	}

	_, kind, ok := requiredFrom(change.To)
	if !ok {
		return nil, parties, fmt.Errorf("no transition leads to %s: %w", change.To, common.ErrInvalidTransition)
	}
	if err := parties.authorizeTransition(actor, kind); err != nil {
		return nil, parties, err
	}

	current := parties.request.Status
	if err := validateTransition(current, change.To); err != nil {
		return nil, parties, err
	}
	if precheck != nil {
		if err := precheck(ctx); err != nil {
			return nil, parties, err
		}
	}

	change.From = current
	change.At = s.now()
	updated, err := s.requestRepo.ConditionalUpdateStatus(ctx, change)
	if err != nil {
		return nil, parties, err
	}

	newValues := models.JSONB{"status": string(change.To)}
	if change.WorkmanID != nil {
		newValues["assigned_workman_id"] = *change.WorkmanID
	}
	if change.RejectionReason != nil {
		newValues["rejection_reason"] = *change.RejectionReason
	}
	if change.EstimatedCost != nil {
		newValues["estimated_cost"] = *change.EstimatedCost
	}
	if change.ActualCost != nil {
		newValues["actual_cost"] = *change.ActualCost
	}
	s.audit(ctx, actor, updated.ID, models.JSONB{"status": string(current)}, newValues)

	return updated, parties, nil
}

func (s *maintenanceService) Get(ctx context.Context, actor models.ActingUser, id int64) (*models.MaintenanceRequest, error) {
	parties, err := s.loadParties(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := parties.authorizeView(actor); err != nil {
		return nil, err
	}
	return parties.request, nil
}

func (s *maintenanceService) List(ctx context.Context, actor models.ActingUser, input models.ListMaintenanceRequestsInput) ([]*models.MaintenanceRequest, error) {
	filter := models.MaintenanceRequestFilter{
		OrganizationID: actor.OrganizationID,
		Limit:          input.Limit,
		Offset:         input.Offset,
	}

	switch actor.Role {
	case models.RoleTenant:
		filter.TenantID = actor.ID
	case models.RoleLandlord:
		filter.LandlordID = actor.ID
	case models.RoleWorkman:
		filter.WorkmanID = actor.ID
	default:
		return nil, fmt.Errorf("role %q has no maintenance listing: %w", actor.Role, common.ErrForbidden)
	}

	if input.Status != "" {
		status := models.RequestStatus(input.Status)
		if !status.Valid() {
			return nil, common.NewValidationError("status", "unknown status "+input.Status)
		}
		filter.Status = &status
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		return nil, common.NewValidationError("offset", "offset cannot be negative")
	}

	return s.requestRepo.List(ctx, filter)
}

func (s *maintenanceService) GetWorkOrder(ctx context.Context, actor models.ActingUser, id int64) (*models.WorkOrder, error) {
	parties, err := s.loadParties(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := parties.authorizeView(actor); err != nil {
		return nil, err
	}
	return s.workOrderRepo.GetByRequestID(ctx, id)
}

func (s *maintenanceService) History(ctx context.Context, actor models.ActingUser, id int64, limit, offset int) ([]*models.AuditLog, error) {
	parties, err := s.loadParties(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := parties.authorizeView(actor); err != nil {
		return nil, err
	}
	if s.auditSvc == nil {
		return []*models.AuditLog{}, nil
	}
	return s.auditSvc.GetEntityHistory(ctx, actor.OrganizationID, maintenanceRequestsTable, strconv.FormatInt(id, 10), limit, offset)
}

func (s *maintenanceService) RemindStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	now := s.now()
	stale, err := s.requestRepo.ListStalePending(ctx, now.Add(-olderThan), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale requests: %w", err)
	}

	sent := 0
	for _, req := range stale {
		ownership, err := s.unitOwnership(ctx, req.UnitID)
		if err != nil {
			logger.WarnContext(ctx, "skipping reminder, unit ownership unavailable",
				"request_id", req.ID, "unit_id", req.UnitID, "error", err)
			continue
		}
		system := models.ActingUser{OrganizationID: req.OrganizationID}
		if !s.notify(ctx, system, req, models.NotificationRequestReminder, ownership.LandlordID) {
			continue
		}
		sent++
		if err := s.requestRepo.MarkReminded(ctx, req.ID, now); err != nil {
			logger.WarnContext(ctx, "reminder sent but not recorded", "request_id", req.ID, "error", err)
		}
	}
	return sent, nil
}

// loadParties fetches the request and its ownership facts, hiding other organizations.
func (s *maintenanceService) loadParties(ctx context.Context, actor models.ActingUser, id int64) (requestParties, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return requestParties{}, err
	}
	if err := checkOrganization(actor, req); err != nil {
		return requestParties{}, err
	}
	ownership, err := s.unitOwnership(ctx, req.UnitID)
	if err != nil {
		return requestParties{}, fmt.Errorf("failed to resolve unit owner: %w", err)
	}
	return requestParties{request: req, ownership: ownership}, nil
}

// unitOwnership reads through the cache. Cache failures fall back to the repository.
func (s *maintenanceService) unitOwnership(ctx context.Context, unitID int64) (*models.UnitOwnership, error) {
	if s.cacheSvc != nil {
		cached, err := s.cacheSvc.GetUnitOwnership(ctx, unitID)
		if err != nil {
			logger.WarnContext(ctx, "unit ownership cache read failed", "unit_id", unitID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	ownership, err := s.unitRepo.GetOwnership(ctx, unitID)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetUnitOwnership(ctx, ownership, ownershipCacheTTL); err != nil {
			logger.WarnContext(ctx, "unit ownership cache write failed", "unit_id", unitID, "error", err)
		}
	}
	return ownership, nil
}

func (s *maintenanceService) audit(ctx context.Context, actor models.ActingUser, requestID int64, oldValues, newValues models.JSONB) {
	if s.auditSvc == nil {
		return
	}
	changedBy := actor.ID
	recordID := strconv.FormatInt(requestID, 10)

	var err error
	if oldValues == nil {
		err = s.auditSvc.LogEntityCreate(ctx, actor.OrganizationID, maintenanceRequestsTable, recordID, &changedBy, newValues)
	} else {
		err = s.auditSvc.LogEntityUpdate(ctx, actor.OrganizationID, maintenanceRequestsTable, recordID, &changedBy, oldValues, newValues)
	}
	if err != nil {
		// The status change already committed; audit gaps are logged, not surfaced.
		logger.WarnContext(ctx, "failed to record audit entry", "request_id", requestID, "error", err)
	}
}

// notify delivers one event at most once and reports whether the sink accepted it.
func (s *maintenanceService) notify(ctx context.Context, actor models.ActingUser, req *models.MaintenanceRequest, kind models.NotificationKind, recipientID int64) bool {
	if s.sink == nil || recipientID == 0 {
		return false
	}

	subject, body := describeEvent(kind, req)
	event := models.NotificationEvent{
		ID:             uuid.New(),
		Kind:           kind,
		OrganizationID: req.OrganizationID,
		RecipientID:    recipientID,
		ActorID:        actor.ID,
		RequestID:      req.ID,
		Status:         req.Status,
		Subject:        subject,
		Body:           body,
		OccurredAt:     s.now(),
	}
	if err := s.sink.Notify(ctx, event); err != nil {
		logger.WarnContext(ctx, "notification not delivered",
			"kind", string(kind),
			"request_id", req.ID,
			"recipient_id", recipientID,
			"request", common.GetRequestIDFromContext(ctx),
			"error", err)
		return false
	}
	return true
}

func describeEvent(kind models.NotificationKind, req *models.MaintenanceRequest) (string, string) {
	switch kind {
	case models.NotificationRequestCreated:
		return fmt.Sprintf("New maintenance request #%d", req.ID),
			fmt.Sprintf("%q was filed with %s priority.", req.Title, req.Priority)
	case models.NotificationRequestApproved:
		return fmt.Sprintf("Maintenance request #%d approved", req.ID),
			fmt.Sprintf("Your request %q was approved.", req.Title)
	case models.NotificationRequestRejected:
		body := fmt.Sprintf("Your request %q was rejected.", req.Title)
		if req.RejectionReason != nil && *req.RejectionReason != "" {
			body += " Reason: " + *req.RejectionReason
		}
		return fmt.Sprintf("Maintenance request #%d rejected", req.ID), body
	case models.NotificationRequestAssigned:
		return fmt.Sprintf("Work order for request #%d", req.ID),
			fmt.Sprintf("You were assigned to %q.", req.Title)
	case models.NotificationRequestStarted:
		return fmt.Sprintf("Work started on request #%d", req.ID),
			fmt.Sprintf("Work on %q has started.", req.Title)
	case models.NotificationRequestCompleted:
		return fmt.Sprintf("Maintenance request #%d completed", req.ID),
			fmt.Sprintf("%q has been completed.", req.Title)
	case models.NotificationRequestReminder:
		return fmt.Sprintf("Request #%d awaits your decision", req.ID),
			fmt.Sprintf("%q has been pending since %s.", req.Title, req.CreatedAt.Format(time.RFC3339))
	}
	return string(kind), req.Title
}

func validateNonNegative(value *float64, field string) error {
	if value != nil && *value < 0 {
		return common.NewValidationError(field, field+" cannot be negative")
	}
	return nil
}
