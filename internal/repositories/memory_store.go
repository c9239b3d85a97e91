package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps every repository in process memory behind one mutex.
// Conditional updates are atomic with respect to each other.
type MemoryStore struct {
	mu sync.Mutex

	nextRequestID   int64
	nextWorkOrderID int64

	requests      map[int64]*models.MaintenanceRequest
	workOrders    map[int64]*models.WorkOrder
	users         map[int64]*models.User
	units         map[int64]*models.UnitOwnership
	leases        map[[2]int64]bool
	reminded      map[int64]time.Time
	notifications []*models.Notification
	attachments   []*models.Attachment
	auditLogs     []*models.AuditLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:   make(map[int64]*models.MaintenanceRequest),
		workOrders: make(map[int64]*models.WorkOrder),
		users:      make(map[int64]*models.User),
		units:      make(map[int64]*models.UnitOwnership),
		leases:     make(map[[2]int64]bool),
		reminded:   make(map[int64]time.Time),
	}
}

// AddUser seeds a user.
func (s *MemoryStore) AddUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = &user
}

// AddUnit seeds a unit with its ownership facts.
func (s *MemoryStore) AddUnit(ownership models.UnitOwnership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[ownership.UnitID] = &ownership
}

// AddLease seeds an active lease of unitID to tenantID.
func (s *MemoryStore) AddLease(unitID, tenantID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[[2]int64{unitID, tenantID}] = true
}

func (s *MemoryStore) Requests() MaintenanceRequestRepository { return memoryRequests{s} }
func (s *MemoryStore) WorkOrders() WorkOrderRepository        { return memoryWorkOrders{s} }
func (s *MemoryStore) Units() UnitRepository                  { return memoryUnits{s} }
func (s *MemoryStore) Users() UserRepository                  { return memoryUsers{s} }
func (s *MemoryStore) Notifications() NotificationRepository  { return memoryNotifications{s} }
func (s *MemoryStore) Attachments() AttachmentRepository      { return memoryAttachments{s} }
func (s *MemoryStore) AuditLogs() AuditLogsRepository         { return memoryAuditLogs{s} }

type memoryRequests struct{ s *MemoryStore }

func (m memoryRequests) Create(_ context.Context, req *models.MaintenanceRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextRequestID++
	req.ID = m.s.nextRequestID
	stored := *req
	m.s.requests[req.ID] = &stored
	return nil
}

func (m memoryRequests) GetByID(_ context.Context, id int64) (*models.MaintenanceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	req, ok := m.s.requests[id]
	if !ok {
		return nil, fmt.Errorf("maintenance request %d: %w", id, common.ErrNotFound)
	}
	cp := *req
	return &cp, nil
}

func (m memoryRequests) ConditionalUpdateStatus(_ context.Context, change models.StatusChange) (*models.MaintenanceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.requests[change.RequestID]
	if !ok || stored.Status != change.From {
		return nil, fmt.Errorf("maintenance request %d is no longer %s: %w", change.RequestID, change.From, common.ErrConflict)
	}

	updated := *stored
	at := change.At
	updated.Status = change.To
	updated.UpdatedAt = at
	switch change.To {
	case models.StatusApproved:
		updated.ApprovedAt = &at
		if change.EstimatedCost != nil {
			updated.EstimatedCost = change.EstimatedCost
		}
	case models.StatusRejected:
		updated.RejectedAt = &at
		updated.RejectionReason = change.RejectionReason
	case models.StatusAssigned:
		updated.AssignedWorkmanID = change.WorkmanID
	case models.StatusInProgress:
		updated.StartedAt = &at
	case models.StatusCompleted:
		updated.CompletedAt = &at
		if change.ActualCost != nil {
			updated.ActualCost = change.ActualCost
		}
	}

	if err := m.s.applyWorkOrderChangeLocked(change); err != nil {
		return nil, err
	}

	m.s.requests[change.RequestID] = &updated
	cp := updated
	return &cp, nil
}

func (s *MemoryStore) applyWorkOrderChangeLocked(change models.StatusChange) error {
	status, ok := models.WorkOrderStatusFor(change.To)
	if !ok {
		return nil
	}
	at := change.At

	if status == models.WorkOrderAssigned {
		if _, exists := s.workOrders[change.RequestID]; exists {
			return fmt.Errorf("work order for request %d: %w", change.RequestID, common.ErrConflict)
		}
		if change.WorkmanID == nil {
			return common.NewValidationError("workman_id", "is required")
		}
		s.nextWorkOrderID++
		s.workOrders[change.RequestID] = &models.WorkOrder{
			ID:             s.nextWorkOrderID,
			RequestID:      change.RequestID,
			WorkmanID:      *change.WorkmanID,
			Status:         status,
			EstimatedHours: change.EstimatedHours,
			AssignedAt:     at,
		}
		return nil
	}

	wo, exists := s.workOrders[change.RequestID]
	if !exists {
		return fmt.Errorf("work order for request %d: %w", change.RequestID, common.ErrNotFound)
	}
	updated := *wo
	updated.Status = status
	switch status {
	case models.WorkOrderInProgress:
		updated.StartedAt = &at
	case models.WorkOrderCompleted:
		updated.CompletedAt = &at
		if change.ActualHours != nil {
			updated.ActualHours = change.ActualHours
		}
		if change.Notes != nil {
			updated.Notes = change.Notes
		}
	}
	s.workOrders[change.RequestID] = &updated
	return nil
}

func (m memoryRequests) List(_ context.Context, filter models.MaintenanceRequestFilter) ([]*models.MaintenanceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var matched []*models.MaintenanceRequest
	for _, req := range m.s.requests {
		if filter.OrganizationID != 0 && req.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.TenantID != 0 && req.TenantID != filter.TenantID {
			continue
		}
		if filter.WorkmanID != 0 && (req.AssignedWorkmanID == nil || *req.AssignedWorkmanID != filter.WorkmanID) {
			continue
		}
		if filter.LandlordID != 0 {
			unit, ok := m.s.units[req.UnitID]
			if !ok || unit.LandlordID != filter.LandlordID {
				continue
			}
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		cp := *req
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (m memoryRequests) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]*models.MaintenanceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var stale []*models.MaintenanceRequest
	for _, req := range m.s.requests {
		if req.Status != models.StatusPending || !req.CreatedAt.Before(cutoff) {
			continue
		}
		if last, ok := m.s.reminded[req.ID]; ok && !last.Before(cutoff) {
			continue
		}
		cp := *req
		stale = append(stale, &cp)
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	return paginate(stale, staleLimit(limit), 0), nil
}

func (m memoryRequests) MarkReminded(_ context.Context, id int64, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.requests[id]; !ok {
		return fmt.Errorf("maintenance request %d: %w", id, common.ErrNotFound)
	}
	m.s.reminded[id] = at
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memoryWorkOrders struct{ s *MemoryStore }

func (m memoryWorkOrders) GetByRequestID(_ context.Context, requestID int64) (*models.WorkOrder, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	wo, ok := m.s.workOrders[requestID]
	if !ok {
		return nil, fmt.Errorf("work order for request %d: %w", requestID, common.ErrNotFound)
	}
	cp := *wo
	return &cp, nil
}

type memoryUnits struct{ s *MemoryStore }

func (m memoryUnits) GetOwnership(_ context.Context, unitID int64) (*models.UnitOwnership, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	unit, ok := m.s.units[unitID]
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", unitID, common.ErrNotFound)
	}
	cp := *unit
	return &cp, nil
}

func (m memoryUnits) HasActiveLease(_ context.Context, unitID, tenantID int64, _ time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.leases[[2]int64{unitID, tenantID}], nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, common.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

type memoryNotifications struct{ s *MemoryStore }

func (m memoryNotifications) Create(_ context.Context, n *models.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	m.s.notifications = append(m.s.notifications, &cp)
	return nil
}

func (m memoryNotifications) ListByRecipient(_ context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var inbox []*models.Notification
	for i := len(m.s.notifications) - 1; i >= 0; i-- {
		n := m.s.notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		cp := *n
		inbox = append(inbox, &cp)
	}
	return paginate(inbox, limit, offset), nil
}

func (m memoryNotifications) MarkRead(_ context.Context, recipientID int64, id uuid.UUID, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, n := range m.s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			if n.ReadAt == nil {
				n.ReadAt = &at
			}
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", id, common.ErrNotFound)
}

type memoryAttachments struct{ s *MemoryStore }

func (m memoryAttachments) Create(_ context.Context, attachment *models.Attachment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	cp := *attachment
	m.s.attachments = append(m.s.attachments, &cp)
	return nil
}

func (m memoryAttachments) ListByRequest(_ context.Context, requestID int64) ([]*models.Attachment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Attachment
	for _, a := range m.s.attachments {
		if a.RequestID == requestID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memoryAuditLogs struct{ s *MemoryStore }

func (m memoryAuditLogs) Create(_ context.Context, auditLog *models.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now().UTC()
	}
	cp := *auditLog
	m.s.auditLogs = append(m.s.auditLogs, &cp)
	return nil
}

func (m memoryAuditLogs) GetByTableAndRecord(_ context.Context, organizationID int64, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.AuditLog
	for _, l := range m.s.auditLogs {
		if l.OrganizationID == organizationID && l.TableName == tableName && l.RecordID == recordID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return paginate(out, limit, offset), nil
}
