package handlers

import (
	"net/http"
	"strconv"

	"homelyquad/internal/common"
	"homelyquad/internal/middleware"
	"homelyquad/internal/models"
	"homelyquad/internal/services"

	"github.com/labstack/echo/v4"
)

// MaintenanceHandlers handles the maintenance request lifecycle endpoints
type MaintenanceHandlers struct {
	maintenanceService services.MaintenanceService
	attachmentService  services.AttachmentService
}

// NewMaintenanceHandlers creates a new maintenance handlers instance.
// attachmentService may be nil when object storage is disabled.
func NewMaintenanceHandlers(maintenanceService services.MaintenanceService, attachmentService services.AttachmentService) *MaintenanceHandlers {
	return &MaintenanceHandlers{
		maintenanceService: maintenanceService,
		attachmentService:  attachmentService,
	}
}

// Register mounts the maintenance routes on g. createLimiter guards request creation.
func (h *MaintenanceHandlers) Register(g *echo.Group, rbac *middleware.RBACMiddleware, createLimiter echo.MiddlewareFunc) {
	manage := rbac.RequirePermission(models.PermissionManageMaintenance)

	r := g.Group("/maintenance-requests")
	r.POST("", h.CreateRequest, rbac.RequirePermission(models.PermissionCreateMaintenance), createLimiter)
	r.GET("", h.ListRequests)
	r.GET("/:id", h.GetRequest)
	r.GET("/:id/history", h.GetHistory)
	r.GET("/:id/work-order", h.GetWorkOrder)
	r.POST("/:id/approve", h.ApproveRequest, manage)
	r.POST("/:id/reject", h.RejectRequest, manage)
	r.POST("/:id/assign", h.AssignRequest, manage)
	r.POST("/:id/start", h.StartRequest, manage)
	r.POST("/:id/complete", h.CompleteRequest, manage)
	r.POST("/:id/attachments", h.UploadAttachment)
	r.GET("/:id/attachments", h.ListAttachments)
}

// ListMaintenanceRequestsRequest represents query parameters for listing requests
type ListMaintenanceRequestsRequest struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

// CreateRequest files a new maintenance request
// @Summary      File a maintenance request
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        body  body      models.CreateMaintenanceRequestInput  true  "Request"
// @Success      201   {object}  models.MaintenanceRequest
// @Failure      400   {object}  common.ErrorResponse
// @Failure      403   {object}  common.ErrorResponse
// @Failure      404   {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests [post]
func (h *MaintenanceHandlers) CreateRequest(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var input models.CreateMaintenanceRequestInput
	if err := c.Bind(&input); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req, err := h.maintenanceService.CreateRequest(c.Request().Context(), user, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}

// ListRequests lists the requests the caller is a party to
// @Summary      List maintenance requests
// @Tags         maintenance
// @Produce      json
// @Param        status  query  string  false  "Status filter"
// @Param        limit   query  int     false  "Page size (max 100)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /v1/maintenance-requests [get]
func (h *MaintenanceHandlers) ListRequests(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ListMaintenanceRequestsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	requests, err := h.maintenanceService.List(c.Request().Context(), user, models.ListMaintenanceRequestsInput{
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	if requests == nil {
		requests = []*models.MaintenanceRequest{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"maintenance_requests": requests,
		"limit":                req.Limit,
		"offset":               req.Offset,
	})
}

// GetRequest returns one request
// @Summary      Get a maintenance request
// @Tags         maintenance
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  models.MaintenanceRequest
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id} [get]
func (h *MaintenanceHandlers) GetRequest(c echo.Context) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}
	req, err := h.maintenanceService.Get(c.Request().Context(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// GetHistory returns the audit trail of a request
// @Summary      Maintenance request history
// @Tags         maintenance
// @Produce      json
// @Param        id   path  int  true  "Request ID"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/history [get]
func (h *MaintenanceHandlers) GetHistory(c echo.Context) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, err := h.maintenanceService.History(c.Request().Context(), user, id, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": entries})
}

// GetWorkOrder returns the work order of an assigned request
// @Summary      Get the work order of a request
// @Tags         maintenance
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  models.WorkOrder
// @Failure      404  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/work-order [get]
func (h *MaintenanceHandlers) GetWorkOrder(c echo.Context) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}
	wo, err := h.maintenanceService.GetWorkOrder(c.Request().Context(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, wo)
}

// ApproveRequest approves a pending request
// @Summary      Approve a pending request
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true   "Request ID"
// @Param        body  body      models.DecisionInput  false  "Estimated cost"
// @Success      200   {object}  models.MaintenanceRequest
// @Failure      403   {object}  common.ErrorResponse
// @Failure      409   {object}  common.ErrorResponse
// @Failure      422   {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/approve [post]
func (h *MaintenanceHandlers) ApproveRequest(c echo.Context) error {
	return h.decide(c, models.DecisionApprove)
}

// RejectRequest rejects a pending request
// @Summary      Reject a pending request
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true   "Request ID"
// @Param        body  body      models.DecisionInput  false  "Reason"
// @Success      200   {object}  models.MaintenanceRequest
// @Failure      422   {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/reject [post]
func (h *MaintenanceHandlers) RejectRequest(c echo.Context) error {
	return h.decide(c, models.DecisionReject)
}

func (h *MaintenanceHandlers) decide(c echo.Context, decision models.Decision) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}

	var input models.DecisionInput
	if err := c.Bind(&input); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	input.Decision = decision

	req, err := h.maintenanceService.Decide(c.Request().Context(), user, id, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// AssignRequest assigns a workman to an approved request
// @Summary      Assign a workman
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "Request ID"
// @Param        body  body      models.AssignInput  true  "Workman"
// @Success      200   {object}  models.MaintenanceRequest
// @Failure      400   {object}  common.ErrorResponse
// @Failure      422   {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/assign [post]
func (h *MaintenanceHandlers) AssignRequest(c echo.Context) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}

	var input models.AssignInput
	if err := c.Bind(&input); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req, err := h.maintenanceService.Assign(c.Request().Context(), user, id, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// StartRequest marks an assigned request as in progress
// @Summary      Start work
// @Tags         maintenance
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  models.MaintenanceRequest
// @Failure      403  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/start [post]
func (h *MaintenanceHandlers) StartRequest(c echo.Context) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}
	req, err := h.maintenanceService.Start(c.Request().Context(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// CompleteRequest marks an in-progress request as completed
// @Summary      Complete work
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        id    path      int                     true   "Request ID"
// @Param        body  body      models.CompletionInput  false  "Completion details"
// @Success      200   {object}  models.MaintenanceRequest
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/complete [post]
func (h *MaintenanceHandlers) CompleteRequest(c echo.Context) error {
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}

	var input models.CompletionInput
	if err := c.Bind(&input); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req, err := h.maintenanceService.Complete(c.Request().Context(), user, id, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// UploadAttachment stores a photo against a request
// @Summary      Upload a photo
// @Tags         maintenance
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      int   true  "Request ID"
// @Param        file  formData  file  true  "jpeg, png or webp, at most 10 MiB"
// @Success      201   {object}  models.Attachment
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/attachments [post]
func (h *MaintenanceHandlers) UploadAttachment(c echo.Context) error {
	if h.attachmentService == nil {
		return c.JSON(http.StatusServiceUnavailable, common.CreateErrorResponse("STORAGE_DISABLED", "Attachments are not enabled", nil))
	}
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	file, err := header.Open()
	if err != nil {
		return common.SendClientError(c, "Unable to read uploaded file")
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(c.Request().Context(), user, id, services.UploadAttachmentInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, attachment)
}

// ListAttachments lists the photos of a request with download links
// @Summary      List photos
// @Tags         maintenance
// @Produce      json
// @Param        id   path  int  true  "Request ID"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /v1/maintenance-requests/{id}/attachments [get]
func (h *MaintenanceHandlers) ListAttachments(c echo.Context) error {
	if h.attachmentService == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"attachments": []*models.Attachment{}})
	}
	user, id, err := h.userAndID(c)
	if err != nil {
		return respondError(c, err)
	}
	attachments, err := h.attachmentService.List(c.Request().Context(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	if attachments == nil {
		attachments = []*models.Attachment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"attachments": attachments})
}

// userAndID resolves the caller and the :id path parameter.
func (h *MaintenanceHandlers) userAndID(c echo.Context) (models.ActingUser, int64, error) {
	user, ok := currentUser(c)
	if !ok {
		return user, 0, errUnauthenticated
	}
	id, err := common.ParseID(c.Param("id"), "id")
	if err != nil {
		return user, 0, common.NewValidationError("id", err.Error())
	}
	return user, id, nil
}
