package handlers

import (
	"net/http"

	"homelyquad/internal/common"
	"homelyquad/internal/models"
	"homelyquad/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// NotificationHandlers serves the caller's inbox
type NotificationHandlers struct {
	notificationService services.NotificationService
}

func NewNotificationHandlers(notificationService services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

func (h *NotificationHandlers) Register(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications)
	g.POST("/notifications/:id/read", h.MarkRead)
}

// ListNotificationsRequest represents query parameters for the inbox
type ListNotificationsRequest struct {
	UnreadOnly bool `query:"unread"`
	Limit      int  `query:"limit"`
	Offset     int  `query:"offset"`
}

// ListNotifications returns the caller's messages, newest first
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread  query  bool  false  "Only unread"
// @Param        limit   query  int   false  "Page size"
// @Param        offset  query  int   false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /v1/notifications [get]
func (h *NotificationHandlers) ListNotifications(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ListNotificationsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	notifications, err := h.notificationService.ListForUser(c.Request().Context(), user, req.UnreadOnly, req.Limit, req.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         req.Limit,
		"offset":        req.Offset,
	})
}

// MarkRead marks one of the caller's messages as read
// @Summary      Mark a notification read
// @Tags         notifications
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandlers) MarkRead(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", "id must be a UUID")
	}
	if err := h.notificationService.MarkRead(c.Request().Context(), user, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
