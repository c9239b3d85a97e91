package middleware

import (
	"net/http"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/logger"
	"homelyquad/internal/models"
	"homelyquad/internal/services"

	"github.com/labstack/echo/v4"
)

const deniedRequestsTable = "http_requests"

// AuditMiddleware records refused mutations in the audit log
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
	}
}

// AuditDenied logs every mutating request answered with 403, 409 or 422.
func (m *AuditMiddleware) AuditDenied() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			method := c.Request().Method
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return err
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			if status != http.StatusForbidden && status != http.StatusConflict && status != http.StatusUnprocessableEntity {
				return err
			}

			ctx := c.Request().Context()
			user, ok := common.GetActingUserFromContext(ctx)
			if !ok {
				return err
			}

			data := models.JSONB{
				"method":     method,
				"path":       c.Path(),
				"uri":        c.Request().RequestURI,
				"status":     status,
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
				"request_id": common.GetRequestIDFromContext(ctx),
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
			}
			changedBy := user.ID
			if auditErr := m.auditService.LogActivity(ctx, user.OrganizationID, deniedRequestsTable, c.Request().URL.Path, "DENIED", &changedBy, nil, data); auditErr != nil {
				// Log audit failure but don't fail the request
				logger.WarnContext(ctx, "failed to audit denied request", "path", c.Path(), "error", auditErr)
			}
			return err
		}
	}
}
