package middleware

import (
	"net/http"

	"homelyquad/internal/common"
	"homelyquad/internal/services"

	"github.com/labstack/echo/v4"
)

type RBACMiddleware struct {
	rbacService services.RBACService
}

func NewRBACMiddleware(rbacService services.RBACService) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
	}
}

func (m *RBACMiddleware) RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			user, ok := common.GetActingUserFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			hasPermission, err := m.rbacService.UserHasPermission(ctx, user, permission)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, common.CreateErrorResponse("SERVER_ERROR", "Error checking permission", nil))
			}
			if !hasPermission {
				return common.SendForbiddenError(c, "Insufficient permissions")
			}

			return next(c)
		}
	}
}
