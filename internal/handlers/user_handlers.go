package handlers

import (
	"net/http"

	"homelyquad/internal/common"
	"homelyquad/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers serves facts about the authenticated caller
type UserHandlers struct {
	rbacService services.RBACService
}

func NewUserHandlers(rbacService services.RBACService) *UserHandlers {
	return &UserHandlers{rbacService: rbacService}
}

func (h *UserHandlers) Register(g *echo.Group) {
	g.GET("/me", h.Me)
	g.GET("/me/permissions", h.MyPermissions)
}

// Me returns the acting user
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.ActingUser
// @Security     BearerAuth
// @Router       /v1/me [get]
func (h *UserHandlers) Me(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, user)
}

// MyPermissions returns the capability set of the caller's role
// @Summary      Current user's permissions
// @Tags         users
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /v1/me/permissions [get]
func (h *UserHandlers) MyPermissions(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	perms, err := h.rbacService.GetUserPermissions(c.Request().Context(), user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"role":        user.Role,
		"permissions": perms,
		"granted":     perms.Names(),
	})
}
