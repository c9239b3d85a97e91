package handlers

import (
	"errors"
	"net/http"

	"homelyquad/internal/common"
	"homelyquad/internal/logger"
	"homelyquad/internal/models"

	"github.com/labstack/echo/v4"
)

var errUnauthenticated = errors.New("no authenticated user on request")

// respondError maps service errors onto the standard error envelope.
func respondError(c echo.Context, err error) error {
	var validationErr *common.ValidationError
	switch {
	case errors.Is(err, errUnauthenticated):
		return common.SendUnauthorizedError(c)
	case errors.As(err, &validationErr):
		return common.SendValidationError(c, validationErr.Field, validationErr.Message)
	case errors.Is(err, common.ErrNotFound):
		return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", "Resource not found", nil))
	case errors.Is(err, common.ErrForbidden):
		return common.SendForbiddenError(c, "You are not allowed to perform this action")
	case errors.Is(err, common.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("INVALID_TRANSITION", err.Error(), nil))
	case errors.Is(err, common.ErrConflict):
		return common.SendConflictError(c, "CONFLICT", "The request was modified concurrently, reload and retry")
	}

	ctx := c.Request().Context()
	logger.ErrorContext(ctx, "request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"request_id", common.GetRequestIDFromContext(ctx),
		"error", err)
	return common.SendServerError(c, "Internal server error")
}

// currentUser returns the caller placed on the context by the auth middleware.
func currentUser(c echo.Context) (models.ActingUser, bool) {
	return common.GetActingUserFromContext(c.Request().Context())
}
