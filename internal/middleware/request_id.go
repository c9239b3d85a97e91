package middleware

import (
	"context"

	"homelyquad/internal/common"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// RequestID assigns an X-Request-ID and copies it onto the request context for log lines.
func RequestID() echo.MiddlewareFunc {
	return echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := context.WithValue(c.Request().Context(), common.RequestIDKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	})
}
