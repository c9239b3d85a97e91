package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"homelyquad/internal/caching"
	"homelyquad/internal/common"
	"homelyquad/internal/logger"

	"github.com/labstack/echo/v4"
)

// RateLimit allows limit calls per window for each acting user on the named route.
// When the cache is unreachable requests pass through.
func RateLimit(cache caching.CacheService, name string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limit <= 0 {
				return next(c)
			}
			ctx := c.Request().Context()
			key := name + ":" + c.RealIP()
			if user, ok := common.GetActingUserFromContext(ctx); ok {
				key = fmt.Sprintf("%s:user:%d", name, user.ID)
			}

			limited, err := cache.IsRateLimited(ctx, key, limit, window)
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed", "key", key, "error", err)
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many requests, try again later", nil))
			}
			return next(c)
		}
	}
}
