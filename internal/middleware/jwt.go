package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/logger"
	"homelyquad/internal/models"
	"homelyquad/internal/repositories"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// TokenContextKey is where echo-jwt leaves the parsed token.
const TokenContextKey = "user"

// Claims carried by access tokens
type Claims struct {
	UserID         int64       `json:"uid"`
	Role           models.Role `json:"role"`
	OrganizationID int64       `json:"org"`
	jwt.RegisteredClaims
}

// JWTConfig verifies HS256 tokens with secret, or with keyFunc when one is given.
func JWTConfig(secret string, keyFunc jwt.Keyfunc) echojwt.Config {
	cfg := echojwt.Config{
		ContextKey: TokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Debug("token rejected", "path", c.Path(), "error", err)
			return common.SendUnauthorizedError(c)
		},
	}
	if keyFunc != nil {
		cfg.KeyFunc = keyFunc
	} else {
		cfg.SigningKey = []byte(secret)
	}
	return cfg
}

// NewJWKSKeyfunc fetches a remote key set and keeps it refreshed in the background.
// The returned stop function ends the refresh goroutine.
func NewJWKSKeyfunc(jwksURL string) (jwt.Keyfunc, func(), error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh failed", "url", jwksURL, "error", err)
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load jwks from %s: %w", jwksURL, err)
	}
	return jwks.Keyfunc, jwks.EndBackground, nil
}

// SignToken issues an HS256 access token for a user.
func SignToken(secret string, user models.ActingUser, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:         user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ActingUser resolves the token subject against the user store and puts the
// caller on the request context. Role and organization come from the store.
func ActingUser(users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(TokenContextKey).(*jwt.Token)
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || claims.UserID <= 0 {
				return common.SendUnauthorizedError(c)
			}

			ctx := c.Request().Context()
			user, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.SendUnauthorizedError(c)
				}
				logger.ErrorContext(ctx, "failed to load acting user", "user_id", claims.UserID, "error", err)
				return common.SendServerError(c, "Failed to load user")
			}
			if user.OrganizationID != claims.OrganizationID {
				return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Token organization does not match user", nil))
			}

			c.SetRequest(c.Request().WithContext(common.WithActingUser(ctx, user.Acting())))
			return next(c)
		}
	}
}
