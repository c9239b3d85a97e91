package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homelyquad/internal/caching"
	"homelyquad/internal/common"
	"homelyquad/internal/models"
	"homelyquad/internal/repositories"
	"homelyquad/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthServer(t *testing.T) (*echo.Echo, *repositories.MemoryStore) {
	t.Helper()
	store := repositories.NewMemoryStore()
	store.AddUser(models.User{ID: 7, OrganizationID: 3, Role: models.RoleTenant, Email: "t@example.com"})
	store.AddUser(models.User{ID: 8, OrganizationID: 3, Role: models.RoleLandlord, Email: "l@example.com"})

	e := echo.New()
	rbac := NewRBACMiddleware(services.NewRBACService())
	g := e.Group("/v1", echojwt.WithConfig(JWTConfig(testSecret, nil)), ActingUser(store.Users()))
	g.GET("/whoami", func(c echo.Context) error {
		user, _ := common.GetActingUserFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, user)
	})
	g.POST("/manage", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, rbac.RequirePermission(models.PermissionManageMaintenance))
	return e, store
}

func bearer(t *testing.T, user models.ActingUser) string {
	t.Helper()
	token, err := SignToken(testSecret, user, "homelyquad", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestActingUser_ResolvesCaller(t *testing.T) {
	e, _ := newAuthServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	// the token claims admin, the store says tenant; the store wins
	req.Header.Set(echo.HeaderAuthorization, bearer(t, models.ActingUser{ID: 7, Role: models.RoleAdmin, OrganizationID: 3}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"tenant","organization_id":3}`, rec.Body.String())
}

func TestActingUser_Rejections(t *testing.T) {
	e, _ := newAuthServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer not-a-token"},
		{"unknown user", bearer(t, models.ActingUser{ID: 99, Role: models.RoleTenant, OrganizationID: 3})},
		{"organization mismatch", bearer(t, models.ActingUser{ID: 7, Role: models.RoleTenant, OrganizationID: 4})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequirePermission(t *testing.T) {
	e, _ := newAuthServer(t)

	for _, tc := range []struct {
		user models.ActingUser
		want int
	}{
		{models.ActingUser{ID: 7, Role: models.RoleTenant, OrganizationID: 3}, http.StatusForbidden},
		{models.ActingUser{ID: 8, Role: models.RoleLandlord, OrganizationID: 3}, http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/manage", nil)
		req.Header.Set(echo.HeaderAuthorization, bearer(t, tc.user))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "user %d", tc.user.ID)
	}
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.POST("/create", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, RateLimit(caching.NewMemoryCacheService(), "create", 2, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/create", nil)
		req = req.WithContext(common.WithActingUser(req.Context(), models.ActingUser{ID: 5, Role: models.RoleTenant}))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestAPIVersionResolver(t *testing.T) {
	e := echo.New()
	vm := NewVersionMiddleware()
	e.Use(vm.APIVersionResolver())
	e.GET("/*", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("api_version").(string))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/anything", nil))
	assert.Equal(t, "v1", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v9/anything", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type mockAuditService struct {
	mock.Mock
}

func (m *mockAuditService) LogActivity(ctx context.Context, organizationID int64, tableName, recordID, action string, changedBy *int64, oldValues, newValues models.JSONB) error {
	args := m.Called(ctx, organizationID, tableName, recordID, action, changedBy, oldValues, newValues)
	return args.Error(0)
}

func (m *mockAuditService) GetEntityHistory(ctx context.Context, organizationID int64, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, organizationID, tableName, recordID, limit, offset)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *mockAuditService) LogEntityCreate(ctx context.Context, organizationID int64, tableName, recordID string, changedBy *int64, newValues models.JSONB) error {
	return m.Called(ctx, organizationID, tableName, recordID, changedBy, newValues).Error(0)
}

func (m *mockAuditService) LogEntityUpdate(ctx context.Context, organizationID int64, tableName, recordID string, changedBy *int64, oldValues, newValues models.JSONB) error {
	return m.Called(ctx, organizationID, tableName, recordID, changedBy, oldValues, newValues).Error(0)
}

func TestAuditDenied(t *testing.T) {
	audit := &mockAuditService{}
	audit.On("LogActivity", mock.Anything, int64(3), deniedRequestsTable, "/requests/1/approve", "DENIED",
		mock.Anything, models.JSONB(nil), mock.Anything).Return(errors.New("db down")).Once()

	e := echo.New()
	auditMw := NewAuditMiddleware(audit)
	withUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := common.WithActingUser(c.Request().Context(), models.ActingUser{ID: 9, Role: models.RoleLandlord, OrganizationID: 3})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
	e.POST("/requests/:id/approve", func(c echo.Context) error {
		return common.SendForbiddenError(c, "no")
	}, withUser, auditMw.AuditDenied())
	e.POST("/requests/:id/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, withUser, auditMw.AuditDenied())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests/1/approve", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/requests/1/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	audit.AssertExpectations(t)
}
