package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"homelyquad/internal/caching"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func getHealth(t *testing.T, h *HealthHandlers, path string) (int, HealthStatus) {
	t.Helper()
	e := echo.New()
	h.Register(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHealthCheck(t *testing.T) {
	code, status := getHealth(t, NewHealthHandlers(nil, nil, "1.2.3"), "/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestReadinessCheck(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	code, status := getHealth(t, NewHealthHandlers(healthy, caching.NewMemoryCacheService(), "dev"), "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"database": "healthy", "cache": "healthy"}, status.Services)

	code, status = getHealth(t, NewHealthHandlers(down, nil, "dev"), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "unhealthy", status.Services["database"])
}

type jobStatusFunc func() map[string]interface{}

func (f jobStatusFunc) GetJobStatus() map[string]interface{} { return f() }

func TestJobStatus(t *testing.T) {
	get := func(h *HealthHandlers) map[string]interface{} {
		e := echo.New()
		h.Register(e)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/jobs", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	disabled := get(NewHealthHandlers(nil, nil, "dev"))
	assert.Equal(t, false, disabled["enabled"])

	reporter := jobStatusFunc(func() map[string]interface{} {
		return map[string]interface{}{
			"total_jobs": 1,
			"jobs":       []map[string]interface{}{{"name": "stale-pending-reminder"}},
		}
	})
	enabled := get(NewHealthHandlers(nil, nil, "dev").WithJobs(reporter))
	assert.Equal(t, true, enabled["enabled"])
	assert.Equal(t, float64(1), enabled["total_jobs"])
	assert.Len(t, enabled["jobs"], 1)
}
