package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"homelyquad/internal/caching"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobStatusReporter is satisfied by *background.JobScheduler.
type JobStatusReporter interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db        Pinger
	cache     caching.CacheService
	jobs      JobStatusReporter
	version   string
	startedAt time.Time
}

// NewHealthHandlers creates a new health handlers instance. db and cache may be nil.
func NewHealthHandlers(db Pinger, cache caching.CacheService, version string) *HealthHandlers {
	return &HealthHandlers{
		db:        db,
		cache:     cache,
		version:   version,
		startedAt: time.Now(),
	}
}

// WithJobs exposes the scheduler state on /health/jobs.
func (h *HealthHandlers) WithJobs(jobs JobStatusReporter) *HealthHandlers {
	h.jobs = jobs
	return h
}

func (h *HealthHandlers) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/health/ready", h.ReadinessCheck)
	e.GET("/health/jobs", h.JobStatus)
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services,omitempty"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Goroutines int               `json:"goroutines"`
}

// HealthCheck is the liveness probe
// @Summary      Liveness
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthStatus
// @Router       /health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status("healthy"))
}

// ReadinessCheck determines if the application is ready to serve traffic
// @Summary      Readiness
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthStatus
// @Failure      503  {object}  HealthStatus
// @Router       /health/ready [get]
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	health := h.status("ready")
	health.Services = map[string]string{}
	ready := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			health.Services["database"] = "unhealthy"
			ready = false
		} else {
			health.Services["database"] = "healthy"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			health.Services["cache"] = "unhealthy"
			ready = false
		} else {
			health.Services["cache"] = "healthy"
		}
	}

	if !ready {
		health.Status = "not_ready"
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

// JobStatus reports the background scheduler's jobs and their next runs
// @Summary      Background jobs
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health/jobs [get]
func (h *HealthHandlers) JobStatus(c echo.Context) error {
	if h.jobs == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"enabled": false, "total_jobs": 0})
	}
	status := map[string]interface{}{"enabled": true}
	for k, v := range h.jobs.GetJobStatus() {
		status[k] = v
	}
	return c.JSON(http.StatusOK, status)
}

func (h *HealthHandlers) status(state string) *HealthStatus {
	return &HealthStatus{
		Status:     state,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}
}
