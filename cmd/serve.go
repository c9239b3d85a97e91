package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "homelyquad/docs"
	"homelyquad/internal/caching"
	"homelyquad/internal/config"
	"homelyquad/internal/demo"
	"homelyquad/internal/handlers"
	"homelyquad/internal/jobs/background"
	"homelyquad/internal/logger"
	"homelyquad/internal/middleware"
	"homelyquad/internal/repositories"
	"homelyquad/internal/services"
	"homelyquad/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// stores groups the repositories one backend provides.
type stores struct {
	requests      repositories.MaintenanceRequestRepository
	workOrders    repositories.WorkOrderRepository
	units         repositories.UnitRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	attachments   repositories.AttachmentRepository
	auditLogs     repositories.AuditLogsRepository
}

func serve(parent context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repos  stores
		pinger handlers.Pinger
	)
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return err
		}
		defer database.ClosePool(pool)
		pinger = pool
		repos = stores{
			requests:      repositories.NewMaintenanceRequestRepo(pool),
			workOrders:    repositories.NewWorkOrderRepo(pool),
			units:         repositories.NewUnitRepo(pool),
			users:         repositories.NewUserRepo(pool),
			notifications: repositories.NewNotificationRepo(pool),
			attachments:   repositories.NewAttachmentRepo(pool),
			auditLogs:     repositories.NewAuditLogsRepo(pool),
		}
	default:
		logger.Warn("Using the in-memory store seeded with demo users, data is lost on exit")
		store := demo.NewStore()
		repos = stores{
			requests:      store.Requests(),
			workOrders:    store.WorkOrders(),
			units:         store.Units(),
			users:         store.Users(),
			notifications: store.Notifications(),
			attachments:   store.Attachments(),
			auditLogs:     store.AuditLogs(),
		}
	}

	var (
		cacheSvc    caching.CacheService
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient = caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()
		cacheSvc = caching.NewRedisCacheService(redisClient)
	} else {
		cacheSvc = caching.NewMemoryCacheService()
	}

	sinks := []services.NotificationSink{services.NewMessageSink(repos.notifications)}
	if redisClient != nil {
		sinks = append(sinks, services.NewRedisSink(redisClient))
	}
	if cfg.Kafka.Enabled {
		kafkaSink := services.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	auditSvc := services.NewAuditLogsService(repos.auditLogs)
	rbacService := services.NewRBACService()
	maintenanceSvc := services.NewMaintenanceService(
		repos.requests, repos.workOrders, repos.units, repos.users,
		auditSvc, services.NewFanoutSink(sinks...), cacheSvc,
	)

	var attachmentSvc services.AttachmentService
	if cfg.Storage.Enabled {
		storage, err := services.NewMinioStorage(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.UseSSL)
		if err != nil {
			return err
		}
		if err := storage.EnsureBucketExists(ctx, cfg.Storage.Bucket); err != nil {
			return err
		}
		attachmentSvc = services.NewAttachmentService(maintenanceSvc, repos.attachments, storage, cfg.Storage.Bucket)
	}

	var keyFunc jwt.Keyfunc
	if cfg.Auth.JWKSURL != "" {
		kf, stopRefresh, err := middleware.NewJWKSKeyfunc(cfg.Auth.JWKSURL)
		if err != nil {
			return err
		}
		defer stopRefresh()
		keyFunc = kf
	}

	var jobs handlers.JobStatusReporter
	if cfg.Jobs.Enabled {
		scheduler, err := background.NewJobScheduler(maintenanceSvc, background.ReminderOptions{
			Interval:   cfg.Jobs.ReminderInterval,
			OlderThan:  cfg.Jobs.StalePendingAfter,
			BatchLimit: cfg.Jobs.ReminderBatchLimit,
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("Scheduler shutdown failed", "error", err)
			}
		}()
		jobs = scheduler
	}

	e := newServer(cfg, serverDeps{
		pinger:        pinger,
		cache:         cacheSvc,
		jobs:          jobs,
		users:         repos.users,
		audit:         auditSvc,
		rbac:          rbacService,
		maintenance:   maintenanceSvc,
		attachments:   attachmentSvc,
		notifications: services.NewNotificationService(repos.notifications),
		keyFunc:       keyFunc,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HomelyQuad server starting", "version", version, "address", cfg.Server.Address(), "store", cfg.Database.Driver)
		if err := e.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

type serverDeps struct {
	pinger        handlers.Pinger
	cache         caching.CacheService
	jobs          handlers.JobStatusReporter
	users         repositories.UserRepository
	audit         services.AuditLogsService
	rbac          services.RBACService
	maintenance   services.MaintenanceService
	attachments   services.AttachmentService
	notifications services.NotificationService
	keyFunc       jwt.Keyfunc
}

func newServer(cfg *config.Config, deps serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Get().LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	handlers.NewHealthHandlers(deps.pinger, deps.cache, version).WithJobs(deps.jobs).Register(e)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1",
		versionMiddleware.VersionHeader("v1"),
		echojwt.WithConfig(middleware.JWTConfig(cfg.Auth.JWTSecret, deps.keyFunc)),
		middleware.ActingUser(deps.users),
		middleware.NewAuditMiddleware(deps.audit).AuditDenied(),
	)

	rbac := middleware.NewRBACMiddleware(deps.rbac)
	createLimiter := middleware.RateLimit(deps.cache, "create_request", cfg.RateLimit.CreatePerMinute, time.Minute)

	handlers.NewUserHandlers(deps.rbac).Register(v1)
	handlers.NewMaintenanceHandlers(deps.maintenance, deps.attachments).Register(v1, rbac, createLimiter)
	handlers.NewNotificationHandlers(deps.notifications).Register(v1)

	return e
}
