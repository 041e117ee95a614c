package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lhu-dashboard-api/api/swagger"
	"github.com/noah-isme/lhu-dashboard-api/internal/handler"
	internalmiddleware "github.com/noah-isme/lhu-dashboard-api/internal/middleware"
	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	"github.com/noah-isme/lhu-dashboard-api/internal/repository"
	"github.com/noah-isme/lhu-dashboard-api/internal/service"
	"github.com/noah-isme/lhu-dashboard-api/pkg/cache"
	"github.com/noah-isme/lhu-dashboard-api/pkg/config"
	"github.com/noah-isme/lhu-dashboard-api/pkg/database"
	"github.com/noah-isme/lhu-dashboard-api/pkg/export"
	"github.com/noah-isme/lhu-dashboard-api/pkg/jobs"
	"github.com/noah-isme/lhu-dashboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lhu-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lhu-dashboard-api/pkg/middleware/requestid"
	"github.com/noah-isme/lhu-dashboard-api/pkg/upstream"
)

// @title LHU Dashboard API
// @version 1.0.0
// @description Student schedule and exam cache for the LHU dashboard
// @BasePath /
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open cache backend", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
	}
	defer backend.Close() //nolint:errcheck

	app := newApp(cfg, backend, logr)
	for name, check := range app.checks {
		if err := check(ctx); err != nil {
			logr.Warn("cache store not ready", zap.String("store", name), zap.Error(err))
		}
	}

	app.refresh.Start(ctx)
	defer app.refresh.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router(cfg, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cacheBackend", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// cacheBackend is the persistent store shared by every ExpiringStore.
type cacheBackend interface {
	service.EntryBackend
	Close() error
}

func openBackend(ctx context.Context, cfg *config.Config, logr *zap.Logger) (cacheBackend, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisEntryRepository(client, cfg.Cache.Retention, logr), nil
	case config.CacheBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLEntryRepository(db), nil
	case config.CacheBackendSQLite:
		db, err := database.NewSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLEntryRepository(db), nil
	case config.CacheBackendMemory, "":
		return repository.NewMemoryEntryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

type app struct {
	metrics *service.MetricsService
	checks  map[string]handler.ReadinessCheck

	students *handler.StudentHandler
	accounts *handler.AccountHandler
	status   *handler.MetricsHandler
	refresh  *service.RefreshService
}

func newApp(cfg *config.Config, backend service.EntryBackend, logr *zap.Logger) *app {
	validate := validator.New()
	metrics := service.NewMetricsService()

	schedules := service.NewExpiringStore[models.StudentSchedule](backend, service.ExpiringStoreConfig{Name: "schedules", TTL: cfg.Cache.ScheduleTTL}, metrics, logr)
	exams := service.NewExpiringStore[models.StudentExams](backend, service.ExpiringStoreConfig{Name: "exams", TTL: cfg.Cache.ExamTTL}, metrics, logr)
	sessions := service.NewExpiringStore[models.Session](backend, service.ExpiringStoreConfig{Name: "sessions", TTL: cfg.Sessions.TTL}, metrics, logr)
	userSessions := service.NewExpiringStore[models.UserSessions](backend, service.ExpiringStoreConfig{Name: "user_sessions", TTL: cfg.Sessions.TTL}, metrics, logr)
	settings := service.NewExpiringStore[models.Settings](backend, service.ExpiringStoreConfig{Name: "settings", TTL: cfg.Sessions.SettingsTTL}, metrics, logr)

	client := upstream.NewClient(cfg.Upstream, metrics, logr)
	engine := service.NewScheduleEngine(cfg.Upstream.Location())

	scheduleSvc := service.NewScheduleService(schedules, client, engine, validate, logr)
	examSvc := service.NewExamService(exams, client, engine, validate, logr)
	exportSvc := service.NewScheduleExportService(scheduleSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	sessionSvc := service.NewSessionService(sessions, userSessions, validate, logr, service.SessionConfig{MaxPerUser: cfg.Sessions.MaxPerUser})
	settingsSvc := service.NewSettingsService(settings, validate, logr)
	refreshSvc := service.NewRefreshService(jobs.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		MaxRetries: cfg.Refresh.MaxRetries,
		RetryDelay: cfg.Refresh.RetryDelay,
	}, validate, logr, scheduleSvc, examSvc)

	checks := map[string]handler.ReadinessCheck{
		schedules.Name():    schedules.Init,
		exams.Name():        exams.Init,
		sessions.Name():     sessions.Init,
		userSessions.Name(): userSessions.Init,
		settings.Name():     settings.Init,
	}

	return &app{
		metrics:  metrics,
		checks:   checks,
		students: handler.NewStudentHandler(scheduleSvc, examSvc, refreshSvc, exportSvc),
		accounts: handler.NewAccountHandler(sessionSvc, settingsSvc),
		status:   handler.NewMetricsHandler(metrics, checks, client.Online),
		refresh:  refreshSvc,
	}
}

func (a *app) router(cfg *config.Config, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(a.metrics, "/metrics", "/health"))

	r.GET("/health", a.status.Health)
	r.GET("/ready", a.status.Ready)
	r.GET("/metrics", a.status.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())
	api.GET("/metrics/snapshot", a.status.Snapshot)

	students := api.Group("/students/:id")
	students.Use(internalmiddleware.ForwardToken())
	students.GET("/schedule", a.students.Schedule)
	students.GET("/schedule/export", a.students.Export)
	students.GET("/exams", a.students.Exams)
	students.POST("/refresh", a.students.Refresh)
	students.DELETE("/cache", a.students.ClearCache)

	api.POST("/schedules/analyze", a.students.Analyze)

	api.POST("/sessions", a.accounts.AddSession)
	api.DELETE("/sessions", a.accounts.RemoveSession)
	api.GET("/users/:id/sessions", a.accounts.ListSessions)
	api.GET("/users/:id/settings", a.accounts.GetSettings)
	api.PUT("/users/:id/settings", a.accounts.SaveSettings)

	return r
}
