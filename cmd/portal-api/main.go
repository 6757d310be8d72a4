package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/noah-isme/civic-portal-api/api/swagger"
	"github.com/noah-isme/civic-portal-api/internal/handler"
	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	"github.com/noah-isme/civic-portal-api/internal/router"
	"github.com/noah-isme/civic-portal-api/internal/service"
	"github.com/noah-isme/civic-portal-api/pkg/cache"
	"github.com/noah-isme/civic-portal-api/pkg/config"
	"github.com/noah-isme/civic-portal-api/pkg/database"
	"github.com/noah-isme/civic-portal-api/pkg/jobs"
	"github.com/noah-isme/civic-portal-api/pkg/logger"
	"github.com/noah-isme/civic-portal-api/pkg/middleware/ratelimit"
	"github.com/noah-isme/civic-portal-api/pkg/storage"
	"github.com/noah-isme/civic-portal-api/pkg/tracing"
)

const version = "1.0.0"

// @title Civic Portal API
// @version 1.0.0
// @description Citizen service requests, payments, notifications and departmental reporting.
// @BasePath /
// @schemes http https

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.Init(ctx, cfg.Tracing, version, logr)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}
	defer tracer.Shutdown()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("database migrations applied")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	app, err := buildApp(cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to assemble services", zap.Error(err))
	}

	go app.limiter.Run(ctx)
	app.warmQueue.Start(ctx)
	defer app.warmQueue.Stop()
	go app.sessions.RunJanitor(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(app.engine, "civic-portal-api"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type app struct {
	engine    *gin.Engine
	sessions  *service.SessionService
	limiter   *ratelimit.Limiter
	warmQueue *jobs.Queue
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*app, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	departments := repository.NewDepartmentRepository(db)
	catalog := repository.NewServiceRepository(db)
	requests := repository.NewRequestRepository(db)
	documents := repository.NewDocumentRepository(db)
	payments := repository.NewPaymentRepository(db)
	notifications := repository.NewNotificationRepository(db)
	reports := repository.NewReportRepository(db)

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("init uploads dir: %w", err)
	}
	linkSecret := cfg.Uploads.LinkSecret
	if linkSecret == "" {
		linkSecret = cfg.Session.Secret
	}
	signer := storage.NewLinkSigner(linkSecret, cfg.Uploads.LinkTTL)
	uploads := service.UploadPolicy{AllowedExtensions: cfg.Uploads.AllowedExtensions, MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes}

	var sessionStore service.SessionStore
	switch cfg.Session.Store {
	case config.SessionStorePostgres:
		sessionStore = repository.NewPostgresSessionRepository(db)
	default:
		sessionStore = repository.NewRedisSessionRepository(redisClient)
	}
	sessions := service.NewSessionService(sessionStore, cfg.Session.TTL, logr.Named("session"))

	reportCache := service.NewCacheService(repository.NewCacheRepository(redisClient, logr.Named("cache")), metrics, cfg.Reports.CacheTTL, logr.Named("cache"), cfg.Reports.CacheEnabled)

	reportSvc := service.NewReportService(reports, reportCache, metrics, logr.Named("reports"), service.ReportServiceConfig{CacheTTL: cfg.Reports.CacheTTL})
	warmer := service.NewReportWarmer(reportCache, reportSvc, logr.Named("reports"))
	warmQueue := jobs.NewQueue("report-warm", warmer.Handle, jobs.QueueConfig{
		Workers: cfg.Reports.WarmWorkers,
		Logger:  logr.Named("jobs"),
	})
	warmer.Attach(warmQueue)

	authSvc := service.NewAuthService(users, sessions, validate, logr.Named("auth"), metrics, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		Issuer:             cfg.JWT.Issuer,
		DefaultPhoneRegion: cfg.Profile.DefaultPhoneRegion,
	})
	userSvc := service.NewUserService(users, departments, sessions, validate, logr.Named("users"), cfg.Profile.DefaultPhoneRegion)
	departmentSvc := service.NewDepartmentService(departments, users, validate, logr.Named("departments"))
	catalogSvc := service.NewCatalogService(catalog, departments, users, validate, logr.Named("catalog"))
	requestSvc := service.NewRequestService(service.RequestServiceParams{
		Requests:  requests,
		Services:  catalog,
		Documents: documents,
		Storage:   files,
		Uploads:   uploads,
		Cache:     warmer,
		Audit:     users,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr.Named("requests"),
	})
	paymentSvc := service.NewPaymentService(payments, requests, warmer, users, metrics, logr.Named("payments"))
	documentSvc := service.NewDocumentService(service.DocumentServiceParams{
		Documents: documents,
		Requests:  requests,
		Storage:   files,
		Signer:    signer,
		Uploads:   uploads,
		BasePath:  cfg.APIPrefix,
		Logger:    logr.Named("documents"),
	})
	notificationSvc := service.NewNotificationService(notifications, logr.Named("notifications"))
	exportSvc := service.NewExportService(reportSvc, logr.Named("export"))
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Requests:      requests,
		Notifications: notifications,
		Departments:   departments,
		Users:         users,
		Totals:        reports,
		Cache:         reportCache,
		Logger:        logr.Named("dashboard"),
	})

	limiter := ratelimit.New(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst)

	engine := router.New(router.Handlers{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    sessions.TTL(),
		}),
		Profile:       handler.NewProfileHandler(userSvc, authSvc),
		Requests:      handler.NewRequestHandler(requestSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc),
		Documents:     handler.NewDocumentHandler(documentSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Dashboards:    handler.NewDashboardHandler(dashboardSvc),
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Departments:   handler.NewDepartmentHandler(departmentSvc),
		Users:         handler.NewUserHandler(userSvc),
		Reports:       handler.NewReportHandler(reportSvc, exportSvc),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
	}, router.Options{
		Prefix:         cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Auth:           middleware.NewAuthenticator(sessions, authSvc, cfg.Session.CookieName),
		AuthLimiter:    limiter,
	})

	return &app{engine: engine, sessions: sessions, limiter: limiter, warmQueue: warmQueue}, nil
}
