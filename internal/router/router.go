package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/handler"
	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	"github.com/noah-isme/civic-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/civic-portal-api/pkg/middleware/cors"
	"github.com/noah-isme/civic-portal-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/civic-portal-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the portal exposes.
type Handlers struct {
	Auth          *handler.AuthHandler
	Profile       *handler.ProfileHandler
	Requests      *handler.RequestHandler
	Payments      *handler.PaymentHandler
	Documents     *handler.DocumentHandler
	Notifications *handler.NotificationHandler
	Dashboards    *handler.DashboardHandler
	Catalog       *handler.CatalogHandler
	Departments   *handler.DepartmentHandler
	Users         *handler.UserHandler
	Reports       *handler.ReportHandler
	Metrics       *handler.MetricsHandler
}

// Options configures the engine.
type Options struct {
	Prefix         string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Auth           *middleware.Authenticator
	AuthLimiter    *ratelimit.Limiter
}

// New builds the gin engine with the full route table.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Audit())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.Prefix)
	required := opts.Auth.Required()

	throttle := func(c *gin.Context) { c.Next() }
	if opts.AuthLimiter != nil {
		throttle = opts.AuthLimiter.Middleware()
	}

	auth := api.Group("/auth")
	auth.POST("/register", throttle, h.Auth.Register)
	auth.POST("/login", throttle, h.Auth.Login)
	auth.POST("/logout", opts.Auth.Optional(), h.Auth.Logout)
	auth.GET("/logout", opts.Auth.Optional(), h.Auth.Logout)
	auth.GET("/me", required, h.Auth.Me)

	profile := api.Group("/profile", required)
	profile.GET("", h.Profile.Get)
	profile.PUT("", h.Profile.Update)
	profile.POST("", h.Profile.Update)
	profile.POST("/password", h.Profile.ChangePassword)

	// Signed links carry their own authorisation.
	api.GET("/requests/:id/documents/:documentId/download", h.Documents.Download)

	requests := api.Group("/requests", required)
	requests.POST("", middleware.RequireRoles(models.RoleCitizen), h.Requests.Create)
	requests.GET("", h.Requests.List)
	requests.GET("/:id", h.Requests.Get)
	requests.PUT("/:id/status", middleware.RequireRoles(models.RoleOfficer, models.RoleDepartmentHead, models.RoleAdmin), h.Requests.Transition)
	requests.POST("/:id/pay", middleware.RequireRoles(models.RoleCitizen), h.Payments.Submit)
	requests.GET("/:id/documents", h.Documents.List)
	requests.POST("/:id/documents", middleware.RequireRoles(models.RoleCitizen), h.Documents.Add)
	requests.GET("/:id/documents/:documentId/link", h.Documents.Link)

	payments := api.Group("/payments", required, middleware.RequireRoles(models.RoleCitizen))
	payments.GET("", h.Payments.Context)
	payments.POST("/:requestId", h.Payments.Submit)

	notifications := api.Group("/notifications", required)
	notifications.GET("", h.Notifications.List)
	notifications.GET("/unread-count", h.Notifications.UnreadCount)
	notifications.PUT("/read-all", h.Notifications.MarkAllRead)
	notifications.POST("/read-all", h.Notifications.MarkAllRead)
	notifications.PUT("/:id/read", h.Notifications.MarkRead)
	notifications.POST("/:id/read", h.Notifications.MarkRead)

	citizen := api.Group("/citizen", required, middleware.RequireRoles(models.RoleCitizen))
	citizen.GET("/dashboard", h.Dashboards.Citizen)
	citizen.GET("/services", h.Catalog.List)
	citizen.GET("/services/:id", h.Catalog.Get)
	citizen.POST("/apply", h.Requests.Create)
	citizen.GET("/track", h.Requests.List)
	citizen.GET("/notifications", h.Notifications.List)

	officer := api.Group("/officer", required, middleware.RequireRoles(models.RoleOfficer, models.RoleDepartmentHead))
	officer.GET("/dashboard", h.Dashboards.Department)
	officer.GET("/requests", h.Requests.List)
	officer.GET("/search", h.Requests.List)
	officer.GET("/requests/:id", h.Requests.Get)
	officer.POST("/requests/:id/status", h.Requests.Transition)
	officer.POST("/requests/:id/approve", h.Requests.Approve)
	officer.POST("/requests/:id/reject", h.Requests.Reject)

	head := api.Group("/dept-head", required, middleware.RequireRoles(models.RoleDepartmentHead))
	head.GET("/dashboard", h.Dashboards.Department)
	head.GET("/officers", h.Users.ListOfficers)
	head.POST("/officers", h.Users.CreateOfficer)
	head.PUT("/officers/:id", h.Users.UpdateOfficer)
	head.POST("/officers/:id/edit", h.Users.UpdateOfficer)
	head.DELETE("/officers/:id", h.Users.DeleteOfficer)
	head.POST("/officers/:id/delete", h.Users.DeleteOfficer)
	head.GET("/reports", h.Reports.Overview)

	admin := api.Group("/admin", required, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", h.Dashboards.Admin)
	admin.GET("/requests", h.Requests.List)

	admin.GET("/users", h.Users.List)
	admin.POST("/users", h.Users.Create)
	admin.GET("/users/:id", h.Users.Get)
	admin.PUT("/users/:id", h.Users.Update)
	admin.POST("/users/:id/edit", h.Users.Update)
	admin.DELETE("/users/:id", h.Users.Delete)
	admin.POST("/users/:id/delete", h.Users.Delete)

	admin.GET("/departments", h.Departments.List)
	admin.POST("/departments", h.Departments.Create)
	admin.GET("/departments/:id", h.Departments.Get)
	admin.PUT("/departments/:id", h.Departments.Update)
	admin.POST("/departments/:id/edit", h.Departments.Update)
	admin.DELETE("/departments/:id", h.Departments.Delete)
	admin.POST("/departments/:id/delete", h.Departments.Delete)

	admin.GET("/services", h.Catalog.List)
	admin.POST("/services", h.Catalog.Create)
	admin.GET("/services/:id", h.Catalog.Get)
	admin.PUT("/services/:id", h.Catalog.Update)
	admin.POST("/services/:id/edit", h.Catalog.Update)
	admin.DELETE("/services/:id", h.Catalog.Delete)
	admin.POST("/services/:id/delete", h.Catalog.Delete)

	admin.GET("/reports", h.Reports.Overview)
	admin.GET("/reports/export", h.Reports.Export)

	reports := api.Group("/reports", required, middleware.RequireRoles(models.RoleAdmin, models.RoleDepartmentHead))
	reports.GET("/department-requests", h.Reports.DepartmentRequests)
	reports.GET("/payment-summary", h.Reports.PaymentSummary)
	reports.GET("/service-requests", h.Reports.ServiceRequests)

	return r
}
