package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/crm-dashboard-api/internal/handler"
	"github.com/noah-isme/crm-dashboard-api/internal/middleware"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	"github.com/noah-isme/crm-dashboard-api/internal/repository"
	"github.com/noah-isme/crm-dashboard-api/internal/service"
	"github.com/noah-isme/crm-dashboard-api/pkg/config"
	"github.com/noah-isme/crm-dashboard-api/pkg/export"
	"github.com/noah-isme/crm-dashboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/crm-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/crm-dashboard-api/pkg/middleware/requestid"
	"github.com/noah-isme/crm-dashboard-api/pkg/storage"
)

type app struct {
	cfg    *config.Config
	db     *sqlx.DB
	logger *zap.Logger
	store  *storage.LocalStorage

	metrics  *service.MetricsService
	auth     *service.AuthService
	identity *service.IdentityService

	authHandler      *handler.AuthHandler
	reportHandler    *handler.ReportHandler
	dashboardHandler *handler.DashboardHandler
	viewHandler      *handler.ViewHandler
	timetableHandler *handler.TimetableHandler
	metricsHandler   *handler.MetricsHandler
}

func newApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*app, error) {
	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	exportFormat, err := export.ParseFormat(cfg.Reports.ExportFormat, export.FormatXLSX)
	if err != nil {
		logr.Warn("unknown export format, using xlsx", zap.String("format", cfg.Reports.ExportFormat))
		exportFormat = export.FormatXLSX
	}

	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	aggregateRepo := repository.NewAggregateRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, sessionRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	identitySvc := service.NewIdentityService(userRepo, logr)

	attachmentSvc := service.NewAttachmentService(store, metrics, logr, service.AttachmentConfig{
		Bucket:      cfg.Storage.AttachmentsBucket,
		MaxFileSize: cfg.Reports.MaxAttachmentSize,
	})
	renderers := []export.Renderer{
		export.NewXLSXExporter("Reports"),
		export.NewCSVExporter(),
		export.NewPDFExporter(),
	}
	reportSvc := service.NewReportService(reportRepo, attachmentSvc, directoryRepo, renderers, validate, metrics, logr, service.ReportServiceConfig{
		HistoryLimit: cfg.Reports.HistoryLimit,
		ExportFormat: exportFormat,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Aggregates: aggregateRepo,
		Reports:    reportRepo,
		Metrics:    metrics,
		Logger:     logr,
		Config: service.DashboardServiceConfig{
			QueryConcurrency: cfg.Dashboard.QueryConcurrency,
			AttendanceWindow: cfg.Dashboard.AttendanceWindow,
			QueryTimeout:     cfg.Dashboard.QueryTimeout,
		},
	})
	viewSvc := service.NewViewService(identitySvc, reportSvc, dashboardSvc, logr)

	signer := storage.NewSignedURLSigner(cfg.Timetables.SignedURLSecret, cfg.Timetables.SignedURLTTL)
	timetableSvc := service.NewTimetableService(store, signer, metrics, logr, service.TimetableConfig{
		Bucket:      cfg.Storage.TimetablesBucket,
		MaxFileSize: cfg.Timetables.MaxFileSizeBytes,
		APIPrefix:   cfg.APIPrefix,
	})

	return &app{
		cfg:              cfg,
		db:               db,
		logger:           logr,
		store:            store,
		metrics:          metrics,
		auth:             authSvc,
		identity:         identitySvc,
		authHandler:      handler.NewAuthHandler(authSvc),
		reportHandler:    handler.NewReportHandler(reportSvc),
		dashboardHandler: handler.NewDashboardHandler(dashboardSvc),
		viewHandler:      handler.NewViewHandler(viewSvc),
		timetableHandler: handler.NewTimetableHandler(timetableSvc),
		metricsHandler:   handler.NewMetricsHandler(metrics),
	}, nil
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", a.metricsHandler.Health)
	r.GET("/ready", a.ready)
	r.GET("/metrics", a.metricsHandler.Prometheus)
	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	attachmentsBucket := a.cfg.Storage.AttachmentsBucket
	r.StaticFS("/storage/"+attachmentsBucket, gin.Dir(a.store.BucketDir(attachmentsBucket), false))

	authRequired := middleware.JWT(a.auth)
	principal := middleware.Principal(a.identity)
	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	api := r.Group("/" + strings.Trim(a.cfg.APIPrefix, "/"))
	api.POST("/auth/login", a.authHandler.Login)
	api.POST("/auth/logout", authRequired, a.authHandler.Logout)
	api.GET("/view", middleware.OptionalJWT(a.auth), a.viewHandler.View)
	api.GET("/timetables/download", a.timetableHandler.Download)

	secured := api.Group("", authRequired, principal)
	secured.GET("/me", a.authHandler.Me)

	reports := secured.Group("/reports")
	reports.GET("", a.reportHandler.History)
	reports.GET("/export", a.reportHandler.Export)
	reports.GET("/form-options", middleware.RequireRoles(models.RoleTeacher, models.RoleCounselor), a.reportHandler.FormOptions)
	reports.POST("/class", middleware.RequireRoles(models.RoleTeacher), a.reportHandler.SubmitClass)
	reports.POST("/student-performance", middleware.RequireRoles(models.RoleTeacher), a.reportHandler.SubmitStudentPerformance)
	reports.POST("/case-progress", middleware.RequireRoles(models.RoleCounselor), a.reportHandler.SubmitCaseProgress)
	reports.POST("/:id/attachments", a.reportHandler.AttachFiles)
	reports.PATCH("/:id/status", admins, a.reportHandler.Moderate)

	dashboard := secured.Group("/dashboard", admins)
	dashboard.GET("/overview", a.dashboardHandler.Overview)
	dashboard.GET("/employees/performance", a.dashboardHandler.EmployeePerformance)

	secured.POST("/timetables", admins, a.timetableHandler.Upload)
	secured.GET("/ops/metrics", admins, a.metricsHandler.Snapshot)

	return r
}

func (a *app) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
