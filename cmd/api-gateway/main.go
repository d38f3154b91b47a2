package main

import (
	"context"
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

	_ "github.com/noah-isme/ojt-portal-api/api/swagger"
	"github.com/noah-isme/ojt-portal-api/internal/handler"
	"github.com/noah-isme/ojt-portal-api/internal/middleware"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	"github.com/noah-isme/ojt-portal-api/pkg/cache"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	"github.com/noah-isme/ojt-portal-api/pkg/database"
	"github.com/noah-isme/ojt-portal-api/pkg/jobs"
	"github.com/noah-isme/ojt-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ojt-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ojt-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

// @title OJT Portal API
// @version 1.0.0
// @description Internship tracking: daily activity logs, reviews, evaluations, and reports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summaries will not be cached", "error", err)
		redisClient = nil
	}

	photoStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init photo storage", "error", err)
	}
	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	internRepo := repository.NewInternRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	dailyLogRepo := repository.NewDailyLogRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(nil, logr)
	if cfg.Summary.CacheEnabled && redisClient != nil {
		cacheSvc = service.NewCacheService(cacheRepo, logr)
	}
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, logr)
	internSvc := service.NewInternService(internRepo, companyRepo, userRepo, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, internRepo, userRepo, validate, logr)

	dailyLogSvc := service.NewDailyLogService(dailyLogRepo, internRepo, photoStore, userRepo, cacheSvc, validate, logr, cfg.Summary.CacheTTL)
	dailyLogSvc.SetMetrics(metricsSvc)

	reportSvc := service.NewReportService(reportRepo, internRepo, reportStore, signer, userRepo, validate, logr)
	queue := jobs.NewQueue("reports", reportSvc.Process, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(queue)
	reportSvc.SetMetrics(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	if err := userSvc.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logr.Sugar().Fatalw("failed to seed admin account", "error", err)
	}

	go runReportCleanup(ctx, reportSvc, cfg.Reports.CleanupInterval, cfg.Reports.SignedURLTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	dailyLogHandler := handler.NewDailyLogHandler(dailyLogSvc, photoStore, cfg.Uploads)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	internHandler := handler.NewInternHandler(internSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	logsGroup := protected.Group("/logs")
	logsGroup.POST("", middleware.RequireRoles(models.RoleIntern), dailyLogHandler.Create)
	logsGroup.GET("", middleware.RequireRoles(models.RoleIntern), dailyLogHandler.ListOwn)
	logsGroup.GET("/summary", dailyLogHandler.Summary)
	logsGroup.PATCH("/:id", middleware.RequireRoles(models.RoleIntern), dailyLogHandler.Update)
	logsGroup.DELETE("/:id", middleware.RequireRoles(models.RoleIntern), dailyLogHandler.Delete)
	logsGroup.POST("/:id/review/adviser", middleware.RequireRoles(models.RoleAdviser, models.RoleAdmin), dailyLogHandler.ReviewByAdviser)
	logsGroup.POST("/:id/review/supervisor", middleware.RequireRoles(models.RoleSupervisor), dailyLogHandler.ReviewBySupervisor)

	protected.GET("/photos/:filename", dailyLogHandler.Photo)

	internsGroup := protected.Group("/interns")
	internsGroup.POST("", middleware.RequireRoles(models.RoleAdmin), internHandler.Enroll)
	internsGroup.GET("", middleware.RequireRoles(models.RoleAdviser, models.RoleAdmin), internHandler.List)
	internsGroup.PUT("/:internId/placement", middleware.RequireRoles(models.RoleAdmin), internHandler.Place)
	internsGroup.GET("/:internId/logs", middleware.RequireRoles(models.RoleAdviser, models.RoleSupervisor, models.RoleAdmin), dailyLogHandler.ListForIntern)
	internsGroup.GET("/:internId/evaluations", middleware.RequireRoles(models.RoleAdviser, models.RoleSupervisor, models.RoleAdmin), evaluationHandler.ListByIntern)

	companiesGroup := protected.Group("/companies")
	companiesGroup.POST("", middleware.RequireRoles(models.RoleAdmin), internHandler.CreateCompany)
	companiesGroup.GET("", middleware.RequireRoles(models.RoleAdviser, models.RoleAdmin), internHandler.ListCompanies)

	evaluationsGroup := protected.Group("/evaluations")
	evaluationsGroup.POST("", middleware.RequireRoles(models.RoleAdviser, models.RoleSupervisor, models.RoleAdmin), evaluationHandler.Create)
	evaluationsGroup.GET("", middleware.RequireRoles(models.RoleIntern), evaluationHandler.ListOwn)

	reportsGroup := api.Group("/reports")
	reportsGroup.GET("/download/:token", middleware.Audit(userRepo, models.AuditActionReportDownload, "report_job"), reportHandler.Download)
	reportsProtected := reportsGroup.Group("")
	reportsProtected.Use(middleware.JWT(authSvc))
	reportsProtected.POST("", middleware.RequireRoles(models.RoleAdviser, models.RoleAdmin), reportHandler.Submit)
	reportsProtected.GET("", reportHandler.ListOwn)
	reportsProtected.GET("/:id", reportHandler.Get)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}

func runReportCleanup(ctx context.Context, reports *service.ReportService, interval, ttl time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reports.CleanupExpired(ttl)
		}
	}
}
