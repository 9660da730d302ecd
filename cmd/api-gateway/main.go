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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openverse/campus-api/api/swagger"
	"github.com/openverse/campus-api/internal/bus"
	"github.com/openverse/campus-api/internal/handler"
	"github.com/openverse/campus-api/internal/middleware"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/internal/repository"
	"github.com/openverse/campus-api/internal/service"
	"github.com/openverse/campus-api/internal/store"
	"github.com/openverse/campus-api/pkg/cache"
	"github.com/openverse/campus-api/pkg/config"
	"github.com/openverse/campus-api/pkg/database"
	"github.com/openverse/campus-api/pkg/export"
	"github.com/openverse/campus-api/pkg/jobs"
	"github.com/openverse/campus-api/pkg/logger"
	corsmiddleware "github.com/openverse/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openverse/campus-api/pkg/middleware/requestid"
	"github.com/openverse/campus-api/pkg/storage"
)

// @title Campus Verse API
// @version 1.0.0
// @description Peer-verified academic content hub
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	contentRepo := repository.NewContentRepository(db)
	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var legacyRepo *repository.LegacySnapshotRepository
	if cfg.Legacy.Enabled {
		legacyRepo, err = repository.NewLegacySnapshotRepository(cfg.Legacy.Dir, cfg.Legacy.Filename)
		if err != nil {
			logr.Sugar().Fatalw("failed to init legacy snapshot mirror", "error", err)
		}
	}

	contentBus := bus.NewContentBus()
	userBus := bus.NewUserBus()
	metricsSvc := service.NewMetricsService(contentBus.Subscribers)

	var cacheSvc *service.CacheService
	var ledger *service.LedgerService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.LeaderboardTTL, logr, true)
		ledger = service.NewLedgerService(userRepo, userBus, cacheRepo, logr, cfg.Engine)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Cache.LeaderboardTTL, logr, false)
		ledger = service.NewLedgerService(userRepo, userBus, nil, logr, cfg.Engine)
	}

	validate := validator.New()

	var contentStore *store.Store
	if legacyRepo != nil {
		contentStore = store.New(contentRepo, legacyRepo, logr)
	} else {
		contentStore = store.New(contentRepo, nil, logr)
	}

	engine := service.NewEngineService(contentStore, userRepo, ledger, contentBus, metricsSvc, validate, logr, cfg.Engine)
	if err := engine.Init(ctx); err != nil {
		logr.Sugar().Fatalw("failed to load content collection", "error", err)
	}

	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)
	userSvc := service.NewUserService(userRepo, cacheSvc, logr, cfg.Cache.LeaderboardTTL)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	calendarSvc := service.NewCalendarService(engine, subjectSvc, logr)
	extractSvc := service.NewExtractService(nil, logr, cfg.Extract)

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	uploadSvc := service.NewUploadService(uploadStore, cfg.Uploads, logr)

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(engine, userRepo, reportStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	contentHandler := handler.NewContentHandler(engine, calendarSvc, uploadSvc, contentBus)
	subjectHandler := handler.NewSubjectHandler(subjectSvc, engine)
	userHandler := handler.NewUserHandler(userSvc, ledger)
	auditHandler := handler.NewAuditHandler(auditRepo)
	extractHandler := handler.NewExtractHandler(extractSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/feed", middleware.OptionalJWT(authSvc), contentHandler.Feed)
	api.GET("/content/stream", middleware.OptionalJWT(authSvc), contentHandler.Stream)
	api.GET("/content/:id", contentHandler.Get)
	api.GET("/content/:id/calendar", contentHandler.CalendarLink)
	api.GET("/content/:id/file", contentHandler.Attachment)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.POST("/content", contentHandler.Create)
	authed.POST("/content/:id/vote", contentHandler.Vote)
	authed.DELETE("/content/:id", contentHandler.Delete)

	privileged := authed.Group("", middleware.RequirePrivileged())
	privileged.POST("/content/:id/verify",
		middleware.Audit(auditRepo, models.AuditActionForceVerify, "content"), contentHandler.ForceVerify)
	privileged.POST("/content/:id/reject",
		middleware.Audit(auditRepo, models.AuditActionForceReject, "content"), contentHandler.ForceReject)
	privileged.POST("/subjects",
		middleware.Audit(auditRepo, models.AuditActionSubjectCreate, "subject"), subjectHandler.Create)
	privileged.DELETE("/subjects/:id",
		middleware.Audit(auditRepo, models.AuditActionSubjectDelete, "subject"), subjectHandler.Delete)
	privileged.GET("/admin/audit", auditHandler.List)
	privileged.GET("/stats", metricsHandler.Stats)

	api.GET("/subjects", subjectHandler.List)
	api.GET("/subjects/:id", subjectHandler.Get)
	api.GET("/subjects/:id/directory", subjectHandler.Directory)

	authed.GET("/users", userHandler.List)
	authed.GET("/users/me", userHandler.Me)
	authed.GET("/users/:enrollmentId", userHandler.Get)
	authed.PATCH("/users/:enrollmentId/profile",
		middleware.RequireSelfOrPrivileged("enrollmentId"), userHandler.UpdateProfile)
	api.GET("/leaderboard", middleware.WithResponseMeta(), userHandler.Leaderboard)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		authed.POST("/reports/generate",
			middleware.Audit(auditRepo, models.AuditActionReportRequest, "report"), reportHandler.Generate)
		authed.GET("/reports/:id", reportHandler.Status)
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	if extractSvc.Enabled() {
		authed.POST("/extract", extractHandler.ExtractImage)
		authed.POST("/summarize", extractHandler.Summarize)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
