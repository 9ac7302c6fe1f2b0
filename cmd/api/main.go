package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/trainhub/training-admin-api/api/swagger"
	"github.com/trainhub/training-admin-api/internal/handler"
	"github.com/trainhub/training-admin-api/internal/middleware"
	"github.com/trainhub/training-admin-api/internal/repository"
	"github.com/trainhub/training-admin-api/internal/service"
	"github.com/trainhub/training-admin-api/pkg/cache"
	"github.com/trainhub/training-admin-api/pkg/config"
	"github.com/trainhub/training-admin-api/pkg/database"
	"github.com/trainhub/training-admin-api/pkg/logger"
	corsmiddleware "github.com/trainhub/training-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/trainhub/training-admin-api/pkg/middleware/requestid"
)

// @title Training Admin API
// @version 1.0.0
// @description Internal training session administration service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
			defer cacheRepo.Close()
		}
	}

	validate := validator.New()

	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	topicRepo := repository.NewLearningTopicRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	activitySvc := service.NewActivityService(activityRepo, userRepo, cfg.Dashboard.RecentActivitiesMax, logr)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, activitySvc, validate, cfg.Listing.PageSize, cfg.Listing.MaxPageSize, logr)
	userSvc := service.NewUserService(userRepo, departmentRepo, sessionRepo, activitySvc, validate, cfg.Listing.PageSize, cfg.Listing.MaxPageSize, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, activitySvc, validate, logr)
	topicSvc := service.NewLearningTopicService(topicRepo, activitySvc, validate, cfg.Listing.PageSize, cfg.Listing.MaxPageSize, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Sessions: sessionRepo,
		Users:    userRepo,
		Topics:   topicRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:          cfg.Dashboard.CacheTTL,
			TopSessionsLimit:  cfg.Dashboard.TopSessionsLimit,
			LearningTopicsMax: cfg.Dashboard.LearningTopicsMax,
		},
	})
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Sessions: sessionRepo,
		Writer:   sessionSvc,
		Users:    userRepo,
		Metrics:  metrics,
		Logger:   logr,
		Config: service.ExportServiceConfig{
			SheetName:  cfg.Export.SheetName,
			DateFormat: cfg.Export.DateFormat,
		},
	})

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	userHandler := handler.NewUserHandler(userSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	topicHandler := handler.NewLearningTopicHandler(topicSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.Auth.Secret))
	{
		api.GET("/dashboard", dashboardHandler.Get)

		api.GET("/activities", activityHandler.Recent)
		api.GET("/activities/unread-count", activityHandler.UnreadCount)

		sessions := api.Group("/sessions")
		{
			sessions.GET("", sessionHandler.List)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.POST("", sessionHandler.Create)
			sessions.PUT("/:id", sessionHandler.Update)
			sessions.PATCH("/:id/status", sessionHandler.Transition)
			sessions.DELETE("/:id", middleware.StaffOnly(), sessionHandler.Delete)

			sessions.GET("/export", middleware.StaffOnly(), exportHandler.Export)
			sessions.POST("/import", middleware.StaffOnly(), exportHandler.Import)
		}

		users := api.Group("/users")
		{
			users.GET("", middleware.StaffOnly(), userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", middleware.StaffOnly(), userHandler.Create)
			users.PUT("/:id", middleware.StaffOnly(), userHandler.Update)
			users.DELETE("/:id", middleware.StaffOnly(), userHandler.Delete)
		}

		departments := api.Group("/departments")
		{
			departments.GET("", departmentHandler.List)
			departments.POST("", middleware.StaffOnly(), departmentHandler.Create)
			departments.PUT("/:id", middleware.StaffOnly(), departmentHandler.Update)
			departments.DELETE("/:id", middleware.StaffOnly(), departmentHandler.Delete)
		}

		topics := api.Group("/learning-topics")
		{
			topics.GET("", topicHandler.List)
			topics.POST("", middleware.StaffOnly(), topicHandler.Create)
			topics.PUT("/:id", middleware.StaffOnly(), topicHandler.Update)
			topics.DELETE("/:id", middleware.StaffOnly(), topicHandler.Delete)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
