package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studyhive/resource-api/api/swagger"
	"github.com/studyhive/resource-api/internal/handler"
	"github.com/studyhive/resource-api/internal/middleware"
	"github.com/studyhive/resource-api/internal/repository"
	"github.com/studyhive/resource-api/internal/service"
	"github.com/studyhive/resource-api/pkg/config"
	"github.com/studyhive/resource-api/pkg/database"
	"github.com/studyhive/resource-api/pkg/logger"
	corsmiddleware "github.com/studyhive/resource-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyhive/resource-api/pkg/middleware/requestid"
	"github.com/studyhive/resource-api/pkg/storage"
)

// @title StudyHive Resource API
// @version 1.0.0
// @description CRUD microservice for course study materials with per-entry media management
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	objectStore, err := storage.NewS3(cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object store", "error", err)
	}

	resourceRepo := repository.NewResourceRepository(db, cfg.Database.QueryTimeout)
	followerRepo := repository.NewFollowerRepository(db, cfg.Database.QueryTimeout)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	authSvc := service.NewAuthService(cfg.JWT)
	fileSvc := service.NewFileService(objectStore, service.FileServiceConfig{
		Folder:         cfg.Storage.Folder,
		RequestTimeout: cfg.Storage.RequestTimeout,
	}, metricsSvc, logr)
	resourceSvc := service.NewResourceService(resourceRepo, followerRepo, fileSvc, nil, logr)

	resourceHandler := handler.NewResourceHandler(resourceSvc, fileSvc, handler.ResourceHandlerConfig{
		MaxFileSizeBytes: cfg.Upload.MaxFileSizeBytes,
		MaxFilesPerBatch: cfg.Upload.MaxFilesPerBatch,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.RouterDeps{
		Resources: resourceHandler,
		Auth:      authSvc,
		Metrics:   metricsSvc,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
