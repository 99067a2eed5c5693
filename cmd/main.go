package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/config"
	"prestashop-importer-service/internal/handlers"
	"prestashop-importer-service/internal/importer"
	"prestashop-importer-service/internal/middleware"
	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
	"prestashop-importer-service/internal/services"
)

func main() {
	// Load .env when present; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)

	db, err := initDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := autoMigrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database schema")
	}
	logger.Info("Database models migrated")

	// Probe the target schema once; importers consult this instead of the
	// live database per item
	caps := importer.DetectCapabilities(db)

	// Repositories
	backendRepo := repository.NewBackendRepository(db)
	runRepo := repository.NewRunRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	pricelistRepo := repository.NewPricelistRepository(db)

	// Services
	backendService := services.NewBackendService(backendRepo, services.DefaultProberFactory(logger), logger)
	importService := services.NewImportService(backendRepo, runRepo, newRunnerFactory(cfg, caps, logger, importer.Stores{
		Partners:   partnerRepo,
		Categories: categoryRepo,
		Products:   productRepo,
		Pricelists: pricelistRepo,
		Runs:       runRepo,
	}), logger)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	backendHandler := handlers.NewBackendHandler(backendService)
	importHandler := handlers.NewImportHandler(importService)

	router := setupRouter(cfg, logger, healthHandler, backendHandler, importHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"environment": cfg.Environment,
		}).Info("PrestaShop importer service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down importer service")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	logger.Info("Importer service stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func initDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PrestashopBackend{},
		&models.ImportRun{},
		&models.ImportRunLog{},
		&models.Partner{},
		&models.ProductCategory{},
		&models.Product{},
		&models.ProductImage{},
		&models.StockLevel{},
		&models.Pricelist{},
		&models.PricelistRule{},
	)
}

// newRunnerFactory builds one importer per run, each with its own webservice
// client bound to the backend's URL and key.
func newRunnerFactory(cfg *config.Config, caps importer.Capabilities, logger *logrus.Logger, stores importer.Stores) services.RunnerFactory {
	importerConfig := importer.Config{
		Governor: importer.GovernorConfig{
			AbortMinErrors:  cfg.AbortMinErrors,
			AbortErrorRatio: cfg.AbortErrorRatio,
			ProgressEvery:   importer.DefaultGovernorConfig().ProgressEvery,
			ItemDelay:       cfg.ItemDelay,
		},
		GroupDelay: cfg.GroupDelay,
		ImageDelay: cfg.ImageDelay,
	}

	return func(backend *models.PrestashopBackend, runID uuid.UUID) services.EntityRunner {
		client := prestashop.NewClient(&prestashop.Config{
			BaseURL:           backend.APIBaseURL(),
			WSKey:             backend.APIKey,
			ListTimeout:       cfg.ListTimeout,
			DetailTimeout:     cfg.DetailTimeout,
			AuxTimeout:        cfg.AuxTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			RetryAttempts:     cfg.RetryAttempts,
			RetryBackoffStep:  cfg.RetryBackoffStep,
		}, logger)
		return importer.New(client, stores, caps, importerConfig, backend, runID, logger)
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	healthHandler *handlers.HealthHandler,
	backendHandler *handlers.BackendHandler,
	importHandler *handlers.ImportHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.TenantMiddleware())

	// Health checks
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API routes - require tenant ID
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireTenantID())
	{
		backends := v1.Group("/backends")
		{
			backends.GET("", backendHandler.List)
			backends.POST("", backendHandler.Create)
			backends.GET("/:id", backendHandler.Get)
			backends.PATCH("/:id", backendHandler.Update)
			backends.DELETE("/:id", backendHandler.Delete)
			backends.POST("/:id/test", backendHandler.TestConnection)
			backends.POST("/:id/import/:entity", importHandler.Start)
		}

		imports := v1.Group("/imports")
		{
			imports.GET("/runs", importHandler.ListRuns)
			imports.GET("/runs/:id", importHandler.GetRun)
			imports.GET("/runs/:id/logs", importHandler.GetRunLogs)
			imports.POST("/runs/:id/cancel", importHandler.CancelRun)
		}
	}

	return router
}
