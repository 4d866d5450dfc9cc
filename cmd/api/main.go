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

	"github.com/chaza/pricewatch/internal/api"
	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/connector"
	"github.com/chaza/pricewatch/internal/logger"
	"github.com/chaza/pricewatch/internal/notify"
	"github.com/chaza/pricewatch/internal/repository"
	"github.com/chaza/pricewatch/internal/scheduler"
	"github.com/chaza/pricewatch/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	retailerRepo := repository.NewRetailerRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	jobRepo := repository.NewScrapingJobRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := repository.SeedRetailers(ctx, retailerRepo); err != nil {
			appLogger.WithError(err).Fatal("Failed to seed retailers")
		}
	}

	// Initialize connectors and notification channels
	registry := connector.NewDefaultRegistry(&cfg.Connectors)

	notifiers := []notify.Notifier{
		notify.NewEmailNotifier(&cfg.Notify.Email),
		notify.NewPushNotifier(&cfg.Notify.Push),
	}

	// Initialize services
	priceUpdateService := service.NewPriceUpdateService(
		retailerRepo, priceRepo, jobRepo, registry, appLogger,
		&service.PriceUpdateConfig{
			ProductDelay:  cfg.Jobs.ProductDelay,
			RetailerDelay: cfg.Jobs.RetailerDelay,
		},
	)
	alertService := service.NewAlertService(alertRepo, notifiers, appLogger)

	// Register and start scheduled tasks
	sched := scheduler.New(appLogger)
	sched.Register("price-update", cfg.Jobs.PriceUpdateInterval, func(ctx context.Context) error {
		_, err := priceUpdateService.Run(ctx)
		return err
	})
	sched.Register("price-alerts", cfg.Jobs.PriceAlertInterval, func(ctx context.Context) error {
		_, err := alertService.Run(ctx)
		return err
	})
	sched.StartAll()

	// Setup router
	router := api.SetupRouter(db, sched, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	// Disarm timers and wait for in-flight runs to finish
	sched.StopAll()

	appLogger.Info("Server exited")
}
