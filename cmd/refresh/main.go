package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/connector"
	"github.com/chaza/pricewatch/internal/logger"
	"github.com/chaza/pricewatch/internal/notify"
	"github.com/chaza/pricewatch/internal/repository"
	"github.com/chaza/pricewatch/internal/service"
)

func buildNotifiers(cfg *config.Config) []notify.Notifier {
	return []notify.Notifier{
		notify.NewEmailNotifier(&cfg.Notify.Email),
		notify.NewPushNotifier(&cfg.Notify.Push),
	}
}

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "pricewatch-refresh",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	retailerSlug := flag.String("retailer", "", "Refresh a single retailer by slug (empty refreshes all active retailers)")
	evalAlerts := flag.Bool("alerts", false, "Evaluate price alerts after refreshing")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	retailerRepo := repository.NewRetailerRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	jobRepo := repository.NewScrapingJobRepository(db)

	registry := connector.NewDefaultRegistry(&cfg.Connectors)

	updateService := service.NewPriceUpdateService(
		retailerRepo, priceRepo, jobRepo, registry, appLogger,
		&service.PriceUpdateConfig{
			ProductDelay:  cfg.Jobs.ProductDelay,
			RetailerDelay: cfg.Jobs.RetailerDelay,
		},
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *retailerSlug != "" {
		result := updateService.UpdateRetailerPrices(ctx, *retailerSlug)
		appLogger.WithFields(logger.Fields{
			logger.FieldRetailer: result.RetailerSlug,
			"success":            result.Success,
			"products_updated":   result.ProductsUpdated,
			"prices_changed":     result.PricesChanged,
			"errors":             len(result.Errors),
		}).Info("Refresh completed")
		if !result.Success {
			os.Exit(1)
		}
	} else {
		result, err := updateService.Run(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Refresh failed")
		}
		appLogger.WithFields(logger.Fields{
			"retailers":        len(result.Retailers),
			"products_updated": result.TotalProductsUpdated,
			"prices_changed":   result.TotalPricesChanged,
			"errors":           result.TotalErrors,
		}).Info("Refresh completed")
	}

	if *evalAlerts {
		alertRepo := repository.NewAlertRepository(db)
		notifiers := buildNotifiers(cfg)
		alertService := service.NewAlertService(alertRepo, notifiers, appLogger)

		result, err := alertService.Run(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Alert evaluation failed")
		}
		appLogger.WithFields(logger.Fields{
			"alerts_checked":     result.AlertsChecked,
			"alerts_triggered":   result.AlertsTriggered,
			"notifications_sent": result.NotificationsSent,
			"errors":             len(result.Errors),
		}).Info("Alert evaluation completed")
	}
}
