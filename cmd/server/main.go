package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshad-01/meteor-push-pwa/internal/events"
	"github.com/devshad-01/meteor-push-pwa/internal/push"
	"github.com/devshad-01/meteor-push-pwa/internal/router"
	"github.com/devshad-01/meteor-push-pwa/internal/service"
	"github.com/devshad-01/meteor-push-pwa/pkg/config"
	"github.com/devshad-01/meteor-push-pwa/pkg/firebase"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
	"github.com/devshad-01/meteor-push-pwa/pkg/metrics"
	"github.com/devshad-01/meteor-push-pwa/validators"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	appLogger := logger.NewLogger("push-pwa-backend")
	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Select the push transport
	transport, err := buildTransport(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize push transport: %v", err)
	}

	// Core collaborators
	bus := events.NewBus()
	defer bus.Close()
	tracker := service.NewPresenceTracker(cfg.PresenceTTL, cfg.OfflineGracePeriod, appLogger, appMetrics)
	defer tracker.Stop()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, router.Deps{
		Config:    cfg,
		Logger:    appLogger,
		Metrics:   appMetrics,
		Transport: transport,
		Bus:       bus,
		Tracker:   tracker,
	})

	// Validator
	e.Validator = validators.NewValidator()

	// Metrics endpoint on its own port
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func buildTransport(cfg *config.Config, appLogger *logger.Logger) (push.Transport, error) {
	switch cfg.PushProvider {
	case "fcm":
		app, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			return nil, err
		}
		return push.NewFCMTransport(app.MessagingClient, appLogger), nil
	default:
		return push.NewWebPushTransport(push.WebPushConfig{
			Subscriber:      cfg.VAPIDSubscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		}, appLogger), nil
	}
}
