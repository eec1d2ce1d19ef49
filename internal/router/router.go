package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/devshad-01/meteor-push-pwa/internal/events"
	"github.com/devshad-01/meteor-push-pwa/internal/handlers"
	"github.com/devshad-01/meteor-push-pwa/internal/middleware"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/internal/push"
	"github.com/devshad-01/meteor-push-pwa/internal/repositories"
	"github.com/devshad-01/meteor-push-pwa/internal/service"
	"github.com/devshad-01/meteor-push-pwa/pkg/config"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
	"github.com/devshad-01/meteor-push-pwa/pkg/metrics"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// Deps carries the non-database collaborators built in main.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Transport push.Transport
	Bus       *events.Bus
	Tracker   *service.PresenceTracker
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, deps Deps) {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(&models.NotificationRecord{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"message": "meteor-push-pwa backend"})
	})

	// --- Initialize repositories and services ---
	endpointRegistry := repositories.NewMongoEndpointRegistry(mgClient.Database("pushpwa"))
	notificationStore := repositories.NewPostgresNotificationStore(
		pgdb, deps.Config.DefaultListLimit, deps.Config.MaxListLimit)

	engine := service.NewDispatchEngine(
		endpointRegistry,
		notificationStore,
		deps.Transport,
		deps.Bus,
		deps.Logger,
		deps.Metrics,
		service.DispatchConfig{
			TransportTimeout:     deps.Config.TransportTimeout,
			BroadcastConcurrency: deps.Config.BroadcastConcurrency,
		},
	)

	subscriptionHandler := handlers.NewSubscriptionHandler(endpointRegistry)
	notificationHandler := handlers.NewNotificationHandler(engine, notificationStore, deps.Bus)
	trackingHandler := handlers.NewTrackingHandler(deps.Tracker)

	// --- Optional-auth routes: anonymous callers allowed ---
	public := e.Group("/api/v1")
	public.Use(middleware.OptionalJWTAuth(deps.Config.JWTSecret))
	subscriptionHandler.RegisterPublicRoutes(public)
	trackingHandler.RegisterPublicRoutes(public)
	log.Println("Subscription and tracking routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuth(deps.Config.JWTSecret))
	subscriptionHandler.RegisterSubscriptionRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)
	trackingHandler.RegisterTrackingRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
