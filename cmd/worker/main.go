package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/logistics-platform/freight-service/internal/activities"
	"github.com/logistics-platform/freight-service/internal/application"
	"github.com/logistics-platform/freight-service/internal/config"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
	"github.com/logistics-platform/freight-service/internal/infrastructure/geocode"
	mongoRepo "github.com/logistics-platform/freight-service/internal/infrastructure/mongodb"
	"github.com/logistics-platform/freight-service/internal/infrastructure/routing"
	"github.com/logistics-platform/freight-service/internal/workflows"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
	"github.com/logistics-platform/freight-service/pkg/kafka"
	"github.com/logistics-platform/freight-service/pkg/logging"
	"github.com/logistics-platform/freight-service/pkg/mongodb"
	"github.com/logistics-platform/freight-service/pkg/resilience"
	"github.com/logistics-platform/freight-service/pkg/temporal"
)

const serviceName = "freight-worker"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting freight-service worker")

	cfg, err := config.Load(serviceName)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	ctx := context.Background()

	// MongoDB for the saga journal
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	journalRepo := mongoRepo.NewJournalRepository(mongoClient.Database())

	// Kafka producer for order events
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceOrders)

	// Circuit breakers for the external geo services
	breakers := resilience.NewCircuitBreakerRegistry(logger.Logger, nil)
	geocodeBreaker := breakers.Get(resilience.BreakerGeocoder)
	routingBreaker := breakers.Get(resilience.BreakerDirections)

	// External clients
	routingClient := routing.NewClient(cfg.Routing.BaseURL, cfg.Routing.Timeout, routingBreaker, logger, nil)
	geocodeClient := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.Timeout, geocodeBreaker, logger, nil)
	backendClient := backend.NewClient(cfg.Storefront.BaseURL, cfg.Storefront.Timeout)

	originResolver := geocode.NewOriginResolver(
		application.NewBackendStoreLoader(backendClient),
		geocodeClient,
	)

	// Temporal client
	temporalClient, err := temporal.NewClient(ctx, cfg.Temporal)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", cfg.Temporal.HostPort, "namespace", cfg.Temporal.Namespace)

	// Activities
	geoActivities := activities.NewGeoActivities(geocodeClient, originResolver, routingClient, logger)
	orderActivities := activities.NewOrderActivities(
		backendClient,
		journalRepo,
		eventFactory,
		producer,
		kafka.Topics.OrderEvents,
		logger,
	)

	// Worker
	workerOpts := temporal.DefaultWorkerOptions(temporal.TaskQueues.OrderCreation)
	w := temporalClient.NewWorker(workerOpts)

	w.RegisterWorkflow(workflows.OrderCreationWorkflow)
	logger.Info("Registered workflows", "workflows", []string{temporal.WorkflowNames.OrderCreation})

	w.RegisterActivity(geoActivities.ResolveDestination)
	w.RegisterActivity(geoActivities.ResolveOrigin)
	w.RegisterActivity(geoActivities.ResolveDistance)
	w.RegisterActivity(orderActivities.CreateAddress)
	w.RegisterActivity(orderActivities.CreateProducts)
	w.RegisterActivity(orderActivities.CreateOrder)
	w.RegisterActivity(orderActivities.CreateOrderItems)
	w.RegisterActivity(orderActivities.CreateDelivery)
	w.RegisterActivity(orderActivities.RecordSagaState)
	w.RegisterActivity(orderActivities.PublishOrderEvent)
	logger.Info("Registered activities", "activities", []string{
		temporal.ActivityNames.ResolveDestination,
		temporal.ActivityNames.ResolveOrigin,
		temporal.ActivityNames.ResolveDistance,
		temporal.ActivityNames.CreateAddress,
		temporal.ActivityNames.CreateProducts,
		temporal.ActivityNames.CreateOrder,
		temporal.ActivityNames.CreateOrderItems,
		temporal.ActivityNames.CreateDelivery,
		temporal.ActivityNames.RecordSagaState,
		temporal.ActivityNames.PublishOrderEvent,
	})

	go func() {
		if err := w.Run(nil); err != nil {
			logger.Error("Worker failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.OrderCreation)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
