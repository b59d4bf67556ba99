package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/logistics-platform/freight-service/internal/application"
	"github.com/logistics-platform/freight-service/internal/config"
	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
	"github.com/logistics-platform/freight-service/internal/infrastructure/geocode"
	mongoRepo "github.com/logistics-platform/freight-service/internal/infrastructure/mongodb"
	"github.com/logistics-platform/freight-service/internal/infrastructure/routing"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
	"github.com/logistics-platform/freight-service/pkg/errors"
	"github.com/logistics-platform/freight-service/pkg/kafka"
	"github.com/logistics-platform/freight-service/pkg/logging"
	"github.com/logistics-platform/freight-service/pkg/metrics"
	"github.com/logistics-platform/freight-service/pkg/middleware"
	"github.com/logistics-platform/freight-service/pkg/mongodb"
	"github.com/logistics-platform/freight-service/pkg/resilience"
	"github.com/logistics-platform/freight-service/pkg/temporal"
)

const serviceName = "freight-api"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting freight-service API")

	cfg, err := config.Load(serviceName)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	ctx := context.Background()

	// Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	journalRepo := mongoRepo.NewJournalRepository(mongoClient.Database())
	snapshotRepo := mongoRepo.NewQuoteSnapshotRepository(mongoClient.Database())

	// Kafka producer
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceQuotes)

	// Circuit breakers for the external geo services
	breakers := resilience.NewCircuitBreakerRegistry(logger.Logger, m)
	geocodeBreaker := breakers.Get(resilience.BreakerGeocoder)
	routingBreaker := breakers.Get(resilience.BreakerDirections)

	// External clients
	routingClient := routing.NewClient(cfg.Routing.BaseURL, cfg.Routing.Timeout, routingBreaker, logger, m)
	geocodeClient := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.Timeout, geocodeBreaker, logger, m)
	backendClient := backend.NewClient(cfg.Storefront.BaseURL, cfg.Storefront.Timeout)

	originResolver := geocode.NewOriginResolver(
		application.NewBackendStoreLoader(backendClient),
		geocodeClient,
	)

	// Temporal client
	temporalClient, err := temporal.NewClient(ctx, cfg.Temporal)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Temporal")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", cfg.Temporal.HostPort)

	// Application services
	estimateService := application.NewEstimateService(
		geocodeClient,
		originResolver,
		routingClient,
		cfg.Tariff,
		snapshotRepo,
		producer,
		eventFactory,
		m,
		logger,
	)
	sessionManager := application.NewQuoteSessionManager(
		geocodeClient,
		originResolver,
		cfg.Geocode.Debounce,
		nil,
		logger,
	)
	defer sessionManager.Close()
	orderService := application.NewOrderService(
		temporalClient,
		journalRepo,
		cfg.Tariff,
		m,
		logger,
	)

	// Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(context.Background())
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	quotesAPI := router.Group("/api/v1/quotes")
	{
		quotesAPI.POST("", computeQuoteHandler(estimateService, logger))
	}

	sessionsAPI := router.Group("/api/v1/quote-sessions")
	{
		sessionsAPI.POST("", startQuoteSessionHandler(sessionManager, logger))
		sessionsAPI.GET("/:sessionId", getQuoteSessionHandler(sessionManager, logger))
		sessionsAPI.PUT("/:sessionId/destination", updateDestinationHandler(sessionManager, logger))
		sessionsAPI.POST("/:sessionId/quote", sessionQuoteHandler(sessionManager, estimateService, logger))
		sessionsAPI.DELETE("/:sessionId", closeQuoteSessionHandler(sessionManager, logger))
	}

	ordersAPI := router.Group("/api/v1/orders")
	{
		ordersAPI.POST("", submitOrderHandler(orderService, logger))
		ordersAPI.GET("/:correlationId", getOrderStatusHandler(orderService, logger))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// shipmentItemRequest is the wire shape of one order line
type shipmentItemRequest struct {
	ProductName string  `json:"productName" binding:"required,safe_string"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	WeightKg    float64 `json:"weightKg" binding:"required,gt=0"`
	HeightCm    float64 `json:"heightCm" binding:"omitempty,gte=0"`
	WidthCm     float64 `json:"widthCm" binding:"omitempty,gte=0"`
	LengthCm    float64 `json:"lengthCm" binding:"omitempty,gte=0"`
	Fragile     bool    `json:"fragile"`
	UnitPrice   float64 `json:"unitPrice" binding:"omitempty,gte=0"`
}

func toDomainItems(items []shipmentItemRequest) []domain.ShipmentItem {
	mapped := make([]domain.ShipmentItem, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, domain.ShipmentItem{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			WeightKg:    item.WeightKg,
			HeightCm:    item.HeightCm,
			WidthCm:     item.WidthCm,
			LengthCm:    item.LengthCm,
			Fragile:     item.Fragile,
			UnitPrice:   item.UnitPrice,
		})
	}
	return mapped
}

type coordinatesRequest struct {
	Latitude  float64 `json:"latitude" binding:"latitude"`
	Longitude float64 `json:"longitude" binding:"longitude"`
}

func respond(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}

// HTTP Handlers
func computeQuoteHandler(service *application.EstimateService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			StoreID            int64                 `json:"storeId" binding:"required,min=1"`
			DestinationAddress string                `json:"destinationAddress" binding:"required_without=Destination,omitempty,safe_string"`
			Destination        *coordinatesRequest   `json:"destination"`
			Items              []shipmentItemRequest `json:"items" binding:"required,min=1,dive"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.ComputeQuoteCommand{
			StoreID:            req.StoreID,
			Items:              toDomainItems(req.Items),
			DestinationAddress: req.DestinationAddress,
		}
		if req.Destination != nil {
			cmd.DestinationCoords = &domain.Coordinates{
				Latitude:  req.Destination.Latitude,
				Longitude: req.Destination.Longitude,
			}
		}

		quote, err := service.ComputeQuote(c.Request.Context(), cmd)
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}

func startQuoteSessionHandler(manager *application.QuoteSessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			StoreID int64 `json:"storeId" binding:"required,min=1"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		session, err := manager.StartSession(c.Request.Context(), application.StartQuoteSessionCommand{StoreID: req.StoreID})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusCreated, session)
	}
}

func getQuoteSessionHandler(manager *application.QuoteSessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		session, err := manager.GetSession(c.Param("sessionId"))
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

func updateDestinationHandler(manager *application.QuoteSessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Address string `json:"address" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		session, err := manager.UpdateDestination(c.Request.Context(), application.UpdateDestinationCommand{
			SessionID: c.Param("sessionId"),
			Address:   req.Address,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

func sessionQuoteHandler(manager *application.QuoteSessionManager, service *application.EstimateService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Items []shipmentItemRequest `json:"items" binding:"required,min=1,dive"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd, err := manager.SessionQuoteCommand(c.Param("sessionId"), toDomainItems(req.Items))
		if err != nil {
			respond(responder, err)
			return
		}

		quote, err := service.ComputeQuote(c.Request.Context(), *cmd)
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}

func closeQuoteSessionHandler(manager *application.QuoteSessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager.CloseSession(c.Param("sessionId"))
		c.Status(http.StatusNoContent)
	}
}

func submitOrderHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			CorrelationID string                `json:"correlationId" binding:"omitempty,safe_string"`
			StoreID       int64                 `json:"storeId" binding:"required,min=1"`
			Items         []shipmentItemRequest `json:"items" binding:"required,min=1,dive"`
			Destination   struct {
				Address      string              `json:"address" binding:"required,safe_string"`
				City         string              `json:"city" binding:"required,safe_string"`
				ContactName  string              `json:"contactName" binding:"required,safe_string"`
				ContactPhone string              `json:"contactPhone" binding:"required"`
				ContactEmail string              `json:"contactEmail" binding:"omitempty,email"`
				Country      string              `json:"country" binding:"required"`
				Coordinates  *coordinatesRequest `json:"coordinates"`
			} `json:"destination" binding:"required"`
			ServiceType     string `json:"serviceType" binding:"required,service_type"`
			TransportMode   string `json:"transportMode" binding:"omitempty,oneof=ROAD RAIL AIR"`
			CreatedByUserID int64  `json:"createdByUserId" binding:"required,min=1"`
			CategoryID      int64  `json:"categoryId" binding:"required,min=1"`
			StatusID        int64  `json:"statusId" binding:"required,min=1"`
			Description     string `json:"description" binding:"omitempty,safe_string"`
			Notes           string `json:"notes" binding:"omitempty,safe_string"`
			Wait            bool   `json:"wait"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		serviceType, err := domain.ParseServiceTier(req.ServiceType)
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		transportMode := req.TransportMode
		if transportMode == "" {
			transportMode = "ROAD"
		}

		cmd := application.SubmitOrderCommand{
			CorrelationID: req.CorrelationID,
			StoreID:       req.StoreID,
			Items:         toDomainItems(req.Items),
			Destination: application.OrderDestination{
				Address:      req.Destination.Address,
				City:         req.Destination.City,
				ContactName:  req.Destination.ContactName,
				ContactPhone: req.Destination.ContactPhone,
				ContactEmail: req.Destination.ContactEmail,
				Country:      req.Destination.Country,
			},
			ServiceType:     serviceType,
			TransportMode:   transportMode,
			CreatedByUserID: req.CreatedByUserID,
			CategoryID:      req.CategoryID,
			StatusID:        req.StatusID,
			Description:     req.Description,
			Notes:           req.Notes,
		}
		if req.Destination.Coordinates != nil {
			cmd.Destination.Coordinates = &domain.Coordinates{
				Latitude:  req.Destination.Coordinates.Latitude,
				Longitude: req.Destination.Coordinates.Longitude,
			}
		}

		submission, err := service.SubmitOrder(c.Request.Context(), cmd)
		if err != nil {
			respond(responder, err)
			return
		}

		if req.Wait {
			result, err := service.WaitForResult(c.Request.Context(), submission.CorrelationID)
			if err != nil {
				respond(responder, err)
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}

		c.JSON(http.StatusAccepted, submission)
	}
}

func getOrderStatusHandler(service *application.OrderService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		status, err := service.GetOrderStatus(c.Request.Context(), application.GetOrderStatusQuery{
			CorrelationID: c.Param("correlationId"),
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}
