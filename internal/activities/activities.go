package activities

import (
	"context"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
	"github.com/logistics-platform/freight-service/internal/infrastructure/routing"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
	"github.com/logistics-platform/freight-service/pkg/logging"
)

// AddressResolver resolves free-text addresses to coordinates.
type AddressResolver interface {
	Resolve(ctx context.Context, address string) (*domain.Coordinates, error)
}

// StoreOriginResolver resolves a store's origin coordinates.
type StoreOriginResolver interface {
	Resolve(ctx context.Context, storeID int64) (*domain.Coordinates, error)
}

// RouteResolver measures routed distance between two coordinate pairs.
type RouteResolver interface {
	RouteDistance(ctx context.Context, origin, destination domain.Coordinates) routing.Result
}

// BackendGateway is the storefront backend surface the saga writes to.
type BackendGateway interface {
	CreateAddress(ctx context.Context, payload backend.AddressPayload) (*backend.Address, error)
	CreateProduct(ctx context.Context, payload backend.ProductPayload) (*backend.Product, error)
	CreateOrder(ctx context.Context, payload backend.OrderPayload) (*backend.Order, error)
	CreateOrderItem(ctx context.Context, payload backend.OrderItemPayload) (*backend.OrderItem, error)
	CreateDelivery(ctx context.Context, payload backend.DeliveryPayload) (*backend.Delivery, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.FreightCloudEvent) error
}

// GeoActivities contains activities for address and distance resolution.
type GeoActivities struct {
	destinations AddressResolver
	origins      StoreOriginResolver
	router       RouteResolver
	logger       *logging.Logger
}

// NewGeoActivities creates a new GeoActivities instance.
func NewGeoActivities(destinations AddressResolver, origins StoreOriginResolver, router RouteResolver, logger *logging.Logger) *GeoActivities {
	return &GeoActivities{
		destinations: destinations,
		origins:      origins,
		router:       router,
		logger:       logger,
	}
}

// OrderActivities contains activities that write backend entities for the
// order creation saga. Every create consults the saga journal before calling
// the backend so a resumed attempt reuses already-created records.
type OrderActivities struct {
	backend BackendGateway
	journal domain.JournalRepository
	events  *cloudevents.EventFactory
	bus     EventPublisher
	topic   string
	logger  *logging.Logger
}

// NewOrderActivities creates a new OrderActivities instance.
func NewOrderActivities(
	gateway BackendGateway,
	journal domain.JournalRepository,
	events *cloudevents.EventFactory,
	bus EventPublisher,
	topic string,
	logger *logging.Logger,
) *OrderActivities {
	return &OrderActivities{
		backend: gateway,
		journal: journal,
		events:  events,
		bus:     bus,
		topic:   topic,
		logger:  logger,
	}
}
