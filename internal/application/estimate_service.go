package application

import (
	"context"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/routing"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
	"github.com/logistics-platform/freight-service/pkg/errors"
	"github.com/logistics-platform/freight-service/pkg/kafka"
	"github.com/logistics-platform/freight-service/pkg/logging"
)

// AddressResolver resolves free-text addresses to coordinates.
type AddressResolver interface {
	Resolve(ctx context.Context, address string) (*domain.Coordinates, error)
}

// OriginResolver resolves a store's origin coordinates.
type OriginResolver interface {
	Resolve(ctx context.Context, storeID int64) (*domain.Coordinates, error)
}

// RouteResolver measures routed distance between two coordinate pairs.
type RouteResolver interface {
	RouteDistance(ctx context.Context, origin, destination domain.Coordinates) routing.Result
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.FreightCloudEvent) error
}

// QuoteRecorder records quote metrics.
type QuoteRecorder interface {
	RecordQuoteComputed(degraded bool, standardTotal float64)
}

// EstimateService computes fee quotes for shipments
type EstimateService struct {
	destinations AddressResolver
	origins      OriginResolver
	router       RouteResolver
	tariff       domain.Tariff
	snapshots    domain.QuoteSnapshotRepository
	producer     EventPublisher
	eventFactory *cloudevents.EventFactory
	recorder     QuoteRecorder
	logger       *logging.Logger
}

// NewEstimateService creates a new EstimateService
func NewEstimateService(
	destinations AddressResolver,
	origins OriginResolver,
	router RouteResolver,
	tariff domain.Tariff,
	snapshots domain.QuoteSnapshotRepository,
	producer EventPublisher,
	eventFactory *cloudevents.EventFactory,
	recorder QuoteRecorder,
	logger *logging.Logger,
) *EstimateService {
	return &EstimateService{
		destinations: destinations,
		origins:      origins,
		router:       router,
		tariff:       tariff,
		snapshots:    snapshots,
		producer:     producer,
		eventFactory: eventFactory,
		recorder:     recorder,
		logger:       logger,
	}
}

// Tariff returns the tariff this service quotes with. Order submissions carry
// the same tariff so persisted fees match the quote.
func (s *EstimateService) Tariff() domain.Tariff {
	return s.tariff
}

// ComputeQuote resolves both endpoints, measures the distance and evaluates
// every service tier against the same base and distance fee.
func (s *EstimateService) ComputeQuote(ctx context.Context, cmd ComputeQuoteCommand) (*QuoteDTO, error) {
	destination := cmd.DestinationCoords
	if destination == nil {
		coords, err := s.destinations.Resolve(ctx, cmd.DestinationAddress)
		if err != nil {
			s.logger.WithError(err).Error("Failed to geocode destination", "address", cmd.DestinationAddress)
			return nil, errors.ErrGeocodeUnavailable(cmd.DestinationAddress).Wrap(err)
		}
		destination = coords
	}
	if destination == nil {
		return nil, errors.ErrGeocodeUnavailable(cmd.DestinationAddress)
	}

	origin, err := s.origins.Resolve(ctx, cmd.StoreID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve store origin", "storeId", cmd.StoreID)
		return nil, errors.ErrServiceUnavailable("store origin").Wrap(err)
	}
	if origin == nil {
		return nil, errors.ErrOriginUnavailable(cmd.StoreID)
	}

	route := s.router.RouteDistance(ctx, *origin, *destination)

	baseFee := s.tariff.BaseFee(cmd.Items)
	distanceFee := s.tariff.DistanceFee(route.DistanceKm)
	quote := domain.QuoteAllTiers(baseFee, route.DistanceKm, distanceFee, route.Degraded)

	s.recordQuote(ctx, cmd.StoreID, quote)

	s.logger.Info("Quote computed",
		"storeId", cmd.StoreID,
		"distanceKm", route.DistanceKm,
		"degraded", route.Degraded,
		"baseFee", baseFee,
	)

	return ToQuoteDTO(cmd.StoreID, quote), nil
}

// recordQuote persists the snapshot, emits the event and updates metrics.
// All best-effort: a quote is never failed by its own bookkeeping.
func (s *EstimateService) recordQuote(ctx context.Context, storeID int64, quote domain.Quote) {
	standardFee, _ := quote.TierFee(domain.TierStandard)

	if s.recorder != nil {
		s.recorder.RecordQuoteComputed(quote.DegradedRoute, standardFee)
	}

	if s.snapshots != nil {
		snapshot := &domain.QuoteSnapshot{
			StoreID:       storeID,
			DistanceKm:    quote.DistanceKm,
			DegradedRoute: quote.DegradedRoute,
			RegionLabel:   quote.Distance.RegionLabel,
			BaseFee:       quote.BaseFee,
			DistanceFee:   quote.Distance.FeeAmount,
			StandardFee:   standardFee,
		}
		if err := s.snapshots.Save(ctx, snapshot); err != nil {
			s.logger.WithError(err).Warn("Failed to save quote snapshot", "storeId", storeID)
		}
	}

	if s.producer != nil && s.eventFactory != nil {
		tierTotals := make(map[string]float64, len(quote.Tiers))
		for _, tier := range quote.Tiers {
			tierTotals[string(tier.Tier)] = tier.FinalFee
		}

		event := s.eventFactory.CreateQuoteComputedEvent(ctx, cloudevents.QuoteComputedData{
			StoreID:       storeID,
			DistanceKm:    quote.DistanceKm,
			DegradedRoute: quote.DegradedRoute,
			RegionLabel:   quote.Distance.RegionLabel,
			BaseFee:       quote.BaseFee,
			DistanceFee:   quote.Distance.FeeAmount,
			TierTotals:    tierTotals,
		})
		if quote.DegradedRoute {
			event.Type = cloudevents.QuoteDegraded
		}

		if err := s.producer.PublishEvent(ctx, kafka.Topics.QuoteEvents, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish quote event", "storeId", storeID)
		}
	}
}
