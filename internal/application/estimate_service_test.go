package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/routing"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
	apperrors "github.com/logistics-platform/freight-service/pkg/errors"
	"github.com/logistics-platform/freight-service/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.DefaultConfig("estimate-test"))
}

// stubAddressResolver resolves from a fixed table
type stubAddressResolver struct {
	coords map[string]*domain.Coordinates
	err    error
}

func (s *stubAddressResolver) Resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.coords[address], nil
}

// stubOriginResolver returns one fixed origin
type stubOriginResolver struct {
	coords *domain.Coordinates
	err    error
}

func (s *stubOriginResolver) Resolve(ctx context.Context, storeID int64) (*domain.Coordinates, error) {
	return s.coords, s.err
}

// stubRouter returns a fixed routing result
type stubRouter struct {
	result routing.Result
}

func (s *stubRouter) RouteDistance(ctx context.Context, origin, destination domain.Coordinates) routing.Result {
	return s.result
}

// capturingSnapshots records saved snapshots in memory
type capturingSnapshots struct {
	mu    sync.Mutex
	saved []*domain.QuoteSnapshot
}

func (c *capturingSnapshots) Save(ctx context.Context, snapshot *domain.QuoteSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, snapshot)
	return nil
}

func (c *capturingSnapshots) FindRecentDegraded(ctx context.Context, limit int) ([]*domain.QuoteSnapshot, error) {
	return nil, nil
}

// capturingPublisher records published events in memory
type capturingPublisher struct {
	mu     sync.Mutex
	events []*cloudevents.FreightCloudEvent
	topics []string
}

func (c *capturingPublisher) PublishEvent(ctx context.Context, topic string, event *cloudevents.FreightCloudEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	c.topics = append(c.topics, topic)
	return nil
}

func newTestEstimateService(destinations AddressResolver, origins OriginResolver, router RouteResolver, snapshots domain.QuoteSnapshotRepository, producer EventPublisher) *EstimateService {
	return NewEstimateService(
		destinations,
		origins,
		router,
		domain.DefaultTariff(),
		snapshots,
		producer,
		cloudevents.NewEventFactory(cloudevents.SourceQuotes),
		nil,
		testLogger(),
	)
}

func TestComputeQuote_AllTiersShareBaseAndDistance(t *testing.T) {
	destinations := &stubAddressResolver{coords: map[string]*domain.Coordinates{
		"12 Hang Bac, Hanoi": {Latitude: 21.0285, Longitude: 105.8542},
	}}
	origins := &stubOriginResolver{coords: &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}}
	router := &stubRouter{result: routing.Result{DistanceKm: 40, Degraded: false}}
	snapshots := &capturingSnapshots{}
	producer := &capturingPublisher{}

	svc := newTestEstimateService(destinations, origins, router, snapshots, producer)

	quote, err := svc.ComputeQuote(context.Background(), ComputeQuoteCommand{
		StoreID:            7,
		DestinationAddress: "12 Hang Bac, Hanoi",
		Items: []domain.ShipmentItem{
			{ProductName: "Ceramic vase", Quantity: 2, WeightKg: 1.5, HeightCm: 30, WidthCm: 20, LengthCm: 40},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 62400.0, quote.BaseFee)
	assert.Equal(t, 40.0, quote.DistanceKm)
	assert.Equal(t, 87000.0, quote.DistanceFee)
	assert.Equal(t, "inner-city (0–50km)", quote.RegionLabel)
	assert.False(t, quote.DegradedRoute)
	require.Len(t, quote.Tiers, 5)

	fees := make(map[string]float64, len(quote.Tiers))
	for _, tier := range quote.Tiers {
		fees[tier.ServiceType] = tier.FinalFee
	}
	assert.Equal(t, 149400.0, fees["STANDARD"])
	assert.Equal(t, 136920.0, fees["SECOND_CLASS"])

	// Snapshot and event are recorded with the same numbers.
	require.Len(t, snapshots.saved, 1)
	assert.Equal(t, 149400.0, snapshots.saved[0].StandardFee)
	require.Len(t, producer.events, 1)
	assert.Equal(t, cloudevents.QuoteComputed, producer.events[0].Type)
	assert.Equal(t, "freight.quotes.events", producer.topics[0])
}

func TestComputeQuote_SkipsGeocodingWithProvidedCoords(t *testing.T) {
	// Resolver would fail if called.
	destinations := &stubAddressResolver{err: errors.New("geocoder down")}
	origins := &stubOriginResolver{coords: &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}}
	router := &stubRouter{result: routing.Result{DistanceKm: 10}}

	svc := newTestEstimateService(destinations, origins, router, nil, nil)

	quote, err := svc.ComputeQuote(context.Background(), ComputeQuoteCommand{
		StoreID:           7,
		DestinationCoords: &domain.Coordinates{Latitude: 21.0285, Longitude: 105.8542},
		Items:             []domain.ShipmentItem{{ProductName: "Lamp", Quantity: 1, WeightKg: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, quote.DistanceKm)
}

func TestComputeQuote_DestinationUnresolvable(t *testing.T) {
	destinations := &stubAddressResolver{coords: map[string]*domain.Coordinates{}}
	origins := &stubOriginResolver{coords: &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}}
	router := &stubRouter{}

	svc := newTestEstimateService(destinations, origins, router, nil, nil)

	_, err := svc.ComputeQuote(context.Background(), ComputeQuoteCommand{
		StoreID:            7,
		DestinationAddress: "gibberish ###",
		Items:              []domain.ShipmentItem{{ProductName: "Lamp", Quantity: 1, WeightKg: 2}},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeGeocodeUnavailable, appErr.Code)
}

func TestComputeQuote_OriginUnresolvable(t *testing.T) {
	destinations := &stubAddressResolver{coords: map[string]*domain.Coordinates{
		"12 Hang Bac, Hoan Kiem": {Latitude: 21.0285, Longitude: 105.8542},
	}}
	origins := &stubOriginResolver{}
	router := &stubRouter{}

	svc := newTestEstimateService(destinations, origins, router, nil, nil)

	_, err := svc.ComputeQuote(context.Background(), ComputeQuoteCommand{
		StoreID:            7,
		DestinationAddress: "12 Hang Bac, Hoan Kiem",
		Items:              []domain.ShipmentItem{{ProductName: "Lamp", Quantity: 1, WeightKg: 2}},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeGeocodeUnavailable, appErr.Code)
	assert.Contains(t, appErr.Message, "store origin")
	assert.Equal(t, "7", appErr.Details["storeId"])
}

func TestComputeQuote_DegradedRouteEmitsDegradedEvent(t *testing.T) {
	destinations := &stubAddressResolver{coords: map[string]*domain.Coordinates{
		"somewhere remote": {Latitude: 22.3364, Longitude: 103.8438},
	}}
	origins := &stubOriginResolver{coords: &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}}
	router := &stubRouter{result: routing.Result{DistanceKm: 200, Degraded: true}}
	producer := &capturingPublisher{}

	svc := newTestEstimateService(destinations, origins, router, nil, producer)

	quote, err := svc.ComputeQuote(context.Background(), ComputeQuoteCommand{
		StoreID:            7,
		DestinationAddress: "somewhere remote",
		Items: []domain.ShipmentItem{
			{ProductName: "Ceramic vase", Quantity: 2, WeightKg: 1.5, HeightCm: 30, WidthCm: 20, LengthCm: 40},
		},
	})
	require.NoError(t, err)

	assert.True(t, quote.DegradedRoute)
	assert.Equal(t, "inter-provincial (>150km)", quote.RegionLabel)

	fees := make(map[string]float64, len(quote.Tiers))
	for _, tier := range quote.Tiers {
		fees[tier.ServiceType] = tier.FinalFee
	}
	assert.Equal(t, 221120.0, fees["FIRST_CLASS"])

	require.Len(t, producer.events, 1)
	assert.Equal(t, cloudevents.QuoteDegraded, producer.events[0].Type)
}

func TestComputeQuote_InvalidItemsSkippedSilently(t *testing.T) {
	destinations := &stubAddressResolver{coords: map[string]*domain.Coordinates{
		"12 Hang Bac, Hanoi": {Latitude: 21.0285, Longitude: 105.8542},
	}}
	origins := &stubOriginResolver{coords: &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}}
	router := &stubRouter{result: routing.Result{DistanceKm: 40}}

	svc := newTestEstimateService(destinations, origins, router, nil, nil)

	quote, err := svc.ComputeQuote(context.Background(), ComputeQuoteCommand{
		StoreID:            7,
		DestinationAddress: "12 Hang Bac, Hanoi",
		Items: []domain.ShipmentItem{
			{ProductName: "Ceramic vase", Quantity: 2, WeightKg: 1.5, HeightCm: 30, WidthCm: 20, LengthCm: 40},
			{ProductName: "", Quantity: 1, WeightKg: 5},
			{ProductName: "Ghost", Quantity: 0, WeightKg: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 62400.0, quote.BaseFee)
}
