package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
)

// registerActivityStubs declares each activity's name and signature with the
// test environment so OnActivity can mock them by name. The stub bodies only
// run for activities a test leaves unmocked, and then they fail the workflow.
func registerActivityStubs(env *testsuite.TestWorkflowEnvironment) {
	errNotMocked := errors.New("activity not mocked")
	register := func(name string, fn interface{}) {
		env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	register("ResolveDestination", func(ctx context.Context, address string) (*domain.Coordinates, error) {
		return nil, errNotMocked
	})
	register("ResolveOrigin", func(ctx context.Context, storeID int64) (*domain.Coordinates, error) {
		return nil, errNotMocked
	})
	register("ResolveDistance", func(ctx context.Context, input DistanceInput) (DistanceResult, error) {
		return DistanceResult{}, errNotMocked
	})
	register("CreateAddress", func(ctx context.Context, input CreateAddressInput) (*backend.Address, error) {
		return nil, errNotMocked
	})
	register("CreateProducts", func(ctx context.Context, input CreateProductsInput) ([]int64, error) {
		return nil, errNotMocked
	})
	register("CreateOrder", func(ctx context.Context, input CreateOrderInput) (*backend.Order, error) {
		return nil, errNotMocked
	})
	register("CreateOrderItems", func(ctx context.Context, input CreateOrderItemsInput) ([]int64, error) {
		return nil, errNotMocked
	})
	register("CreateDelivery", func(ctx context.Context, input CreateDeliveryInput) (*backend.Delivery, error) {
		return nil, errNotMocked
	})
	register("RecordSagaState", func(ctx context.Context, input SagaStateInput) error {
		return errNotMocked
	})
	register("PublishOrderEvent", func(ctx context.Context, result OrderCreationResult) error {
		return errNotMocked
	})
}

func createTestOrderInput() OrderCreationInput {
	return OrderCreationInput{
		CorrelationID: "corr-test-001",
		StoreID:       7,
		Items: []domain.ShipmentItem{
			{
				ProductName: "Ceramic vase",
				Quantity:    2,
				WeightKg:    1.5,
				HeightCm:    30,
				WidthCm:     20,
				LengthCm:    40,
				UnitPrice:   120000,
			},
		},
		Destination: DestinationInput{
			Address:      "12 Hang Bac, Hoan Kiem",
			City:         "Hanoi",
			ContactName:  "Nguyen Van A",
			ContactPhone: "+84901234567",
			Country:      "VN",
		},
		ServiceType:     domain.TierStandard,
		TransportMode:   "ROAD",
		CreatedByUserID: 42,
		CategoryID:      3,
		StatusID:        1,
		Tariff:          domain.DefaultTariff(),
	}
}

func TestOrderCreationWorkflow_Success(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerActivityStubs(env)

	dest := &domain.Coordinates{Latitude: 21.0285, Longitude: 105.8542}
	origin := &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}

	env.OnActivity("ResolveDestination", mock.Anything, mock.Anything).Return(dest, nil)
	env.OnActivity("ResolveOrigin", mock.Anything, mock.Anything).Return(origin, nil)
	env.OnActivity("ResolveDistance", mock.Anything, mock.Anything).Return(DistanceResult{DistanceKm: 40, Degraded: false}, nil)
	env.OnActivity("CreateAddress", mock.Anything, mock.Anything).Return(&backend.Address{ID: 101}, nil)
	env.OnActivity("CreateProducts", mock.Anything, mock.Anything).Return([]int64{201}, nil)
	env.OnActivity("CreateOrder", mock.Anything, mock.Anything).Return(&backend.Order{ID: 301}, nil)
	env.OnActivity("CreateOrderItems", mock.Anything, mock.Anything).Return([]int64{401}, nil)
	env.OnActivity("CreateDelivery", mock.Anything, mock.Anything).Return(&backend.Delivery{ID: 501}, nil)
	env.OnActivity("RecordSagaState", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrderCreationWorkflow, createTestOrderInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result OrderCreationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "completed", result.Status)
	require.NotNil(t, result.AddressID)
	require.Equal(t, int64(101), *result.AddressID)
	require.Equal(t, []int64{201}, result.ProductIDs)
	require.NotNil(t, result.OrderID)
	require.Equal(t, int64(301), *result.OrderID)
	require.Equal(t, []int64{401}, result.OrderItemIDs)
	require.NotNil(t, result.DeliveryID)
	require.Equal(t, int64(501), *result.DeliveryID)
	require.Equal(t, 40.0, result.DistanceKm)
	require.False(t, result.DegradedRoute)

	// 62400 base at STANDARD plus 40km inner-city distance fee.
	require.Equal(t, 149400.0, result.DeliveryFee)
	require.Equal(t, "inner-city (0–50km)", result.RegionLabel)
}

func TestOrderCreationWorkflow_SkipsGeocodingWhenCoordinatesProvided(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerActivityStubs(env)

	origin := &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}

	// ResolveDestination is deliberately not mocked: calling it would fail
	// the workflow, so a completed run proves it was skipped.
	env.OnActivity("ResolveOrigin", mock.Anything, mock.Anything).Return(origin, nil)
	env.OnActivity("ResolveDistance", mock.Anything, mock.Anything).Return(DistanceResult{DistanceKm: 12, Degraded: false}, nil)
	env.OnActivity("CreateAddress", mock.Anything, mock.Anything).Return(&backend.Address{ID: 102}, nil)
	env.OnActivity("CreateProducts", mock.Anything, mock.Anything).Return([]int64{202}, nil)
	env.OnActivity("CreateOrder", mock.Anything, mock.Anything).Return(&backend.Order{ID: 302}, nil)
	env.OnActivity("CreateOrderItems", mock.Anything, mock.Anything).Return([]int64{402}, nil)
	env.OnActivity("CreateDelivery", mock.Anything, mock.Anything).Return(&backend.Delivery{ID: 502}, nil)
	env.OnActivity("RecordSagaState", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	input := createTestOrderInput()
	input.Destination.Coordinates = &domain.Coordinates{Latitude: 21.0285, Longitude: 105.8542}

	env.ExecuteWorkflow(OrderCreationWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result OrderCreationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "completed", result.Status)
}

func TestOrderCreationWorkflow_DestinationUnresolved(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerActivityStubs(env)

	var noCoords *domain.Coordinates
	env.OnActivity("ResolveDestination", mock.Anything, mock.Anything).Return(noCoords, nil)
	env.OnActivity("RecordSagaState", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrderCreationWorkflow, createTestOrderInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result OrderCreationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "failed", result.Status)
	require.Equal(t, domain.StepResolvingAddress, result.FailedStep)
	require.Contains(t, result.Error, "coordinates unavailable")
	require.Nil(t, result.AddressID)
	require.Nil(t, result.OrderID)
}

func TestOrderCreationWorkflow_OrderStepFailureKeepsPartialIDs(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerActivityStubs(env)

	dest := &domain.Coordinates{Latitude: 21.0285, Longitude: 105.8542}
	origin := &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}

	env.OnActivity("ResolveDestination", mock.Anything, mock.Anything).Return(dest, nil)
	env.OnActivity("ResolveOrigin", mock.Anything, mock.Anything).Return(origin, nil)
	env.OnActivity("ResolveDistance", mock.Anything, mock.Anything).Return(DistanceResult{DistanceKm: 40, Degraded: false}, nil)
	env.OnActivity("CreateAddress", mock.Anything, mock.Anything).Return(&backend.Address{ID: 103}, nil)
	env.OnActivity("CreateProducts", mock.Anything, mock.Anything).Return([]int64{203, 204}, nil)

	orderErr := temporal.NewApplicationError("order rejected: store suspended", "BackendError", nil)
	env.OnActivity("CreateOrder", mock.Anything, mock.Anything).Return(nil, orderErr)

	env.OnActivity("RecordSagaState", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrderCreationWorkflow, createTestOrderInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result OrderCreationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "failed", result.Status)
	require.Equal(t, domain.StepCreatingOrder, result.FailedStep)

	// Address and products created before the failure stay created.
	require.NotNil(t, result.AddressID)
	require.Equal(t, int64(103), *result.AddressID)
	require.Equal(t, []int64{203, 204}, result.ProductIDs)
	require.Nil(t, result.OrderID)
	require.Nil(t, result.DeliveryID)
}

func TestOrderCreationWorkflow_OrderItemFeesAreBaseOnly(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerActivityStubs(env)

	dest := &domain.Coordinates{Latitude: 21.0285, Longitude: 105.8542}
	origin := &domain.Coordinates{Latitude: 21.0362, Longitude: 105.7905}

	input := createTestOrderInput()
	input.ServiceType = domain.TierFirstClass
	input.Items = append(input.Items,
		domain.ShipmentItem{ProductName: "Glass lamp", Quantity: 1, WeightKg: 2, HeightCm: 10, WidthCm: 10, LengthCm: 10, Fragile: true, UnitPrice: 250000},
		domain.ShipmentItem{ProductName: "Empty row", Quantity: 0, WeightKg: 1},
	)

	env.OnActivity("ResolveDestination", mock.Anything, mock.Anything).Return(dest, nil)
	env.OnActivity("ResolveOrigin", mock.Anything, mock.Anything).Return(origin, nil)
	env.OnActivity("ResolveDistance", mock.Anything, mock.Anything).Return(DistanceResult{DistanceKm: 40, Degraded: false}, nil)
	env.OnActivity("CreateAddress", mock.Anything, mock.Anything).Return(&backend.Address{ID: 105}, nil)
	env.OnActivity("CreateProducts", mock.Anything, mock.Anything).Return([]int64{206, 207}, nil)
	env.OnActivity("CreateOrder", mock.Anything, mock.Anything).Return(&backend.Order{ID: 305}, nil)

	var captured CreateOrderItemsInput
	env.OnActivity("CreateOrderItems", mock.Anything, mock.MatchedBy(func(in CreateOrderItemsInput) bool {
		captured = in
		return true
	})).Return([]int64{405, 406}, nil)

	env.OnActivity("CreateDelivery", mock.Anything, mock.Anything).Return(&backend.Delivery{ID: 505}, nil)
	env.OnActivity("RecordSagaState", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(OrderCreationWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// The zero-quantity row is skipped; the two valid items each carry the
	// fee computed from their own weight, volume and fragility alone.
	require.Len(t, captured.Payloads, 2)
	require.Equal(t, int64(206), captured.Payloads[0].ProductID)
	require.Equal(t, int64(207), captured.Payloads[1].ProductID)

	// max(1.5kg, 4.8kg volumetric) × 6500 × qty 2
	require.Equal(t, 62400.0, captured.Payloads[0].ShippingFee)
	// max(2kg, 0.2kg volumetric) × 6500 × 1.3 fragile
	require.Equal(t, 16900.0, captured.Payloads[1].ShippingFee)

	// The FIRST_CLASS multiplier lands on the delivery total only:
	// round((62400 + 16900) × 1.3 + 87000).
	var result OrderCreationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 190090.0, result.DeliveryFee)
}

func TestOrderCreationWorkflow_DegradedRouteFlowsThrough(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerActivityStubs(env)

	dest := &domain.Coordinates{Latitude: 21.0285, Longitude: 105.8542}
	origin := &domain.Coordinates{Latitude: 10.7769, Longitude: 106.7009}

	env.OnActivity("ResolveDestination", mock.Anything, mock.Anything).Return(dest, nil)
	env.OnActivity("ResolveOrigin", mock.Anything, mock.Anything).Return(origin, nil)
	env.OnActivity("ResolveDistance", mock.Anything, mock.Anything).Return(DistanceResult{DistanceKm: 200, Degraded: true}, nil)
	env.OnActivity("CreateAddress", mock.Anything, mock.Anything).Return(&backend.Address{ID: 104}, nil)
	env.OnActivity("CreateProducts", mock.Anything, mock.Anything).Return([]int64{205}, nil)
	env.OnActivity("CreateOrder", mock.Anything, mock.Anything).Return(&backend.Order{ID: 304}, nil)
	env.OnActivity("CreateOrderItems", mock.Anything, mock.Anything).Return([]int64{404}, nil)
	env.OnActivity("CreateDelivery", mock.Anything, mock.Anything).Return(&backend.Delivery{ID: 504}, nil)
	env.OnActivity("RecordSagaState", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	input := createTestOrderInput()
	input.ServiceType = domain.TierFirstClass

	env.ExecuteWorkflow(OrderCreationWorkflow, input)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result OrderCreationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "completed", result.Status)
	require.True(t, result.DegradedRoute)
	require.Equal(t, "inter-provincial (>150km)", result.RegionLabel)

	// 62400 base at FIRST_CLASS plus 200km inter-provincial distance fee.
	require.Equal(t, 221120.0, result.DeliveryFee)
}
