package activities

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
	"github.com/logistics-platform/freight-service/internal/workflows"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
)

// MockBackendGateway is a mock implementation of the storefront backend
type MockBackendGateway struct {
	mock.Mock
}

func (m *MockBackendGateway) CreateAddress(ctx context.Context, payload backend.AddressPayload) (*backend.Address, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Address), args.Error(1)
}

func (m *MockBackendGateway) CreateProduct(ctx context.Context, payload backend.ProductPayload) (*backend.Product, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Product), args.Error(1)
}

func (m *MockBackendGateway) CreateOrder(ctx context.Context, payload backend.OrderPayload) (*backend.Order, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Order), args.Error(1)
}

func (m *MockBackendGateway) CreateOrderItem(ctx context.Context, payload backend.OrderItemPayload) (*backend.OrderItem, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.OrderItem), args.Error(1)
}

func (m *MockBackendGateway) CreateDelivery(ctx context.Context, payload backend.DeliveryPayload) (*backend.Delivery, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Delivery), args.Error(1)
}

// fakeJournalRepo is an in-memory journal used to exercise the resume path
type fakeJournalRepo struct {
	mu       sync.Mutex
	journals map[string]*domain.SagaJournal
	saveErr  error
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{journals: make(map[string]*domain.SagaJournal)}
}

func (f *fakeJournalRepo) Save(ctx context.Context, journal *domain.SagaJournal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	journal.UpdatedAt = time.Now().UTC()
	if journal.CreatedAt.IsZero() {
		journal.CreatedAt = journal.UpdatedAt
	}
	stored := *journal
	f.journals[journal.CorrelationID] = &stored
	return nil
}

func (f *fakeJournalRepo) FindByCorrelationID(ctx context.Context, correlationID string) (*domain.SagaJournal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	journal, ok := f.journals[correlationID]
	if !ok {
		return nil, nil
	}
	found := *journal
	return &found, nil
}

// MockEventPublisher is a mock event bus
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, topic string, event *cloudevents.FreightCloudEvent) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func newTestOrderActivities(gateway BackendGateway, journal domain.JournalRepository, bus EventPublisher) *OrderActivities {
	return &OrderActivities{
		backend: gateway,
		journal: journal,
		events:  cloudevents.NewEventFactory(cloudevents.SourceOrders),
		bus:     bus,
		topic:   "freight.orders.events",
	}
}

func TestCreateAddress_CreatesAndJournals(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	gateway := new(MockBackendGateway)
	gateway.On("CreateAddress", mock.Anything, mock.Anything).Return(&backend.Address{ID: 11}, nil)

	journal := newFakeJournalRepo()
	acts := newTestOrderActivities(gateway, journal, new(MockEventPublisher))
	env.RegisterActivity(acts.CreateAddress)

	input := workflows.CreateAddressInput{
		CorrelationID: "corr-addr-1",
		Payload:       backend.AddressPayload{AddressType: "DELIVERY", Address: "12 Hang Bac", City: "Hanoi", Country: "VN"},
	}

	val, err := env.ExecuteActivity(acts.CreateAddress, input)
	require.NoError(t, err)

	var address backend.Address
	require.NoError(t, val.Get(&address))
	require.Equal(t, int64(11), address.ID)

	stored, err := journal.FindByCorrelationID(context.Background(), "corr-addr-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.AddressID)
	require.Equal(t, int64(11), *stored.AddressID)
	gateway.AssertNumberOfCalls(t, "CreateAddress", 1)
}

func TestCreateAddress_ReusesJournaledID(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	gateway := new(MockBackendGateway)

	journal := newFakeJournalRepo()
	addressID := int64(99)
	require.NoError(t, journal.Save(context.Background(), &domain.SagaJournal{
		CorrelationID: "corr-addr-2",
		Status:        domain.SagaStatusRunning,
		Step:          domain.StepCreatingAddress,
		AddressID:     &addressID,
	}))

	acts := newTestOrderActivities(gateway, journal, new(MockEventPublisher))
	env.RegisterActivity(acts.CreateAddress)

	val, err := env.ExecuteActivity(acts.CreateAddress, workflows.CreateAddressInput{CorrelationID: "corr-addr-2"})
	require.NoError(t, err)

	var address backend.Address
	require.NoError(t, val.Get(&address))
	require.Equal(t, int64(99), address.ID)
	gateway.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
}

func TestCreateProducts_ResumesAfterPartialProgress(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	gateway := new(MockBackendGateway)
	gateway.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p backend.ProductPayload) bool {
		return p.Name == "Lamp"
	})).Return(&backend.Product{ID: 22}, nil)
	gateway.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p backend.ProductPayload) bool {
		return p.Name == "Rug"
	})).Return(&backend.Product{ID: 23}, nil)

	// A previous attempt already created the first product.
	journal := newFakeJournalRepo()
	require.NoError(t, journal.Save(context.Background(), &domain.SagaJournal{
		CorrelationID: "corr-prod-1",
		Status:        domain.SagaStatusRunning,
		Step:          domain.StepCreatingProducts,
		ProductIDs:    []int64{21},
	}))

	acts := newTestOrderActivities(gateway, journal, new(MockEventPublisher))
	env.RegisterActivity(acts.CreateProducts)

	input := workflows.CreateProductsInput{
		CorrelationID: "corr-prod-1",
		Payloads: []backend.ProductPayload{
			{Name: "Vase"},
			{Name: "Lamp"},
			{Name: "Rug"},
		},
	}

	val, err := env.ExecuteActivity(acts.CreateProducts, input)
	require.NoError(t, err)

	var ids []int64
	require.NoError(t, val.Get(&ids))
	require.Equal(t, []int64{21, 22, 23}, ids)

	// The already-created product was not recreated.
	gateway.AssertNumberOfCalls(t, "CreateProduct", 2)
}

func TestCreateProducts_JournalsProgressBeforeFailing(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	gateway := new(MockBackendGateway)
	gateway.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p backend.ProductPayload) bool {
		return p.Name == "Vase"
	})).Return(&backend.Product{ID: 31}, nil)
	gateway.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p backend.ProductPayload) bool {
		return p.Name == "Lamp"
	})).Return(nil, errors.New("backend unavailable"))

	journal := newFakeJournalRepo()
	acts := newTestOrderActivities(gateway, journal, new(MockEventPublisher))
	env.RegisterActivity(acts.CreateProducts)

	input := workflows.CreateProductsInput{
		CorrelationID: "corr-prod-2",
		Payloads: []backend.ProductPayload{
			{Name: "Vase"},
			{Name: "Lamp"},
		},
	}

	_, err := env.ExecuteActivity(acts.CreateProducts, input)
	require.Error(t, err)

	// The first product's ID survived the failure, so a retry skips it.
	stored, findErr := journal.FindByCorrelationID(context.Background(), "corr-prod-2")
	require.NoError(t, findErr)
	require.NotNil(t, stored)
	require.Equal(t, []int64{31}, stored.ProductIDs)
}

func TestCreateDelivery_ReusesJournaledID(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	gateway := new(MockBackendGateway)

	journal := newFakeJournalRepo()
	deliveryID := int64(501)
	require.NoError(t, journal.Save(context.Background(), &domain.SagaJournal{
		CorrelationID: "corr-del-1",
		Status:        domain.SagaStatusRunning,
		Step:          domain.StepCreatingDelivery,
		DeliveryID:    &deliveryID,
	}))

	acts := newTestOrderActivities(gateway, journal, new(MockEventPublisher))
	env.RegisterActivity(acts.CreateDelivery)

	val, err := env.ExecuteActivity(acts.CreateDelivery, workflows.CreateDeliveryInput{CorrelationID: "corr-del-1"})
	require.NoError(t, err)

	var delivery backend.Delivery
	require.NoError(t, val.Get(&delivery))
	require.Equal(t, int64(501), delivery.ID)
	gateway.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
}

func TestRecordSagaState_PreservesCreatedAt(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	journal := newFakeJournalRepo()
	require.NoError(t, journal.Save(context.Background(), &domain.SagaJournal{
		CorrelationID: "corr-state-1",
		Status:        domain.SagaStatusRunning,
		Step:          domain.StepCreatingOrder,
	}))
	first, err := journal.FindByCorrelationID(context.Background(), "corr-state-1")
	require.NoError(t, err)

	acts := newTestOrderActivities(new(MockBackendGateway), journal, new(MockEventPublisher))
	env.RegisterActivity(acts.RecordSagaState)

	orderID := int64(301)
	input := workflows.SagaStateInput{
		Journal: domain.SagaJournal{
			CorrelationID: "corr-state-1",
			Status:        domain.SagaStatusFailed,
			Step:          domain.StepCreatingOrderItems,
			FailedStep:    domain.StepCreatingOrderItems,
			FailureReason: "backend unavailable",
			OrderID:       &orderID,
		},
	}

	_, err = env.ExecuteActivity(acts.RecordSagaState, input)
	require.NoError(t, err)

	stored, err := journal.FindByCorrelationID(context.Background(), "corr-state-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, domain.SagaStatusFailed, stored.Status)
	require.Equal(t, domain.StepCreatingOrderItems, stored.FailedStep)
	require.Equal(t, first.CreatedAt, stored.CreatedAt)
}

func TestPublishOrderEvent_Completed(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	bus := new(MockEventPublisher)
	var published *cloudevents.FreightCloudEvent
	bus.On("PublishEvent", mock.Anything, "freight.orders.events", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(*cloudevents.FreightCloudEvent)
		}).
		Return(nil)

	acts := newTestOrderActivities(new(MockBackendGateway), newFakeJournalRepo(), bus)
	env.RegisterActivity(acts.PublishOrderEvent)

	orderID := int64(301)
	deliveryID := int64(501)
	result := workflows.OrderCreationResult{
		CorrelationID: "corr-event-1",
		Status:        "completed",
		ServiceType:   string(domain.TierStandard),
		OrderID:       &orderID,
		DeliveryID:    &deliveryID,
		DeliveryFee:   149400,
		DistanceKm:    40,
	}

	_, err := env.ExecuteActivity(acts.PublishOrderEvent, result)
	require.NoError(t, err)

	require.NotNil(t, published)
	require.Equal(t, cloudevents.OrderCreated, published.Type)
	require.Equal(t, "corr-event-1", published.CorrelationID)
	require.Equal(t, "order/301", published.Subject)
}

func TestPublishOrderEvent_Failed(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	bus := new(MockEventPublisher)
	var published *cloudevents.FreightCloudEvent
	bus.On("PublishEvent", mock.Anything, "freight.orders.events", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(*cloudevents.FreightCloudEvent)
		}).
		Return(nil)

	acts := newTestOrderActivities(new(MockBackendGateway), newFakeJournalRepo(), bus)
	env.RegisterActivity(acts.PublishOrderEvent)

	addressID := int64(101)
	result := workflows.OrderCreationResult{
		CorrelationID: "corr-event-2",
		Status:        "failed",
		FailedStep:    domain.StepCreatingOrder,
		Error:         "store suspended",
		AddressID:     &addressID,
		ProductIDs:    []int64{201},
	}

	_, err := env.ExecuteActivity(acts.PublishOrderEvent, result)
	require.NoError(t, err)

	require.NotNil(t, published)
	require.Equal(t, cloudevents.OrderFailed, published.Type)
	require.Equal(t, "order-attempt/corr-event-2", published.Subject)
}
