package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
	"github.com/logistics-platform/freight-service/internal/workflows"
	"github.com/logistics-platform/freight-service/pkg/cloudevents"
)

// loadJournal fetches the journal for an order attempt, starting an empty one
// on first contact.
func (a *OrderActivities) loadJournal(ctx context.Context, correlationID string) (*domain.SagaJournal, error) {
	journal, err := a.journal.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saga journal: %w", err)
	}
	if journal == nil {
		journal = &domain.SagaJournal{
			CorrelationID: correlationID,
			Status:        domain.SagaStatusRunning,
			Step:          domain.StepCollectingInput,
		}
	}
	return journal, nil
}

// saveJournal persists journal progress. Failures are logged, not returned:
// losing one journal write risks a duplicated record on resume, while failing
// the step here would fail an order the backend already accepted.
func (a *OrderActivities) saveJournal(ctx context.Context, journal *domain.SagaJournal) {
	if err := a.journal.Save(ctx, journal); err != nil {
		activity.GetLogger(ctx).Warn("Failed to save saga journal",
			"correlationId", journal.CorrelationID,
			"step", journal.Step,
			"error", err,
		)
	}
}

// CreateAddress creates the destination address record, reusing the one from
// a previous attempt with the same correlation ID.
func (a *OrderActivities) CreateAddress(ctx context.Context, input workflows.CreateAddressInput) (*backend.Address, error) {
	logger := activity.GetLogger(ctx)

	journal, err := a.loadJournal(ctx, input.CorrelationID)
	if err != nil {
		return nil, err
	}
	if journal.AddressID != nil {
		logger.Info("Reusing address from previous attempt", "correlationId", input.CorrelationID, "addressId", *journal.AddressID)
		return &backend.Address{ID: *journal.AddressID}, nil
	}

	address, err := a.backend.CreateAddress(ctx, input.Payload)
	if err != nil {
		logger.Error("Failed to create address", "correlationId", input.CorrelationID, "error", err)
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	journal.AddressID = &address.ID
	journal.Step = domain.StepCreatingAddress
	a.saveJournal(ctx, journal)

	logger.Info("Address created", "correlationId", input.CorrelationID, "addressId", address.ID)
	return address, nil
}

// CreateProducts creates one temporary product per order line. Products are
// created sequentially and journaled one by one, so a resumed attempt picks
// up after the last one that succeeded.
func (a *OrderActivities) CreateProducts(ctx context.Context, input workflows.CreateProductsInput) ([]int64, error) {
	logger := activity.GetLogger(ctx)

	journal, err := a.loadJournal(ctx, input.CorrelationID)
	if err != nil {
		return nil, err
	}

	ids := journal.ProductIDs
	if len(ids) > 0 {
		logger.Info("Reusing products from previous attempt", "correlationId", input.CorrelationID, "count", len(ids))
	}

	for i := len(ids); i < len(input.Payloads); i++ {
		product, err := a.backend.CreateProduct(ctx, input.Payloads[i])
		if err != nil {
			logger.Error("Failed to create product", "correlationId", input.CorrelationID, "index", i, "error", err)
			return nil, fmt.Errorf("failed to create product %q: %w", input.Payloads[i].Name, err)
		}

		ids = append(ids, product.ID)
		journal.ProductIDs = ids
		journal.Step = domain.StepCreatingProducts
		a.saveJournal(ctx, journal)
	}

	logger.Info("Products created", "correlationId", input.CorrelationID, "count", len(ids))
	return ids, nil
}

// CreateOrder creates the order record, reusing the one from a previous
// attempt with the same correlation ID.
func (a *OrderActivities) CreateOrder(ctx context.Context, input workflows.CreateOrderInput) (*backend.Order, error) {
	logger := activity.GetLogger(ctx)

	journal, err := a.loadJournal(ctx, input.CorrelationID)
	if err != nil {
		return nil, err
	}
	if journal.OrderID != nil {
		logger.Info("Reusing order from previous attempt", "correlationId", input.CorrelationID, "orderId", *journal.OrderID)
		return &backend.Order{ID: *journal.OrderID}, nil
	}

	order, err := a.backend.CreateOrder(ctx, input.Payload)
	if err != nil {
		logger.Error("Failed to create order", "correlationId", input.CorrelationID, "error", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	journal.OrderID = &order.ID
	journal.Step = domain.StepCreatingOrder
	a.saveJournal(ctx, journal)

	logger.Info("Order created", "correlationId", input.CorrelationID, "orderId", order.ID)
	return order, nil
}

// CreateOrderItems creates one order item per line, journaled one by one like
// products.
func (a *OrderActivities) CreateOrderItems(ctx context.Context, input workflows.CreateOrderItemsInput) ([]int64, error) {
	logger := activity.GetLogger(ctx)

	journal, err := a.loadJournal(ctx, input.CorrelationID)
	if err != nil {
		return nil, err
	}

	ids := journal.OrderItemIDs
	for i := len(ids); i < len(input.Payloads); i++ {
		item, err := a.backend.CreateOrderItem(ctx, input.Payloads[i])
		if err != nil {
			logger.Error("Failed to create order item", "correlationId", input.CorrelationID, "index", i, "error", err)
			return nil, fmt.Errorf("failed to create order item %d: %w", i, err)
		}

		ids = append(ids, item.ID)
		journal.OrderItemIDs = ids
		journal.Step = domain.StepCreatingOrderItems
		a.saveJournal(ctx, journal)
	}

	logger.Info("Order items created", "correlationId", input.CorrelationID, "count", len(ids))
	return ids, nil
}

// CreateDelivery creates the delivery record, reusing the one from a previous
// attempt with the same correlation ID.
func (a *OrderActivities) CreateDelivery(ctx context.Context, input workflows.CreateDeliveryInput) (*backend.Delivery, error) {
	logger := activity.GetLogger(ctx)

	journal, err := a.loadJournal(ctx, input.CorrelationID)
	if err != nil {
		return nil, err
	}
	if journal.DeliveryID != nil {
		logger.Info("Reusing delivery from previous attempt", "correlationId", input.CorrelationID, "deliveryId", *journal.DeliveryID)
		return &backend.Delivery{ID: *journal.DeliveryID}, nil
	}

	delivery, err := a.backend.CreateDelivery(ctx, input.Payload)
	if err != nil {
		logger.Error("Failed to create delivery", "correlationId", input.CorrelationID, "error", err)
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}

	journal.DeliveryID = &delivery.ID
	journal.Step = domain.StepCreatingDelivery
	a.saveJournal(ctx, journal)

	logger.Info("Delivery created", "correlationId", input.CorrelationID, "deliveryId", delivery.ID)
	return delivery, nil
}

// RecordSagaState persists the workflow's view of the attempt, merging over
// any journal rows the create activities already wrote.
func (a *OrderActivities) RecordSagaState(ctx context.Context, input workflows.SagaStateInput) error {
	existing, err := a.journal.FindByCorrelationID(ctx, input.Journal.CorrelationID)
	if err != nil {
		return fmt.Errorf("failed to load saga journal: %w", err)
	}

	journal := input.Journal
	if existing != nil {
		journal.CreatedAt = existing.CreatedAt
	}

	if err := a.journal.Save(ctx, &journal); err != nil {
		return fmt.Errorf("failed to record saga state: %w", err)
	}
	return nil
}

// PublishOrderEvent emits an OrderCreated or OrderFailed event for the
// attempt. Called best-effort from the workflow.
func (a *OrderActivities) PublishOrderEvent(ctx context.Context, result workflows.OrderCreationResult) error {
	logger := activity.GetLogger(ctx)

	var event *cloudevents.FreightCloudEvent
	if result.Status == "completed" {
		event = a.events.CreateOrderCreatedEvent(ctx, cloudevents.OrderCreatedData{
			CorrelationID: result.CorrelationID,
			OrderID:       *result.OrderID,
			DeliveryID:    *result.DeliveryID,
			ServiceType:   result.ServiceType,
			DeliveryFee:   result.DeliveryFee,
			DistanceKm:    result.DistanceKm,
		})
	} else {
		event = a.events.CreateOrderFailedEvent(ctx, cloudevents.OrderFailedData{
			CorrelationID: result.CorrelationID,
			FailedStep:    string(result.FailedStep),
			Reason:        result.Error,
			AddressID:     result.AddressID,
			ProductIDs:    result.ProductIDs,
			OrderID:       result.OrderID,
		})
	}

	if err := a.bus.PublishEvent(ctx, a.topic, event); err != nil {
		logger.Warn("Failed to publish order event", "correlationId", result.CorrelationID, "type", event.Type, "error", err)
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	logger.Info("Order event published", "correlationId", result.CorrelationID, "type", event.Type)
	return nil
}
