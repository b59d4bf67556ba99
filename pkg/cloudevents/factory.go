package cloudevents

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for freight domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new FreightCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *FreightCloudEvent {
	return &FreightCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
	workflowID string,
) *FreightCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	event.WorkflowID = workflowID
	return event
}

// CreateQuoteComputedEvent creates a QuoteComputed event
func (f *EventFactory) CreateQuoteComputedEvent(
	ctx context.Context,
	data QuoteComputedData,
) *FreightCloudEvent {
	event := f.CreateEvent(ctx, QuoteComputed, "store/"+strconv.FormatInt(data.StoreID, 10), data)
	event.StoreID = strconv.FormatInt(data.StoreID, 10)
	return event
}

// CreateOrderCreatedEvent creates an OrderCreated event
func (f *EventFactory) CreateOrderCreatedEvent(
	ctx context.Context,
	data OrderCreatedData,
) *FreightCloudEvent {
	event := f.CreateEvent(ctx, OrderCreated, "order/"+strconv.FormatInt(data.OrderID, 10), data)
	event.CorrelationID = data.CorrelationID
	event.WorkflowID = data.CorrelationID
	return event
}

// CreateOrderFailedEvent creates an OrderFailed event
func (f *EventFactory) CreateOrderFailedEvent(
	ctx context.Context,
	data OrderFailedData,
) *FreightCloudEvent {
	event := f.CreateEvent(ctx, OrderFailed, "order-attempt/"+data.CorrelationID, data)
	event.CorrelationID = data.CorrelationID
	event.WorkflowID = data.CorrelationID
	return event
}
