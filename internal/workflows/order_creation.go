package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
)

// Activity timeouts. Backend creates get more room than the geo lookups.
const (
	GeoActivityTimeout     = 10 * time.Second
	BackendActivityTimeout = 30 * time.Second
	JournalActivityTimeout = 10 * time.Second
)

// DestinationInput is the destination address as entered by the customer.
// Coordinates are present when the estimate flow already resolved them; the
// workflow resolves them otherwise.
type DestinationInput struct {
	Address      string              `json:"address"`
	City         string              `json:"city"`
	ContactName  string              `json:"contactName"`
	ContactPhone string              `json:"contactPhone"`
	ContactEmail string              `json:"contactEmail,omitempty"`
	Country      string              `json:"country"`
	Coordinates  *domain.Coordinates `json:"coordinates,omitempty"`
}

// OrderCreationInput is the input for the order creation workflow. The tariff
// is captured at submission time so fee recomputation inside the workflow is
// deterministic and matches the estimate the customer saw.
type OrderCreationInput struct {
	CorrelationID   string                `json:"correlationId"`
	StoreID         int64                 `json:"storeId"`
	Items           []domain.ShipmentItem `json:"items"`
	Destination     DestinationInput      `json:"destination"`
	ServiceType     domain.ServiceTier    `json:"serviceType"`
	TransportMode   string                `json:"transportMode"`
	CreatedByUserID int64                 `json:"createdByUserId"`
	CategoryID      int64                 `json:"categoryId"`
	StatusID        int64                 `json:"statusId"`
	Description     string                `json:"description,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Tariff          domain.Tariff         `json:"tariff"`
}

// OrderCreationResult reports the outcome of an order attempt. A failed
// attempt still returns the IDs of every entity created before the failing
// step; nothing is compensated or rolled back.
type OrderCreationResult struct {
	CorrelationID string          `json:"correlationId"`
	Status        string          `json:"status"`
	ServiceType   string          `json:"serviceType"`
	FailedStep    domain.SagaStep `json:"failedStep,omitempty"`
	Error         string          `json:"error,omitempty"`

	AddressID    *int64  `json:"addressId,omitempty"`
	ProductIDs   []int64 `json:"productIds,omitempty"`
	OrderID      *int64  `json:"orderId,omitempty"`
	OrderItemIDs []int64 `json:"orderItemIds,omitempty"`
	DeliveryID   *int64  `json:"deliveryId,omitempty"`

	DistanceKm    float64 `json:"distanceKm"`
	DegradedRoute bool    `json:"degradedRoute"`
	RegionLabel   string  `json:"regionLabel"`
	DeliveryFee   float64 `json:"deliveryFee"`
}

// DistanceInput is the input for the ResolveDistance activity.
type DistanceInput struct {
	Origin      domain.Coordinates `json:"origin"`
	Destination domain.Coordinates `json:"destination"`
}

// DistanceResult is the output of the ResolveDistance activity.
type DistanceResult struct {
	DistanceKm float64 `json:"distanceKm"`
	Degraded   bool    `json:"degraded"`
}

// CreateAddressInput is the input for the CreateAddress activity.
type CreateAddressInput struct {
	CorrelationID string                 `json:"correlationId"`
	Payload       backend.AddressPayload `json:"payload"`
}

// CreateProductsInput is the input for the CreateProducts activity.
type CreateProductsInput struct {
	CorrelationID string                   `json:"correlationId"`
	Payloads      []backend.ProductPayload `json:"payloads"`
}

// CreateOrderInput is the input for the CreateOrder activity.
type CreateOrderInput struct {
	CorrelationID string               `json:"correlationId"`
	Payload       backend.OrderPayload `json:"payload"`
}

// CreateOrderItemsInput is the input for the CreateOrderItems activity.
type CreateOrderItemsInput struct {
	CorrelationID string                     `json:"correlationId"`
	Payloads      []backend.OrderItemPayload `json:"payloads"`
}

// CreateDeliveryInput is the input for the CreateDelivery activity.
type CreateDeliveryInput struct {
	CorrelationID string                  `json:"correlationId"`
	Payload       backend.DeliveryPayload `json:"payload"`
}

// SagaStateInput is the input for the RecordSagaState activity.
type SagaStateInput struct {
	Journal domain.SagaJournal `json:"journal"`
}

// OrderCreationWorkflow drives the sequential creation of an Address,
// Products, an Order, OrderItems and a Delivery record against the storefront
// backend. Steps never run in parallel because each payload references
// server-assigned IDs from the previous response. Failed steps are not
// retried automatically and there is no compensation: the workflow reports
// the failed step and the partial IDs, and a resubmission with the same
// correlation ID resumes from the journal without duplicating records.
func OrderCreationWorkflow(ctx workflow.Context, input OrderCreationInput) (*OrderCreationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting order creation workflow", "correlationId", input.CorrelationID)

	result := &OrderCreationResult{
		CorrelationID: input.CorrelationID,
		Status:        "in_progress",
		ServiceType:   string(input.ServiceType),
	}

	// No automatic retry: a failed backend call fails its step.
	noRetry := &temporal.RetryPolicy{MaximumAttempts: 1}

	geoCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: GeoActivityTimeout,
		RetryPolicy:         noRetry,
	})
	backendCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: BackendActivityTimeout,
		RetryPolicy:         noRetry,
	})
	journalCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: JournalActivityTimeout,
		RetryPolicy:         noRetry,
	})

	fail := func(step domain.SagaStep, err error) (*OrderCreationResult, error) {
		logger.Error("Order creation step failed",
			"correlationId", input.CorrelationID,
			"step", step,
			"error", err,
		)
		result.Status = "failed"
		result.FailedStep = step
		result.Error = err.Error()

		recordSagaState(journalCtx, input, result)
		publishFailureEvent(journalCtx, input, result)

		return result, nil
	}

	// ========================================
	// Step 1: Resolve destination coordinates
	// ========================================
	destination := input.Destination.Coordinates
	if destination == nil {
		err := workflow.ExecuteActivity(geoCtx, "ResolveDestination", input.Destination.Address).Get(geoCtx, &destination)
		if err != nil {
			return fail(domain.StepResolvingAddress, err)
		}
	}
	if destination == nil {
		return fail(domain.StepResolvingAddress, fmt.Errorf("destination coordinates unavailable for %q", input.Destination.Address))
	}

	// ========================================
	// Step 2: Resolve origin and route distance
	// ========================================
	var origin *domain.Coordinates
	if err := workflow.ExecuteActivity(geoCtx, "ResolveOrigin", input.StoreID).Get(geoCtx, &origin); err != nil {
		return fail(domain.StepResolvingAddress, err)
	}
	if origin == nil {
		return fail(domain.StepResolvingAddress, fmt.Errorf("origin coordinates unavailable for store %d", input.StoreID))
	}

	var distance DistanceResult
	err := workflow.ExecuteActivity(geoCtx, "ResolveDistance", DistanceInput{
		Origin:      *origin,
		Destination: *destination,
	}).Get(geoCtx, &distance)
	if err != nil {
		return fail(domain.StepResolvingAddress, err)
	}

	result.DistanceKm = distance.DistanceKm
	result.DegradedRoute = distance.Degraded

	// Fees are recomputed here with the same tariff the estimate used, so
	// the persisted amounts match the quote.
	validItems := domain.ValidItems(input.Items)
	baseFee := input.Tariff.BaseFee(validItems)
	distanceFee := input.Tariff.DistanceFee(distance.DistanceKm)
	deliveryFee := domain.FinalFee(baseFee, input.ServiceType, distanceFee.FeeAmount)

	result.RegionLabel = distanceFee.RegionLabel
	result.DeliveryFee = deliveryFee

	// ========================================
	// Step 3: Create destination address
	// ========================================
	var address backend.Address
	err = workflow.ExecuteActivity(backendCtx, "CreateAddress", CreateAddressInput{
		CorrelationID: input.CorrelationID,
		Payload: backend.AddressPayload{
			AddressType:  "DELIVERY",
			Address:      input.Destination.Address,
			City:         input.Destination.City,
			ContactName:  input.Destination.ContactName,
			ContactPhone: input.Destination.ContactPhone,
			ContactEmail: input.Destination.ContactEmail,
			Country:      input.Destination.Country,
			Latitude:     &destination.Latitude,
			Longitude:    &destination.Longitude,
		},
	}).Get(backendCtx, &address)
	if err != nil {
		return fail(domain.StepCreatingAddress, err)
	}
	result.AddressID = &address.ID

	// ========================================
	// Step 4: Create products
	// ========================================
	productPayloads := make([]backend.ProductPayload, 0, len(validItems))
	for _, item := range validItems {
		productPayloads = append(productPayloads, backend.ProductPayload{
			Name:            item.ProductName,
			Weight:          item.WeightKg,
			Volume:          item.HeightCm * item.WidthCm * item.LengthCm,
			Fragile:         item.Fragile,
			CreatedByUserID: input.CreatedByUserID,
			UnitPrice:       item.UnitPrice,
			CategoryID:      input.CategoryID,
			ProductStatus:   "ACTIVE",
			StockQuantity:   item.Quantity,
			Temporary:       true,
		})
	}

	var productIDs []int64
	err = workflow.ExecuteActivity(backendCtx, "CreateProducts", CreateProductsInput{
		CorrelationID: input.CorrelationID,
		Payloads:      productPayloads,
	}).Get(backendCtx, &productIDs)
	if err != nil {
		return fail(domain.StepCreatingProducts, err)
	}
	result.ProductIDs = productIDs

	// ========================================
	// Step 5: Create order
	// ========================================
	var order backend.Order
	err = workflow.ExecuteActivity(backendCtx, "CreateOrder", CreateOrderInput{
		CorrelationID: input.CorrelationID,
		Payload: backend.OrderPayload{
			Store:       backend.EntityRef{ID: input.StoreID},
			Address:     backend.EntityRef{ID: address.ID},
			Status:      backend.EntityRef{ID: input.StatusID},
			CreatedBy:   backend.EntityRef{ID: input.CreatedByUserID},
			Description: input.Description,
			Notes:       input.Notes,
		},
	}).Get(backendCtx, &order)
	if err != nil {
		return fail(domain.StepCreatingOrder, err)
	}
	result.OrderID = &order.ID

	// ========================================
	// Step 6: Create order items
	// ========================================
	// Each line item carries its base fee only; the service tier multiplier
	// is applied once at the delivery level.
	itemPayloads := make([]backend.OrderItemPayload, 0, len(validItems))
	for i, item := range validItems {
		itemPayloads = append(itemPayloads, backend.OrderItemPayload{
			OrderID:     order.ID,
			ProductID:   productIDs[i],
			Quantity:    item.Quantity,
			ShippingFee: input.Tariff.ItemFee(item),
		})
	}

	var orderItemIDs []int64
	err = workflow.ExecuteActivity(backendCtx, "CreateOrderItems", CreateOrderItemsInput{
		CorrelationID: input.CorrelationID,
		Payloads:      itemPayloads,
	}).Get(backendCtx, &orderItemIDs)
	if err != nil {
		return fail(domain.StepCreatingOrderItems, err)
	}
	result.OrderItemIDs = orderItemIDs

	// ========================================
	// Step 7: Create delivery
	// ========================================
	var delivery backend.Delivery
	err = workflow.ExecuteActivity(backendCtx, "CreateDelivery", CreateDeliveryInput{
		CorrelationID: input.CorrelationID,
		Payload: backend.DeliveryPayload{
			OrderID:          order.ID,
			DeliveryFee:      deliveryFee,
			ServiceType:      string(input.ServiceType),
			TransportMode:    input.TransportMode,
			OrderDate:        workflow.Now(ctx).UTC().Format("2006-01-02"),
			LateDeliveryRisk: distance.Degraded,
		},
	}).Get(backendCtx, &delivery)
	if err != nil {
		return fail(domain.StepCreatingDelivery, err)
	}
	result.DeliveryID = &delivery.ID

	result.Status = "completed"

	recordSagaState(journalCtx, input, result)
	publishSuccessEvent(journalCtx, input, result)

	logger.Info("Order creation workflow completed",
		"correlationId", input.CorrelationID,
		"orderId", order.ID,
		"deliveryId", delivery.ID,
	)

	return result, nil
}

// recordSagaState persists the journal snapshot. Best-effort: journal
// failures never change the order outcome.
func recordSagaState(ctx workflow.Context, input OrderCreationInput, result *OrderCreationResult) {
	journal := domain.SagaJournal{
		CorrelationID: input.CorrelationID,
		Status:        domain.SagaStatusDone,
		Step:          domain.StepDone,
		AddressID:     result.AddressID,
		ProductIDs:    result.ProductIDs,
		OrderID:       result.OrderID,
		OrderItemIDs:  result.OrderItemIDs,
		DeliveryID:    result.DeliveryID,
		DistanceKm:    result.DistanceKm,
		DegradedRoute: result.DegradedRoute,
		DeliveryFee:   result.DeliveryFee,
		ServiceType:   string(input.ServiceType),
	}
	if result.Status == "failed" {
		journal.Status = domain.SagaStatusFailed
		journal.Step = result.FailedStep
		journal.FailedStep = result.FailedStep
		journal.FailureReason = result.Error
	}

	if err := workflow.ExecuteActivity(ctx, "RecordSagaState", SagaStateInput{Journal: journal}).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("Failed to record saga state", "correlationId", input.CorrelationID, "error", err)
	}
}

func publishSuccessEvent(ctx workflow.Context, input OrderCreationInput, result *OrderCreationResult) {
	if err := workflow.ExecuteActivity(ctx, "PublishOrderEvent", *result).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("Failed to publish order event", "correlationId", input.CorrelationID, "error", err)
	}
}

func publishFailureEvent(ctx workflow.Context, input OrderCreationInput, result *OrderCreationResult) {
	if err := workflow.ExecuteActivity(ctx, "PublishOrderEvent", *result).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("Failed to publish order failure event", "correlationId", input.CorrelationID, "error", err)
	}
}
