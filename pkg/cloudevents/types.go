package cloudevents

import (
	"time"
)

// EventType constants for freight domain events
const (
	// Quote events
	QuoteComputed = "freight.quote.computed"
	QuoteDegraded = "freight.quote.degraded"

	// Order events
	OrderCreated = "freight.order.created"
	OrderFailed  = "freight.order.failed"
)

// Source constants for event sources
const (
	SourceQuotes = "/freight/quote-service"
	SourceOrders = "/freight/order-service"
)

// FreightCloudEvent represents a CloudEvents v1.0 compliant event
type FreightCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Freight-specific extensions
	CorrelationID string `json:"freightcorrelationid,omitempty"`
	WorkflowID    string `json:"freightworkflowid,omitempty"`
	StoreID       string `json:"freightstoreid,omitempty"`
}

// QuoteComputedData represents the data payload for QuoteComputed events
type QuoteComputedData struct {
	StoreID       int64              `json:"storeId"`
	DistanceKm    float64            `json:"distanceKm"`
	DegradedRoute bool               `json:"degradedRoute"`
	RegionLabel   string             `json:"regionLabel"`
	BaseFee       float64            `json:"baseFee"`
	DistanceFee   float64            `json:"distanceFee"`
	TierTotals    map[string]float64 `json:"tierTotals"`
}

// OrderCreatedData represents the data payload for OrderCreated events
type OrderCreatedData struct {
	CorrelationID string  `json:"correlationId"`
	OrderID       int64   `json:"orderId"`
	DeliveryID    int64   `json:"deliveryId"`
	ServiceType   string  `json:"serviceType"`
	DeliveryFee   float64 `json:"deliveryFee"`
	DistanceKm    float64 `json:"distanceKm"`
}

// OrderFailedData represents the data payload for OrderFailed events
type OrderFailedData struct {
	CorrelationID string  `json:"correlationId"`
	FailedStep    string  `json:"failedStep"`
	Reason        string  `json:"reason,omitempty"`
	AddressID     *int64  `json:"addressId,omitempty"`
	ProductIDs    []int64 `json:"productIds,omitempty"`
	OrderID       *int64  `json:"orderId,omitempty"`
}
