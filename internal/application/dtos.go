package application

import (
	"time"

	"github.com/logistics-platform/freight-service/internal/domain"
)

// TierQuoteDTO represents the final fee for one service tier
type TierQuoteDTO struct {
	ServiceType string  `json:"serviceType"`
	Multiplier  float64 `json:"multiplier"`
	FinalFee    float64 `json:"finalFee"`
}

// QuoteDTO represents a full fee quote in responses
type QuoteDTO struct {
	StoreID       int64          `json:"storeId"`
	BaseFee       float64        `json:"baseFee"`
	DistanceKm    float64        `json:"distanceKm"`
	DistanceFee   float64        `json:"distanceFee"`
	RegionLabel   string         `json:"regionLabel"`
	DegradedRoute bool           `json:"degradedRoute"`
	Tiers         []TierQuoteDTO `json:"tiers"`
}

// ToQuoteDTO maps a domain quote to its response shape
func ToQuoteDTO(storeID int64, quote domain.Quote) *QuoteDTO {
	tiers := make([]TierQuoteDTO, 0, len(quote.Tiers))
	for _, tier := range quote.Tiers {
		tiers = append(tiers, TierQuoteDTO{
			ServiceType: string(tier.Tier),
			Multiplier:  tier.Multiplier,
			FinalFee:    tier.FinalFee,
		})
	}

	return &QuoteDTO{
		StoreID:       storeID,
		BaseFee:       quote.BaseFee,
		DistanceKm:    quote.DistanceKm,
		DistanceFee:   quote.Distance.FeeAmount,
		RegionLabel:   quote.Distance.RegionLabel,
		DegradedRoute: quote.DegradedRoute,
		Tiers:         tiers,
	}
}

// OrderSubmissionDTO represents an accepted order submission
type OrderSubmissionDTO struct {
	CorrelationID string `json:"correlationId"`
	WorkflowID    string `json:"workflowId"`
	RunID         string `json:"runId"`
	Status        string `json:"status"`
}

// OrderStatusDTO represents the recorded state of an order attempt
type OrderStatusDTO struct {
	CorrelationID string  `json:"correlationId"`
	Status        string  `json:"status"`
	Step          string  `json:"step"`
	FailedStep    string  `json:"failedStep,omitempty"`
	FailureReason string  `json:"failureReason,omitempty"`
	AddressID     *int64  `json:"addressId,omitempty"`
	ProductIDs    []int64 `json:"productIds,omitempty"`
	OrderID       *int64  `json:"orderId,omitempty"`
	OrderItemIDs  []int64 `json:"orderItemIds,omitempty"`
	DeliveryID    *int64  `json:"deliveryId,omitempty"`

	DistanceKm    float64   `json:"distanceKm"`
	DegradedRoute bool      `json:"degradedRoute"`
	DeliveryFee   float64   `json:"deliveryFee"`
	ServiceType   string    `json:"serviceType,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToOrderStatusDTO maps a saga journal to its response shape
func ToOrderStatusDTO(journal *domain.SagaJournal) *OrderStatusDTO {
	return &OrderStatusDTO{
		CorrelationID: journal.CorrelationID,
		Status:        string(journal.Status),
		Step:          string(journal.Step),
		FailedStep:    string(journal.FailedStep),
		FailureReason: journal.FailureReason,
		AddressID:     journal.AddressID,
		ProductIDs:    journal.ProductIDs,
		OrderID:       journal.OrderID,
		OrderItemIDs:  journal.OrderItemIDs,
		DeliveryID:    journal.DeliveryID,
		DistanceKm:    journal.DistanceKm,
		DegradedRoute: journal.DegradedRoute,
		DeliveryFee:   journal.DeliveryFee,
		ServiceType:   journal.ServiceType,
		UpdatedAt:     journal.UpdatedAt,
	}
}

// QuoteSessionDTO represents the state of an interactive quote session. The
// client keeps its confirm action disabled until ReadyToQuote is true.
type QuoteSessionDTO struct {
	SessionID           string    `json:"sessionId"`
	StoreID             int64     `json:"storeId"`
	DestinationAddress  string    `json:"destinationAddress,omitempty"`
	DestinationResolved bool      `json:"destinationResolved"`
	DestinationPending  bool      `json:"destinationPending"`
	OriginResolved      bool      `json:"originResolved"`
	ReadyToQuote        bool      `json:"readyToQuote"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
