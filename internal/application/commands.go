package application

import (
	"github.com/logistics-platform/freight-service/internal/domain"
)

// ComputeQuoteCommand represents the command to compute a fee quote
type ComputeQuoteCommand struct {
	StoreID            int64
	Items              []domain.ShipmentItem
	DestinationAddress string
	DestinationCoords  *domain.Coordinates
}

// OrderDestination is the delivery address for a new order
type OrderDestination struct {
	Address      string
	City         string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Country      string
	Coordinates  *domain.Coordinates
}

// SubmitOrderCommand represents the command to submit a new order
type SubmitOrderCommand struct {
	CorrelationID   string
	StoreID         int64
	Items           []domain.ShipmentItem
	Destination     OrderDestination
	ServiceType     domain.ServiceTier
	TransportMode   string
	CreatedByUserID int64
	CategoryID      int64
	StatusID        int64
	Description     string
	Notes           string
}

// GetOrderStatusQuery represents the query to get the status of an order attempt
type GetOrderStatusQuery struct {
	CorrelationID string
}

// StartQuoteSessionCommand represents the command to open an interactive quote session
type StartQuoteSessionCommand struct {
	StoreID int64
}

// UpdateDestinationCommand represents a destination edit inside a quote session
type UpdateDestinationCommand struct {
	SessionID string
	Address   string
}
