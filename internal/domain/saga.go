package domain

import (
	"context"
	"time"
)

// SagaStep identifies a stage of the order-creation sequence. Steps run
// strictly in order because each payload references server-assigned IDs from
// the previous step.
type SagaStep string

const (
	StepCollectingInput    SagaStep = "COLLECTING_INPUT"
	StepResolvingAddress   SagaStep = "RESOLVING_ADDRESS"
	StepCreatingAddress    SagaStep = "CREATING_ADDRESS"
	StepCreatingProducts   SagaStep = "CREATING_PRODUCTS"
	StepCreatingOrder      SagaStep = "CREATING_ORDER"
	StepCreatingOrderItems SagaStep = "CREATING_ORDER_ITEMS"
	StepCreatingDelivery   SagaStep = "CREATING_DELIVERY"
	StepDone               SagaStep = "DONE"
)

// SagaStatus is the terminal or running state of an order attempt.
type SagaStatus string

const (
	SagaStatusRunning SagaStatus = "running"
	SagaStatusDone    SagaStatus = "done"
	SagaStatusFailed  SagaStatus = "failed"
)

// SagaJournal records the progress of one order attempt, keyed by the
// client-supplied correlation ID. A retried attempt reads the journal first
// so already-created Address and Product records are reused, not duplicated.
type SagaJournal struct {
	CorrelationID string     `bson:"correlationId" json:"correlationId"`
	Status        SagaStatus `bson:"status" json:"status"`
	Step          SagaStep   `bson:"step" json:"step"`
	// No bson omitempty on the failure fields: the journal is written with
	// $set, and a resumed attempt that succeeds must clear the failure left
	// by the previous one.
	FailedStep    SagaStep `bson:"failedStep" json:"failedStep,omitempty"`
	FailureReason string   `bson:"failureReason" json:"failureReason,omitempty"`

	AddressID    *int64  `bson:"addressId,omitempty" json:"addressId,omitempty"`
	ProductIDs   []int64 `bson:"productIds,omitempty" json:"productIds,omitempty"`
	OrderID      *int64  `bson:"orderId,omitempty" json:"orderId,omitempty"`
	OrderItemIDs []int64 `bson:"orderItemIds,omitempty" json:"orderItemIds,omitempty"`
	DeliveryID   *int64  `bson:"deliveryId,omitempty" json:"deliveryId,omitempty"`

	DistanceKm    float64 `bson:"distanceKm" json:"distanceKm"`
	DegradedRoute bool    `bson:"degradedRoute" json:"degradedRoute"`
	DeliveryFee   float64 `bson:"deliveryFee" json:"deliveryFee"`
	ServiceType   string  `bson:"serviceType" json:"serviceType"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// JournalRepository persists saga journals.
type JournalRepository interface {
	Save(ctx context.Context, journal *SagaJournal) error
	FindByCorrelationID(ctx context.Context, correlationID string) (*SagaJournal, error)
}

// QuoteSnapshot is an audit record of a computed quote, kept so degraded-route
// estimates can be reviewed after the fact.
type QuoteSnapshot struct {
	ID            string    `bson:"_id,omitempty" json:"id,omitempty"`
	StoreID       int64     `bson:"storeId" json:"storeId"`
	DistanceKm    float64   `bson:"distanceKm" json:"distanceKm"`
	DegradedRoute bool      `bson:"degradedRoute" json:"degradedRoute"`
	RegionLabel   string    `bson:"regionLabel" json:"regionLabel"`
	BaseFee       float64   `bson:"baseFee" json:"baseFee"`
	DistanceFee   float64   `bson:"distanceFee" json:"distanceFee"`
	StandardFee   float64   `bson:"standardFee" json:"standardFee"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// QuoteSnapshotRepository persists quote audit records.
type QuoteSnapshotRepository interface {
	Save(ctx context.Context, snapshot *QuoteSnapshot) error
	FindRecentDegraded(ctx context.Context, limit int) ([]*QuoteSnapshot, error)
}
