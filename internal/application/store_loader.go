package application

import (
	"context"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/backend"
	"github.com/logistics-platform/freight-service/internal/infrastructure/geocode"
)

// StoreGateway is the backend surface needed to load store records.
type StoreGateway interface {
	GetStore(ctx context.Context, storeID int64) (*backend.Store, error)
}

// BackendStoreLoader adapts the storefront backend to the origin resolver's
// store view.
type BackendStoreLoader struct {
	gateway StoreGateway
}

// NewBackendStoreLoader creates a new BackendStoreLoader
func NewBackendStoreLoader(gateway StoreGateway) *BackendStoreLoader {
	return &BackendStoreLoader{gateway: gateway}
}

// GetStore loads a store and maps its optional coordinate pair.
func (l *BackendStoreLoader) GetStore(ctx context.Context, storeID int64) (*geocode.Store, error) {
	store, err := l.gateway.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	mapped := &geocode.Store{
		ID:      store.ID,
		Name:    store.Name,
		Address: store.Address,
	}
	if store.Latitude != nil && store.Longitude != nil {
		mapped.Coordinates = &domain.Coordinates{
			Latitude:  *store.Latitude,
			Longitude: *store.Longitude,
		}
	}
	return mapped, nil
}
