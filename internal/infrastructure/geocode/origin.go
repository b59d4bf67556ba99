package geocode

import (
	"context"
	"sync"

	"github.com/logistics-platform/freight-service/internal/domain"
)

// StoreLoader fetches a store record from the storefront backend.
type StoreLoader interface {
	GetStore(ctx context.Context, storeID int64) (*Store, error)
}

// Store is the origin of every shipment. Coordinates are optional on the
// backend record; when absent they are resolved once and cached in memory,
// never written back.
type Store struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Address     string              `json:"address"`
	Coordinates *domain.Coordinates `json:"coordinates,omitempty"`
}

// OriginResolver resolves store origin coordinates at most once per store.
type OriginResolver struct {
	loader   StoreLoader
	resolver Resolver

	mu    sync.Mutex
	cache map[int64]*domain.Coordinates
}

// NewOriginResolver creates an OriginResolver.
func NewOriginResolver(loader StoreLoader, resolver Resolver) *OriginResolver {
	return &OriginResolver{
		loader:   loader,
		resolver: resolver,
		cache:    make(map[int64]*domain.Coordinates),
	}
}

// Resolve returns the origin coordinates for a store. Stores that already
// carry coordinates skip geocoding entirely; otherwise the resolved result is
// memoized for the life of the process. Unresolvable origins return (nil, nil)
// and are re-attempted on the next call.
func (r *OriginResolver) Resolve(ctx context.Context, storeID int64) (*domain.Coordinates, error) {
	r.mu.Lock()
	if coords, ok := r.cache[storeID]; ok {
		r.mu.Unlock()
		return coords, nil
	}
	r.mu.Unlock()

	store, err := r.loader.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	coords := store.Coordinates
	if coords == nil {
		coords, err = r.resolver.Resolve(ctx, store.Address)
		if err != nil {
			return nil, err
		}
	}

	if coords != nil {
		r.mu.Lock()
		r.cache[storeID] = coords
		r.mu.Unlock()
	}

	return coords, nil
}
