package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/workflows"
)

// ResolveDestination geocodes the free-text destination address. A nil result
// with a nil error means the address did not resolve; the workflow refuses
// the order in that case instead of guessing a location.
func (a *GeoActivities) ResolveDestination(ctx context.Context, address string) (*domain.Coordinates, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Resolving destination address", "address", address)

	coords, err := a.destinations.Resolve(ctx, address)
	if err != nil {
		logger.Error("Failed to resolve destination address", "address", address, "error", err)
		return nil, fmt.Errorf("destination geocoding failed: %w", err)
	}

	if coords == nil {
		logger.Warn("Destination address did not resolve", "address", address)
		return nil, nil
	}

	logger.Info("Destination address resolved", "address", address, "latitude", coords.Latitude, "longitude", coords.Longitude)
	return coords, nil
}

// ResolveOrigin loads the store's origin coordinates, geocoding the store
// address when the store record carries none.
func (a *GeoActivities) ResolveOrigin(ctx context.Context, storeID int64) (*domain.Coordinates, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Resolving store origin", "storeId", storeID)

	coords, err := a.origins.Resolve(ctx, storeID)
	if err != nil {
		logger.Error("Failed to resolve store origin", "storeId", storeID, "error", err)
		return nil, fmt.Errorf("origin resolution failed for store %d: %w", storeID, err)
	}

	return coords, nil
}

// ResolveDistance measures the driving distance between origin and
// destination. The router never fails: when the directions service is
// unreachable it falls back to straight-line distance and flags the result
// as degraded.
func (a *GeoActivities) ResolveDistance(ctx context.Context, input workflows.DistanceInput) (workflows.DistanceResult, error) {
	logger := activity.GetLogger(ctx)

	route := a.router.RouteDistance(ctx, input.Origin, input.Destination)
	if route.Degraded {
		logger.Warn("Route distance degraded to straight-line estimate", "distanceKm", route.DistanceKm)
	} else {
		logger.Info("Route distance resolved", "distanceKm", route.DistanceKm)
	}

	return workflows.DistanceResult{
		DistanceKm: route.DistanceKm,
		Degraded:   route.Degraded,
	}, nil
}
