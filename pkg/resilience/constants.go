package resilience

import "time"

// Circuit breaker names for external dependencies
const (
	BreakerGeocoder   = "geocoder"
	BreakerDirections = "directions"
	BreakerStorefront = "storefront"
)

// Circuit breaker default configuration values
const (
	DefaultMaxRequests           uint32        = 3
	DefaultInterval              time.Duration = 60 * time.Second
	DefaultTimeout               time.Duration = 30 * time.Second
	DefaultFailureThreshold      uint32        = 5
	DefaultSuccessThreshold      uint32        = 2
	DefaultFailureRatioThreshold float64       = 0.5
	DefaultMinRequestsToTrip     uint32        = 10
)
