package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/pkg/logging"
	"github.com/logistics-platform/freight-service/pkg/resilience"
)

// Recorder receives routing call outcomes, typically backed by the metrics
// package.
type Recorder interface {
	RecordExternalRequest(target, operation string, success bool, duration time.Duration)
	RecordRouteFallback()
}

// Result is a resolved route distance. Degraded marks distances computed from
// a single great-circle leg instead of a road route.
type Result struct {
	DistanceKm float64 `json:"distanceKm"`
	Degraded   bool    `json:"degraded"`
}

// Client calls an OSRM-compatible directions service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
	recorder   Recorder
}

// NewClient creates a directions client. The breaker and recorder may be nil.
func NewClient(baseURL string, timeout time.Duration, breaker *resilience.CircuitBreaker, logger *logging.Logger, recorder Recorder) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
		recorder:   recorder,
	}
}

type routeResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// RouteDistance resolves the road distance between origin and destination.
// It never fails: any error from the directions service, including an open
// circuit breaker, degrades to the direct great-circle distance. There is no
// retry of the external call itself.
func (c *Client) RouteDistance(ctx context.Context, origin, destination domain.Coordinates) Result {
	distance, err := c.fetchRouteDistance(ctx, origin, destination)
	if err != nil {
		c.logger.WithContext(ctx).Warn("Directions call failed, using great-circle fallback",
			"error", err,
		)
		if c.recorder != nil {
			c.recorder.RecordRouteFallback()
		}
		return Result{
			DistanceKm: domain.Haversine(origin, destination),
			Degraded:   true,
		}
	}

	return Result{DistanceKm: distance}
}

func (c *Client) fetchRouteDistance(ctx context.Context, origin, destination domain.Coordinates) (float64, error) {
	call := func() (interface{}, error) {
		return c.doRouteRequest(ctx, origin, destination)
	}

	var (
		result interface{}
		err    error
	)
	if c.breaker != nil {
		result, err = c.breaker.Execute(ctx, call)
	} else {
		result, err = call()
	}
	if err != nil {
		return 0, err
	}

	return result.(float64), nil
}

func (c *Client) doRouteRequest(ctx context.Context, origin, destination domain.Coordinates) (float64, error) {
	// The directions service expects longitude before latitude.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude,
	)

	start := time.Now()
	distance, err := c.requestDistance(ctx, url)
	if c.recorder != nil {
		c.recorder.RecordExternalRequest("directions", "route", err == nil, time.Since(start))
	}
	return distance, err
}

func (c *Client) requestDistance(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("directions request failed with status %d", resp.StatusCode)
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return 0, fmt.Errorf("failed to decode directions response: %w", err)
	}

	if len(route.Routes) == 0 {
		return 0, fmt.Errorf("directions response contains no routes")
	}

	coords := route.Routes[0].Geometry.Coordinates
	if len(coords) < 2 {
		return 0, fmt.Errorf("directions route has fewer than two waypoints")
	}

	return domain.PathDistanceKm(coords), nil
}
