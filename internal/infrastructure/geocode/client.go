package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/pkg/logging"
	"github.com/logistics-platform/freight-service/pkg/resilience"
)

// Resolver turns a free-text address into coordinates. A nil result with a
// nil error means the address could not be matched.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*domain.Coordinates, error)
}

// Recorder receives geocode call outcomes.
type Recorder interface {
	RecordExternalRequest(target, operation string, success bool, duration time.Duration)
	RecordGeocodeResolution(outcome string)
}

// Client calls a Nominatim-compatible geocoding service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
	recorder   Recorder
}

// NewClient creates a geocoding client. The breaker and recorder may be nil.
func NewClient(baseURL string, timeout time.Duration, breaker *resilience.CircuitBreaker, logger *logging.Logger, recorder Recorder) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
		recorder:   recorder,
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve geocodes a free-text address, taking the first result's
// coordinates. Best-effort: an unmatched address returns (nil, nil).
func (c *Client) Resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	if address == "" {
		return nil, nil
	}

	call := func() (interface{}, error) {
		return c.doResolve(ctx, address)
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
		if c.recorder != nil {
			c.recorder.RecordGeocodeResolution("failed")
		}
		return nil, err
	}

	coords, _ := result.(*domain.Coordinates)
	if c.recorder != nil {
		if coords == nil {
			c.recorder.RecordGeocodeResolution("empty")
		} else {
			c.recorder.RecordGeocodeResolution("resolved")
		}
	}
	return coords, nil
}

func (c *Client) doResolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")

	start := time.Now()
	coords, err := c.requestCoordinates(ctx, c.baseURL+"/search?"+query.Encode())
	if c.recorder != nil {
		c.recorder.RecordExternalRequest("geocoder", "search", err == nil, time.Since(start))
	}
	return coords, err
}

func (c *Client) requestCoordinates(ctx context.Context, url string) (*domain.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	return &domain.Coordinates{Latitude: lat, Longitude: lng}, nil
}
