package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/pkg/logging"
)

var (
	testOrigin      = domain.Coordinates{Latitude: 21.0278, Longitude: 105.8342}
	testDestination = domain.Coordinates{Latitude: 20.8449, Longitude: 106.6881}
)

func testLogger() *logging.Logger {
	return logging.New(logging.DefaultConfig("routing-test"))
}

func TestRouteDistanceFromDirections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"routes": [{
				"geometry": {
					"coordinates": [
						[105.8342, 21.0278],
						[106.2000, 20.9000],
						[106.6881, 20.8449]
					]
				}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, testLogger(), nil)
	result := client.RouteDistance(context.Background(), testOrigin, testDestination)

	assert.False(t, result.Degraded)

	expected := domain.PathDistanceKm([][2]float64{
		{105.8342, 21.0278},
		{106.2000, 20.9000},
		{106.6881, 20.8449},
	})
	assert.InDelta(t, expected, result.DistanceKm, 1e-9)
}

func TestRouteDistanceFallsBackOnFailure(t *testing.T) {
	direct := domain.Haversine(testOrigin, testDestination)

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "no routes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"routes": []}`))
			},
		},
		{
			name: "single waypoint",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"routes": [{"geometry": {"coordinates": [[105.8, 21.0]]}}]}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, nil, testLogger(), nil)
			result := client.RouteDistance(context.Background(), testOrigin, testDestination)

			require.True(t, result.Degraded)
			assert.InDelta(t, direct, result.DistanceKm, 1e-9)
		})
	}
}

func TestRouteDistanceFallsBackOnUnreachableService(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, nil, testLogger(), nil)
	result := client.RouteDistance(context.Background(), testOrigin, testDestination)

	require.True(t, result.Degraded)
	assert.InDelta(t, domain.Haversine(testOrigin, testDestination), result.DistanceKm, 1e-9)
}
