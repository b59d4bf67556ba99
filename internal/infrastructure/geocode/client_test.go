package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistics-platform/freight-service/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.DefaultConfig("geocode-test"))
}

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "21.0278", "lon": "105.8342"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, testLogger(), nil)

	coords, err := client.Resolve(context.Background(), "1 Trang Tien, Hoan Kiem, Hanoi")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.InDelta(t, 21.0278, coords.Latitude, 1e-9)
	assert.InDelta(t, 105.8342, coords.Longitude, 1e-9)
}

func TestResolveNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, testLogger(), nil)

	coords, err := client.Resolve(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestResolveEmptyAddress(t *testing.T) {
	client := NewClient("http://unused", 5*time.Second, nil, testLogger(), nil)

	coords, err := client.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestResolveServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, testLogger(), nil)

	_, err := client.Resolve(context.Background(), "1 Trang Tien, Hanoi")
	assert.Error(t, err)
}

func TestResolveMalformedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "not-a-number", "lon": "105.8"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, testLogger(), nil)

	_, err := client.Resolve(context.Background(), "1 Trang Tien, Hanoi")
	assert.Error(t, err)
}
