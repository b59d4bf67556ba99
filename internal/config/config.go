package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/pkg/kafka"
	"github.com/logistics-platform/freight-service/pkg/mongodb"
	"github.com/logistics-platform/freight-service/pkg/temporal"
)

// Config holds configuration shared by the API server and the worker.
type Config struct {
	ServiceName string
	ServerAddr  string

	MongoDB  *mongodb.Config
	Kafka    *kafka.Config
	Temporal *temporal.Config

	Routing    RoutingConfig
	Geocode    GeocodeConfig
	Storefront StorefrontConfig

	Tariff domain.Tariff
}

// RoutingConfig configures the external directions service.
type RoutingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GeocodeConfig configures the external geocoding service.
type GeocodeConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Debounce time.Duration
}

// StorefrontConfig configures the storefront backend the order saga writes to.
type StorefrontConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load builds configuration from environment variables. If TARIFF_PATH points
// at a YAML file its values override the built-in tariff.
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		ServiceName: serviceName,
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "freight_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST_PORT", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  serviceName,
		},
		Routing: RoutingConfig{
			BaseURL: getEnv("ROUTING_BASE_URL", "https://router.project-osrm.org"),
			Timeout: getDurationEnv("ROUTING_TIMEOUT", 10*time.Second),
		},
		Geocode: GeocodeConfig{
			BaseURL:  getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			Timeout:  getDurationEnv("GEOCODE_TIMEOUT", 10*time.Second),
			Debounce: getDurationEnv("GEOCODE_DEBOUNCE", 400*time.Millisecond),
		},
		Storefront: StorefrontConfig{
			BaseURL: getEnv("STOREFRONT_BASE_URL", "http://localhost:8081/api/v1"),
			Timeout: getDurationEnv("STOREFRONT_TIMEOUT", 15*time.Second),
		},
		Tariff: domain.DefaultTariff(),
	}

	if path := os.Getenv("TARIFF_PATH"); path != "" {
		tariff, err := loadTariff(path)
		if err != nil {
			return nil, err
		}
		cfg.Tariff = tariff
	}

	return cfg, nil
}

// loadTariff reads tariff overrides from a YAML file. A file may override any
// subset of fields; omitted fields keep their defaults.
func loadTariff(path string) (domain.Tariff, error) {
	tariff := domain.DefaultTariff()

	data, err := os.ReadFile(path)
	if err != nil {
		return tariff, fmt.Errorf("failed to read tariff file %s: %w", path, err)
	}

	var overrides struct {
		RatePerBillableKg *float64              `yaml:"ratePerBillableKg"`
		FragileMultiplier *float64              `yaml:"fragileMultiplier"`
		DistanceBands     []domain.DistanceBand `yaml:"distanceBands"`
	}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return tariff, fmt.Errorf("failed to parse tariff file %s: %w", path, err)
	}

	if overrides.RatePerBillableKg != nil {
		tariff.RatePerBillableKg = *overrides.RatePerBillableKg
	}
	if overrides.FragileMultiplier != nil {
		tariff.FragileMultiplier = *overrides.FragileMultiplier
	}
	if len(overrides.DistanceBands) > 0 {
		tariff.DistanceBands = overrides.DistanceBands
	}

	return tariff, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
