package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all freight-service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// External service metrics (geocoder, directions, storefront backend)
	ExternalRequestsTotal   *prometheus.CounterVec
	ExternalRequestDuration *prometheus.HistogramVec
	RouteFallbacksTotal     prometheus.Counter
	GeocodeResolutionsTotal *prometheus.CounterVec

	// Pricing metrics
	QuotesComputedTotal *prometheus.CounterVec
	QuoteTotalAmount    *prometheus.HistogramVec

	// Order workflow metrics
	WorkflowsStarted    *prometheus.CounterVec
	WorkflowsCompleted  *prometheus.CounterVec
	WorkflowDuration    *prometheus.HistogramVec
	ActivitiesCompleted *prometheus.CounterVec
	OrderStepFailures   *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "freight",
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.ExternalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "external_requests_total",
			Help:      "Total number of requests to external services",
		},
		[]string{"service", "target", "operation", "status"},
	)

	m.ExternalRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "external_request_duration_seconds",
			Help:      "External request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "target", "operation"},
	)

	m.RouteFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "route_fallbacks_total",
			Help:        "Number of times route distance fell back to great-circle estimate",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.GeocodeResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "geocode_resolutions_total",
			Help:      "Total number of geocode resolutions by outcome",
		},
		[]string{"service", "outcome"},
	)

	m.QuotesComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "quotes_computed_total",
			Help:      "Total number of shipping quotes computed",
		},
		[]string{"service", "degraded"},
	)

	m.QuoteTotalAmount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "quote_total_amount",
			Help:      "Distribution of quoted totals (standard tier, currency units)",
			Buckets:   prometheus.ExponentialBuckets(10000, 2, 12),
		},
		[]string{"service"},
	)

	m.WorkflowsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "workflows_started_total",
			Help:      "Total number of order workflows started",
		},
		[]string{"service", "workflow_type"},
	)

	m.WorkflowsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "workflows_completed_total",
			Help:      "Total number of order workflows completed",
		},
		[]string{"service", "workflow_type", "status"},
	)

	m.WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Order workflow duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "workflow_type"},
	)

	m.ActivitiesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "activities_completed_total",
			Help:      "Total number of workflow activities completed",
		},
		[]string{"service", "activity_type", "status"},
	)

	m.OrderStepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "order_step_failures_total",
			Help:      "Order creation failures by saga step",
		},
		[]string{"service", "step"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ExternalRequestsTotal,
		m.ExternalRequestDuration,
		m.RouteFallbacksTotal,
		m.GeocodeResolutionsTotal,
		m.QuotesComputedTotal,
		m.QuoteTotalAmount,
		m.WorkflowsStarted,
		m.WorkflowsCompleted,
		m.WorkflowDuration,
		m.ActivitiesCompleted,
		m.OrderStepFailures,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordExternalRequest records a request to an external service
func (m *Metrics) RecordExternalRequest(target, operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.ExternalRequestsTotal.WithLabelValues(m.serviceName, target, operation, status).Inc()
	m.ExternalRequestDuration.WithLabelValues(m.serviceName, target, operation).Observe(duration.Seconds())
}

// RecordRouteFallback records a fallback to great-circle distance
func (m *Metrics) RecordRouteFallback() {
	m.RouteFallbacksTotal.Inc()
}

// RecordGeocodeResolution records a geocode resolution outcome ("resolved", "empty", "failed")
func (m *Metrics) RecordGeocodeResolution(outcome string) {
	m.GeocodeResolutionsTotal.WithLabelValues(m.serviceName, outcome).Inc()
}

// RecordQuoteComputed records a computed quote
func (m *Metrics) RecordQuoteComputed(degraded bool, standardTotal float64) {
	m.QuotesComputedTotal.WithLabelValues(m.serviceName, strconv.FormatBool(degraded)).Inc()
	m.QuoteTotalAmount.WithLabelValues(m.serviceName).Observe(standardTotal)
}

// RecordWorkflowStarted records a workflow start
func (m *Metrics) RecordWorkflowStarted(workflowType string) {
	m.WorkflowsStarted.WithLabelValues(m.serviceName, workflowType).Inc()
}

// RecordWorkflowCompleted records a workflow completion
func (m *Metrics) RecordWorkflowCompleted(workflowType string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.WorkflowsCompleted.WithLabelValues(m.serviceName, workflowType, status).Inc()
	m.WorkflowDuration.WithLabelValues(m.serviceName, workflowType).Observe(duration.Seconds())
}

// RecordActivityCompleted records an activity completion
func (m *Metrics) RecordActivityCompleted(activityType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.ActivitiesCompleted.WithLabelValues(m.serviceName, activityType, status).Inc()
}

// RecordOrderStepFailure records an order creation failure at a saga step
func (m *Metrics) RecordOrderStepFailure(step string) {
	m.OrderStepFailures.WithLabelValues(m.serviceName, step).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state gauge
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
