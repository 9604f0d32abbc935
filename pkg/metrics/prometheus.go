// Package metrics provides Prometheus metrics for the Battle.net client and gateway.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds, sized for a remote HTTPS API.
var defaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Upstream: calls made by the HTTP transport to the remote API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamInFlight prometheus.Gauge
	upstreamBytes    prometheus.Counter
	transportErrors  *prometheus.CounterVec

	// Contract: endpoint level lookups and decoding
	lookups       *prometheus.CounterVec
	lookupLatency *prometheus.HistogramVec
	decodeErrors  *prometheus.CounterVec

	// Gateway HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Process
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. It must run at startup, before any handler captures
// GetRegistry and before the Record* helpers are used concurrently.
func Init(opts ...Option) {
	reg := prometheus.NewRegistry()
	customRegistry = reg
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(reg)}, opts...)...)
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bnet",
		subsystem:        "client",
		histogramBuckets: defaultBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Requests sent to the remote API by namespace and status class", "namespace", "status_class")
	m.upstreamLatency = m.histogramVec("upstream_request_duration_milliseconds",
		"Latency of remote API requests in milliseconds", "namespace")
	m.upstreamInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "upstream_in_flight",
		Help:        "Remote API requests currently in flight",
		ConstLabels: m.customLabels,
	})
	m.upstreamBytes = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "upstream_response_bytes_total",
		Help:        "Decompressed bytes read from remote API responses",
		ConstLabels: m.customLabels,
	})
	m.transportErrors = m.counterVec("transport_errors_total",
		"Transport failures by kind (timeout, canceled, network, body)", "kind")

	m.lookups = m.counterVec("lookups_total",
		"Endpoint lookups by endpoint and result", "endpoint", "result")
	m.lookupLatency = m.histogramVec("lookup_duration_milliseconds",
		"End-to-end endpoint lookup latency in milliseconds", "endpoint")
	m.decodeErrors = m.counterVec("decode_errors_total",
		"Responses that did not match the expected DTO", "endpoint")

	m.httpRequests = m.counterVec("http_requests_total",
		"Gateway HTTP requests by route, method and status", "route", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"Gateway HTTP request duration in milliseconds", "route", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("http_errors_total",
		"Gateway HTTP errors by route, method and error type", "route", "method", "error_type")

	m.systemMemoryUsage = m.gauge("memory_bytes", "Heap bytes allocated by the process")
	m.systemGoroutines = m.gauge("goroutines", "Goroutines currently running")
	m.systemGCPause = m.gauge("gc_pause_milliseconds", "Average GC pause in milliseconds")
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "process",
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

// RecordUpstreamRequest counts one remote API call and observes its latency.
func RecordUpstreamRequest(namespace string, statusCode int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(namespace, statusClass(statusCode)).Inc()
	globalManager.upstreamLatency.WithLabelValues(namespace).Observe(latencyMs)
}

// IncUpstreamInFlight marks a remote call as started.
func IncUpstreamInFlight() {
	if globalManager.enabled {
		globalManager.upstreamInFlight.Inc()
	}
}

// DecUpstreamInFlight marks a remote call as finished.
func DecUpstreamInFlight() {
	if globalManager.enabled {
		globalManager.upstreamInFlight.Dec()
	}
}

// AddUpstreamBytes adds n to the bytes-read counter.
func AddUpstreamBytes(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.upstreamBytes.Add(float64(n))
	}
}

// RecordTransportError counts a transport failure of the given kind.
func RecordTransportError(kind string) {
	if globalManager.enabled {
		globalManager.transportErrors.WithLabelValues(kind).Inc()
	}
}

// RecordLookup counts one endpoint lookup and observes its latency.
func RecordLookup(endpoint, result string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.lookups.WithLabelValues(endpoint, result).Inc()
	globalManager.lookupLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordDecodeError counts a payload that failed to decode.
func RecordDecodeError(endpoint string) {
	if globalManager.enabled {
		globalManager.decodeErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordHTTPRequest records a gateway HTTP request.
func RecordHTTPRequest(route, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records gateway HTTP request duration.
func RecordHTTPRequestDuration(route, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records a gateway error with route, method and error type labels.
func RecordErrorByEndpoint(route, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(route, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	if globalManager.enabled {
		globalManager.systemGoroutines.Set(float64(n))
	}
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if globalManager.enabled {
		globalManager.systemGCPause.Set(ms)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Families returns the names of every metric family currently gathered.
func Families() ([]string, error) {
	mfs, err := customRegistry.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGather, err)
	}
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	return names, nil
}

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}
