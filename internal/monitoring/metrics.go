package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Protocol metrics
	Commands *prometheus.CounterVec
	Events   *prometheus.CounterVec

	// Document metrics
	DocumentLoads prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// NewMetrics creates a metrics collector on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	start := time.Now()

	m := &Metrics{
		registry: registry,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageforge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pageforge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pageforge_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pageforge_sessions_active",
				Help: "Number of live editing sessions",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pageforge_sessions_total",
				Help: "Total number of sessions created",
			},
		),

		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageforge_commands_total",
				Help: "Commands sent to render contexts",
			},
			[]string{"type"},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageforge_events_total",
				Help: "Events received from remote render contexts",
			},
			[]string{"type"},
		),

		DocumentLoads: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pageforge_document_load_seconds",
				Help:    "Document load duration including the ready handshake",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pageforge_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageforge_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pageforge_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(start).Seconds() },
	)

	return m
}

// Handler returns the scrape endpoint for this collector's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordCommand counts a command sent toward a render context
func (m *Metrics) RecordCommand(msgType string) {
	m.Commands.WithLabelValues(msgType).Inc()
}

// RecordEvent counts an event received from a render context
func (m *Metrics) RecordEvent(msgType string) {
	m.Events.WithLabelValues(msgType).Inc()
}

// ObserveDocumentLoad records one document load duration
func (m *Metrics) ObserveDocumentLoad(d time.Duration) {
	m.DocumentLoads.Observe(d.Seconds())
}

// SessionOpened tracks a session creation
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionClosed tracks a session teardown
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
}

// IncWSConnections increments the websocket connection gauge
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements the websocket connection gauge
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// RecordWSMessage counts one websocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}
