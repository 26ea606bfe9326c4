package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	framesTotal          *prometheus.CounterVec
	classifyDuration     *prometheus.HistogramVec
	alertTransitions     *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	evidenceUploadsTotal *prometheus.CounterVec
	activeMonitors       prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		framesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_sampled_total",
				Help:      "Sampling cycles by outcome",
			},
			[]string{"outcome"},
		),

		classifyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "classify_duration_seconds",
				Help:      "Latency of vision classification calls",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"result"},
		),

		alertTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alert_transitions_total",
				Help:      "Alert state machine transitions by target state",
			},
			[]string{"to"},
		),

		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Emergency notifications by channel and result",
			},
			[]string{"channel", "result"},
		),

		evidenceUploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evidence_uploads_total",
				Help:      "Evidence photo uploads by result",
			},
			[]string{"result"},
		),

		activeMonitors: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_monitors",
				Help:      "Number of users currently being monitored",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordFrame(outcome string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordClassification(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.classifyDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *Metrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.alertTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordNotification(channel string, success bool) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(channel, result(success)).Inc()
}

func (m *Metrics) RecordEvidenceUpload(success bool) {
	if m == nil {
		return
	}
	m.evidenceUploadsTotal.WithLabelValues(result(success)).Inc()
}

func (m *Metrics) MonitorStarted() {
	if m == nil {
		return
	}
	m.activeMonitors.Inc()
}

func (m *Metrics) MonitorStopped() {
	if m == nil {
		return
	}
	m.activeMonitors.Dec()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
