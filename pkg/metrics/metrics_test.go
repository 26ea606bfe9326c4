package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics("test")

	m.RecordFrame("classified")
	m.RecordFrame("classified")
	m.RecordFrame("no_stream")
	m.RecordNotification("sms", true)
	m.RecordNotification("call", false)
	m.RecordTransition("alert_pending")
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	m.MonitorStarted()
	m.MonitorStarted()
	m.MonitorStopped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesTotal.WithLabelValues("classified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesTotal.WithLabelValues("no_stream")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("call", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/health", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeMonitors))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFrame("x")
		m.RecordClassification("ok", time.Second)
		m.RecordTransition("idle")
		m.RecordNotification("sms", true)
		m.RecordEvidenceUpload(false)
		m.MonitorStarted()
		m.MonitorStopped()
	})
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("a")
		NewMetrics("a")
	})
}
