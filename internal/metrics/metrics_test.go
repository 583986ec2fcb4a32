package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTool(t *testing.T) {
	m := New()
	m.ObserveTool("list_jobs", true, 10*time.Millisecond)
	m.ObserveTool("list_jobs", false, time.Millisecond)
	m.ObserveTool("list_jobs", false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("list_jobs", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("list_jobs", "failure")))
}

func TestObserveUpstreamAndCache(t *testing.T) {
	m := New()
	m.ObserveUpstream("GET", 503, time.Millisecond)
	m.ObserveUpstream("GET", 0, time.Millisecond)
	m.ObserveRetry()
	m.ObserveCache(true)
	m.ObserveCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("GET", "503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("GET", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTool("x", true, 0)
		m.ObserveUpstream("GET", 200, 0)
		m.ObserveRetry()
		m.ObserveCache(true)
		m.ObserveHTTP("GET", "/", 200, 0)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP("POST", "/mcp-api", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cml_mcp_http_requests_total{method="POST",path="/mcp-api",status="200"} 1`)
}
