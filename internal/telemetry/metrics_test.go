package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/secure-scanner/internal/finding"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Registering twice must not panic since each instance owns its registry.
	a := NewMetrics()
	b := NewMetrics()
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestObserveScan(t *testing.T) {
	m := NewMetrics()

	findings := []finding.Finding{
		finding.New(finding.CategoryDangerousFunction, finding.SeverityHigh, 3, "eval"),
		finding.New(finding.CategoryDangerousFunction, finding.SeverityHigh, 9, "exec"),
		finding.New(finding.CategoryUnsafeDeserialization, finding.SeverityCritical, 1, "pickle"),
	}
	m.ObserveScan(50*time.Millisecond, 4, findings, nil)
	m.ObserveScan(time.Millisecond, 0, nil, errors.New("boom"))
	m.TrackLookupFailure()

	body := scrape(t, m)
	assert.Contains(t, body, `scanner_findings_total{category="dangerous_function",severity="high"} 2`)
	assert.Contains(t, body, `scanner_findings_total{category="unsafe_deserialization",severity="critical"} 1`)
	assert.Contains(t, body, `scanner_scans_total{outcome="ok"} 1`)
	assert.Contains(t, body, `scanner_scans_total{outcome="error"} 1`)
	assert.Contains(t, body, "scanner_files_scanned_total 4")
	assert.Contains(t, body, "scanner_dependency_lookup_failures_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveScan(time.Second, 1, nil, nil)
	m.TrackLookupFailure()
}

func TestRequestTrackingMiddleware(t *testing.T) {
	m := NewMetrics()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	wrapped := m.RequestTrackingMiddleware(func(*http.Request) string { return "/brew" })(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/brew/123", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t, m)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/brew",status="418"} 1`)
}
