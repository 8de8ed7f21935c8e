package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordAnalyst(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordAnalyst("technical", "completed", 0.2)
	r.RecordAnalyst("technical", "completed", 0.3)
	r.RecordAnalyst("capital", "timeout", 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analystRuns.WithLabelValues("technical", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analystRuns.WithLabelValues("capital", "timeout")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.analystDuration))
}

func TestRecorder_RecordDecision(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordDecision("600519", "hold", 51.1)
	r.RecordDecision("600519", "buy", 63.4)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("hold")))
	assert.Equal(t, 63.4, testutil.ToFloat64(r.composite.WithLabelValues("600519")), "gauge keeps the latest")
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordStage("S1_ANALYSTS", 1.5)
	r.RecordError("provider")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `zuwa_errors_total{type="provider"} 1`))
	assert.Contains(t, string(body), "zuwa_stage_duration_seconds_count")
	assert.Contains(t, string(body), "go_goroutines")
}
