package observability

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.SwapsDetected.WithLabelValues("Jupiter").Inc()
	m.SwapsDetected.WithLabelValues("Jupiter").Inc()
	m.ProbesAcked.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SwapsDetected.WithLabelValues("Jupiter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesAcked))
}

func TestRecordHelpers_UpdateDefaultMetrics(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.SwapsDetected.WithLabelValues("Raydium CLMM"))
	RecordSwap("Raydium CLMM")
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.SwapsDetected.WithLabelValues("Raydium CLMM")))

	UpdateHighestSlot(123)
	assert.Equal(t, 123.0, testutil.ToFloat64(DefaultMetrics.HighestSlotSeen))

	SetSessionState(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(DefaultMetrics.SessionState))
}

func TestHandler_ServesMetrics(t *testing.T) {
	RecordRestart()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pool_monitor_session_restarts_total"))
}
