package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.ObserveTurn(OutcomeOK)
	m.ObserveTurn(OutcomeOK)
	m.ObserveTurn(OutcomeUpstream)
	m.SessionCreated()
	m.SessionDeleted()
	m.ObserveHTTP("POST /api/session", "200", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(OutcomeUpstream)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsDeletedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST /api/session", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveTurn(OutcomeOK)
		m.ObserveUpstream(time.Second)
		m.ObserveHTTP("x", "200", time.Second)
		m.SessionCreated()
		m.SessionDeleted()
	})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.SessionCreated()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sweep_sessions_created_total 1")
}

func TestMetricsRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveTurn(OutcomeStorage)

	n, err := testutil.GatherAndCount(m.Registry(), "sweep_conversation_turns_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a second Metrics owns its own registry
	other := NewMetrics()
	n, err = testutil.GatherAndCount(other.Registry(), "sweep_conversation_turns_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}
