package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequestAndCountEvent(t *testing.T) {
	registry := NewRegistry()
	registry.RecordRequest(http.MethodPost, "POST /v1/businesses", http.StatusCreated, 0.02)
	registry.RecordRequest(http.MethodPost, "POST /v1/businesses", http.StatusCreated, 0.03)
	registry.CountEvent("campaign.launched")

	assert.InDelta(t, 2, testutil.ToFloat64(registry.requestsTotal.WithLabelValues(http.MethodPost, "POST /v1/businesses", "201")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(registry.lifecycleEvents.WithLabelValues("campaign.launched")), 0)

	families, err := registry.Gatherer().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["campaigns_http_request_duration_seconds"])
	assert.True(t, names["go_goroutines"])
}

func TestHandlerServesExposition(t *testing.T) {
	registry := NewRegistry()
	registry.CountEvent("task.completed")

	rr := httptest.NewRecorder()
	registry.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `campaigns_lifecycle_events_total{event_type="task.completed"} 1`)
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := NewRegistry()
	second := NewRegistry()
	first.CountEvent("campaign.paused")
	assert.InDelta(t, 0, testutil.ToFloat64(second.lifecycleEvents.WithLabelValues("campaign.paused")), 0)
}
