package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	campaignservice "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service"
	campaignhttp "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/transport/http"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(opts Options) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(campaignservice.NewInMemoryModule(logger), logger, opts)
}

func do(t *testing.T, handler http.Handler, method string, path string, body string, user string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// seedCampaign creates a business, playbook and campaign over HTTP.
func seedCampaign(t *testing.T, handler http.Handler, name string) campaignhttp.CampaignDTO {
	t.Helper()
	rr := do(t, handler, http.MethodPost, "/v1/businesses", `{"name":"`+name+`"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	business := decode[campaignhttp.BusinessDTO](t, rr)

	rr = do(t, handler, http.MethodPost, "/v1/businesses/"+business.BusinessID+"/playbooks", `{"name":"Spring"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	playbook := decode[campaignhttp.PlaybookDTO](t, rr)

	rr = do(t, handler, http.MethodPost, "/v1/playbooks/"+playbook.PlaybookID+"/campaigns", `{"name":"Spring menu"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[campaignhttp.CampaignDTO](t, rr)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(Options{})
	rr := do(t, server.Handler(), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestWritesRequireUserHeader(t *testing.T) {
	server := newTestServer(Options{})
	rr := do(t, server.Handler(), http.MethodPost, "/v1/businesses", `{"name":"Anon"}`, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "missing_user", decode[campaignhttp.ErrorResponse](t, rr).Code)
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	server := newTestServer(Options{})
	rr := do(t, server.Handler(), http.MethodPost, "/v1/businesses", `{"name":`, "op-1")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", decode[campaignhttp.ErrorResponse](t, rr).Code)
}

func TestDuplicateBusinessSlugIsConflict(t *testing.T) {
	handler := newTestServer(Options{}).Handler()
	rr := do(t, handler, http.MethodPost, "/v1/businesses", `{"name":"Joe's Diner!!"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "joe-s-diner", decode[campaignhttp.BusinessDTO](t, rr).Slug)

	rr = do(t, handler, http.MethodPost, "/v1/businesses", `{"name":"joe s diner"}`, "op-1")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUnknownCampaignIsNotFound(t *testing.T) {
	handler := newTestServer(Options{}).Handler()
	rr := do(t, handler, http.MethodGet, "/v1/campaigns/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, handler, http.MethodPost, "/v1/campaigns/missing/approve", "", "op-1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLaunchGateOverHTTP(t *testing.T) {
	handler := newTestServer(Options{}).Handler()
	campaign := seedCampaign(t, handler, "Gate Grill")
	base := "/v1/campaigns/" + campaign.CampaignID

	rr := do(t, handler, http.MethodPost, base+"/tasks", `{"title":"Shoot photos"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	task := decode[campaignhttp.TaskDTO](t, rr)
	assert.Equal(t, "human", task.Assignee)

	rr = do(t, handler, http.MethodPost, base+"/content", `{"body":"Weekend brunch"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, handler, http.MethodPost, base+"/launch", `{"reason":"go"}`, "op-1")
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, decode[campaignhttp.ErrorResponse](t, rr).Message, "Shoot photos")

	rr = do(t, handler, http.MethodPost, "/v1/tasks/"+task.TaskID+"/complete", `{"completion_notes":"done"}`, "op-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	completed := decode[campaignhttp.CompleteTaskResponse](t, rr)
	assert.Equal(t, "completed", completed.Task.Status)
	assert.Equal(t, "setup", completed.CampaignStatus)

	rr = do(t, handler, http.MethodPost, "/v1/tasks/"+task.TaskID+"/complete", "", "op-1")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, handler, http.MethodPost, base+"/launch", "", "op-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "live", decode[campaignhttp.CampaignDTO](t, rr).Status)

	rr = do(t, handler, http.MethodGet, "/v1/activity?campaign_id="+campaign.CampaignID+"&limit=2", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	activity := decode[campaignhttp.ListActivityResponse](t, rr)
	require.Len(t, activity.Items, 2)
	assert.Equal(t, "campaign_launched", activity.Items[0].Action)
}

func TestPatchTaskAndListFilters(t *testing.T) {
	handler := newTestServer(Options{}).Handler()
	campaign := seedCampaign(t, handler, "Patch Place")

	rr := do(t, handler, http.MethodPost, "/v1/campaigns/"+campaign.CampaignID+"/tasks", `{"title":"Draft","due_date":"2025-04-01T00:00:00Z","assignee":"system"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	task := decode[campaignhttp.TaskDTO](t, rr)
	require.NotNil(t, task.DueDate)

	rr = do(t, handler, http.MethodPatch, "/v1/tasks/"+task.TaskID, `{"due_date":null,"priority":3}`, "op-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	patched := decode[campaignhttp.TaskDTO](t, rr)
	assert.Nil(t, patched.DueDate)
	assert.Equal(t, 3, patched.Priority)
	assert.Equal(t, "Draft", patched.Title)

	rr = do(t, handler, http.MethodPatch, "/v1/tasks/"+task.TaskID, `{"title":null}`, "op-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, handler, http.MethodGet, "/v1/tasks?assignee=system&campaign_id="+campaign.CampaignID, "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[campaignhttp.ListTasksResponse](t, rr).Items, 1)

	rr = do(t, handler, http.MethodGet, "/v1/tasks?status=archived", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEscalationEndpoints(t *testing.T) {
	handler := newTestServer(Options{}).Handler()
	campaign := seedCampaign(t, handler, "Escalate Inn")

	rr := do(t, handler, http.MethodPost, "/v1/campaigns/"+campaign.CampaignID+"/escalations", `{"title":"Complaint"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	escalation := decode[campaignhttp.EscalationDTO](t, rr)
	assert.Equal(t, "medium", escalation.Severity)

	rr = do(t, handler, http.MethodPost, "/v1/escalations/"+escalation.EscalationID+"/acknowledge", "", "op-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, handler, http.MethodPost, "/v1/escalations/"+escalation.EscalationID+"/acknowledge", "", "op-1")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, handler, http.MethodGet, "/v1/escalations?status=active", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[campaignhttp.ListEscalationsResponse](t, rr).Items, 1)

	rr = do(t, handler, http.MethodPost, "/v1/escalations/"+escalation.EscalationID+"/resolve", `{"resolution":"refunded"}`, "op-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "refunded", decode[campaignhttp.EscalationDTO](t, rr).Resolution)
}

func TestActivityRejectsBadLimit(t *testing.T) {
	handler := newTestServer(Options{}).Handler()
	rr := do(t, handler, http.MethodGet, "/v1/activity?limit=ten", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_limit", decode[campaignhttp.ErrorResponse](t, rr).Code)

	rr = do(t, handler, http.MethodGet, "/v1/activity?limit=-3", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWriteRateLimit(t *testing.T) {
	handler := newTestServer(Options{RateLimitPerSecond: 0.001, RateLimitBurst: 1}).Handler()

	rr := do(t, handler, http.MethodPost, "/v1/businesses", `{"name":"First"}`, "op-1")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, handler, http.MethodPost, "/v1/businesses", `{"name":"Second"}`, "op-1")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate_limited", decode[campaignhttp.ErrorResponse](t, rr).Code)

	// Reads are not limited.
	rr = do(t, handler, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpointRecordsRoutes(t *testing.T) {
	registry := metrics.NewRegistry()
	handler := newTestServer(Options{Metrics: registry}).Handler()

	do(t, handler, http.MethodGet, "/healthz", "", "")
	do(t, handler, http.MethodGet, "/v1/campaigns/nope", "", "")

	rr := do(t, handler, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `campaigns_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`), body)
	assert.Contains(t, body, `route="GET /v1/campaigns/{campaign_id}",status="404"`)
}
