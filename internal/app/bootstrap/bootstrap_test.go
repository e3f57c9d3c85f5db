package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	postgresadapter "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/postgres"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "campaigns.db")
	cfg.Database.AutoMigrate = true
	cfg.Worker.PollInterval = 10 * time.Millisecond
	cfg.Worker.MetricsPort = "127.0.0.1:0"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, handler http.Handler, path string, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "op-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Less(t, rr.Code, 300, rr.Body.String())
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestMigrateCreatesSchema(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Database.AutoMigrate = false
	require.NoError(t, Migrate(cfg, quietLogger()))
	require.NoError(t, Migrate(cfg, quietLogger()), "migrations are repeatable")
}

func TestMigrateRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Database.Driver = "mysql"
	require.Error(t, Migrate(cfg, quietLogger()))
}

func TestAPIAndWorkerShareTheOutbox(t *testing.T) {
	cfg := sqliteConfig(t)

	api, err := BuildAPI(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = api.Close() })
	handler := api.server.Handler()

	business := post(t, handler, "/v1/businesses", `{"name":"Bootstrap Bakery"}`)
	playbook := post(t, handler, "/v1/businesses/"+business["business_id"].(string)+"/playbooks", `{"name":"Autumn"}`)
	campaign := post(t, handler, "/v1/playbooks/"+playbook["playbook_id"].(string)+"/campaigns", `{"name":"Pumpkin bread"}`)
	approved := post(t, handler, "/v1/campaigns/"+campaign["campaign_id"].(string)+"/approve", "")
	assert.Equal(t, "approved", approved["status"])

	worker, err := BuildWorker(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = worker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	repo := postgresadapter.NewRepository(worker.database.DB, nil)
	require.Eventually(t, func() bool {
		pending, err := repo.ListPendingOutbox(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return lifecycleEventsCounted(t, worker) >= 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

// lifecycleEventsCounted sums the consumer counter across event types.
func lifecycleEventsCounted(t *testing.T, worker *WorkerApp) float64 {
	t.Helper()
	families, err := worker.metrics.Gatherer().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != "campaigns_lifecycle_events_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, ":8080", normalizeAddr(""))
	assert.Equal(t, ":9091", normalizeAddr("9091"))
	assert.Equal(t, "127.0.0.1:0", normalizeAddr("127.0.0.1:0"))
}
