package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerCarriesServiceAndProcess(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	logger := New(cfg, "api", &buf)

	logger.Info("campaign launched", "event", "campaign_launched", "campaign_id", "c-1")
	logger.Debug("suppressed at info")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "garden-campaigns", record["service"])
	assert.Equal(t, "api", record["process"])
	assert.Equal(t, "campaign_launched", record["event"])
	assert.NotContains(t, buf.String(), "suppressed")
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Format = "text"
	cfg.Log.Level = "WARN"
	logger := New(cfg, "worker", &buf)

	logger.Info("hidden")
	logger.Warn("visible", "event", "bus_publish_drop")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "event=bus_publish_drop")
	assert.Contains(t, buf.String(), "process=worker")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}
