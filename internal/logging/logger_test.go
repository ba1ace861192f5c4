package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather/internal/config"
)

func TestProdLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, &config.AppConfig{AppEnv: "prod", LogLevel: slog.LevelInfo}, "farm-weather")

	logger.Debug("hidden")
	logger.Info("served", "source", "mock")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "served", line["msg"])
	assert.Equal(t, "mock", line["source"])
	assert.Equal(t, "farm-weather", line["app"])
	assert.Equal(t, "prod", line["env"])
}

func TestDevLoggerWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, &config.AppConfig{AppEnv: "dev", LogLevel: slog.LevelDebug}, "farm-weather")

	logger.Debug("station reading stored", "station_id", "north")

	out := buf.String()
	assert.Contains(t, out, "station reading stored")
	assert.Contains(t, out, "north")
}
