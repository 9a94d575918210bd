package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestConfigureJSON(t *testing.T) {
	defer Configure(Options{})

	var buf bytes.Buffer
	Configure(Options{Level: "warn", JSON: true, Output: &buf})

	L().Info("dropped")
	With("runner").Warn("kept", "count", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "runner", rec["component"])
	assert.Equal(t, float64(3), rec["count"])
}

func TestInitFromEnv(t *testing.T) {
	defer Configure(Options{})

	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvJSON, "true")
	InitFromEnv()

	assert.True(t, L().Enabled(context.Background(), slog.LevelDebug))
	_, isJSON := L().Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
}
