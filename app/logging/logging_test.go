package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	Init(Config{Level: level, Format: "json", Output: &buf})
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestInitLevelFilters(t *testing.T) {
	buf := captureLogger(t, "warn")

	Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	Warn().Str("k", "v").Msg("shown")
	entry := decode(t, buf)
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "warn", entry["level"])
}

func TestCtxAddsRequestID(t *testing.T) {
	buf := captureLogger(t, "info")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	Ctx(ctx).Info().Msg("hello")
	assert.Equal(t, "req-1", decode(t, buf)["request_id"])
}

func TestSlogHandler(t *testing.T) {
	buf := captureLogger(t, "info")

	logger := NewSlogLogger().WithGroup("evt").With("service", "http")
	logger.Warn("restarting", "attempt", 2)

	entry := decode(t, buf)
	assert.Equal(t, "restarting", entry["message"])
	assert.Equal(t, "http", entry["evt.service"])
	assert.Equal(t, float64(2), entry["evt.attempt"])

	assert.False(t, NewSlogHandler(Logger()).Enabled(context.Background(), slog.LevelDebug))
}
