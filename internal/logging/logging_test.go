package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
	assert.True(t, ValidLevel("error"))
	assert.False(t, ValidLevel("verbose"))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)

	l := FromContext(ctx)
	l.Info().Msg("hello")
	assert.Equal(t, "hello", decode(t, &buf)["message"])

	// a missing logger falls back to a no-op
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
}

func TestLogTrade(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	LogTrade(WithAccount(zerolog.New(&buf), "acc-1"), "closed", "T250115-AB3D", "EURUSD", "Buy")

	m := decode(t, &buf)
	assert.Equal(t, "trade", m["event"])
	assert.Equal(t, "acc-1", m["account_id"])
	assert.Equal(t, "T250115-AB3D", m["trade_code"])
	assert.Equal(t, "Trade closed", m["message"])
}

func TestLogBalanceLevel(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	LogBalance(zerolog.New(&buf), "acc-1", 100, 150)
	assert.Equal(t, "info", decode(t, &buf)["level"])

	buf.Reset()
	LogBalance(zerolog.New(&buf), "acc-1", 150, 150)
	assert.Equal(t, "debug", decode(t, &buf)["level"])
}

func TestLogAPICall(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	LogAPICall(zerolog.New(&buf), "GET", "/api/stats", 500, time.Millisecond, errors.New("boom"))

	m := decode(t, &buf)
	assert.Equal(t, "boom", m["error"])
	assert.Equal(t, float64(500), m["status"])
}

func TestNewLoggerWithConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tv.log")
	logger := NewLoggerWithConfig(LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1})
	logger.Info().Msg("to file")
	assert.FileExists(t, path)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}
