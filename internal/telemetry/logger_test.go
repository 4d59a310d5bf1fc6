package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelInfo, LogFormatJSON)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Warn("lookup failed", "type", "dependency_lookup_failure")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "lookup failed", rec["msg"])
	assert.Equal(t, "dependency_lookup_failure", rec["type"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelDebug, "")
	require.NoError(t, err)

	logger.Debug("walking", "root", "/src")
	assert.Contains(t, buf.String(), "msg=walking")
	assert.Contains(t, buf.String(), "root=/src")
}

func TestNewLogger_UnknownFormat(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
