package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestWithService_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")

	WithService("maintenance").Info("request approved", "request_id", 7)

	out := buf.String()
	assert.Contains(t, out, `"service":"maintenance"`)
	assert.Contains(t, out, `"request_id":7`)
	assert.Contains(t, out, `"msg":"request approved"`)
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "text")

	Debug("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
