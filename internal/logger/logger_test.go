package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapLogger(Options{Level: "warn", Console: &buf})

	l.Info("source", "hidden", nil)
	l.Warn("source", "shown", map[string]any{"rows": 3})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "source")
}

func TestZapLogger_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clientdash.log")
	var console bytes.Buffer
	l := NewZapLogger(Options{FilePath: path, Console: &console})

	l.Info("chat", "message sent", map[string]any{"id": "abc"})
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"message sent"`)
	assert.Contains(t, string(data), `"module":"chat"`)
}

func TestZapLogger_ErrorAttachesError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Error("source", "fetch failed", map[string]any{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "source", ctx["module"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Debug("m", "x", nil)
	l.Error("m", "x", map[string]any{"error": errors.New("ignored")})
	assert.NoError(t, l.Sync())
}
