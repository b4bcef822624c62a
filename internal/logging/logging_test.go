package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestInitWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf, "warn"))
	t.Cleanup(func() { _ = InitWriter(&bytes.Buffer{}, "info") })

	L().Info("hidden")
	L().Warn("session expired", zap.String("session", "s1"))
	Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "session expired")
	assert.Contains(t, out, "s1")
}
