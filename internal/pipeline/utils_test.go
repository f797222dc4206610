package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("warn")
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	SetLogger(l)
	defer SetLogger(nil)
	warnf("logger wired: %d", 1)
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", normalizeWhitespace("  hello \n\t  world  "))
	assert.Equal(t, "", normalizeWhitespace("   "))
}

func TestTruncateDisplay(t *testing.T) {
	assert.Equal(t, "Hello...", truncateDisplay("Hello World", 8))
	assert.Equal(t, "短い", truncateDisplay("短い", 10))
	assert.Equal(t, "中文...", truncateDisplay("中文标题很长", 7))
	assert.Equal(t, "unchanged", truncateDisplay("unchanged", 0))
}
