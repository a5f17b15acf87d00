package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mgpai22/subdeck/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "console", false},
		{"info", "json", false},
		{"warn", "", false},
		{"loud", "console", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		logger, err := New(tt.level, tt.format)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.level, tt.format)
			continue
		}
		require.NoError(t, err, "%s/%s", tt.level, tt.format)
		assert.NotNil(t, logger.SugaredLogger)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	assert.True(t, NewLogger(true).Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.False(t, NewLogger(false).Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, NewLogger(false).Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNewFromConfig(t *testing.T) {
	logger, err := NewFromConfig(config.LogConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Desugar().Core().Enabled(zapcore.WarnLevel))
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := Wrap(zap.New(core)).With("request_id", "abc")

	logger.Infow("rendered", "cues", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "rendered", entry.Message)
	assert.Equal(t, "abc", entry.ContextMap()["request_id"])
	assert.EqualValues(t, 3, entry.ContextMap()["cues"])
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Infow("ignored", "k", "v")
	logger.Sync()
}
