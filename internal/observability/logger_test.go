package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/cuakit/internal/config"
)

func TestGetLogger_FallsBackBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
}

func TestInitialize_RunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	InitializeLogger(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "first"})
	first := GetLogger()

	// A second initialization must not replace the logger.
	InitializeLogger(config.LoggerConfig{Level: "error", Format: "json", ServiceName: "second"})
	assert.Same(t, first, GetLogger())
}

func TestInitialize_RespectsConfiguredLevel(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	InitializeLogger(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "cuakit"})
	logger := GetLogger()

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInitialize_InvalidLevelDefaultsToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	InitializeLogger(config.LoggerConfig{Level: "chatty", Format: "console", ServiceName: "cuakit"})
	logger := GetLogger()

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
