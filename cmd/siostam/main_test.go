package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_VerbosityPicksDefaultLevel(t *testing.T) {
	info, err := newLogger(0)
	require.NoError(t, err)
	assert.False(t, info.Core().Enabled(zapcore.DebugLevel))

	debug, err := newLogger(1)
	require.NoError(t, err)
	assert.True(t, debug.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_EnvLevelWinsOverVerbosity(t *testing.T) {
	t.Setenv("SIOSTAM_LOG_LEVEL", "warn")

	logger, err := newLogger(1)

	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	t.Setenv("SIOSTAM_LOG_LEVEL", "loud")

	_, err := newLogger(0)

	assert.Error(t, err)
}

func TestEnvOr(t *testing.T) {
	t.Setenv("SIOSTAM_CONFIG", "other.yaml")
	assert.Equal(t, "other.yaml", envOr("SIOSTAM_CONFIG", "siostam.yaml"))

	assert.Equal(t, "siostam.yaml", envOr("SIOSTAM_ABSENT", "siostam.yaml"))
}
