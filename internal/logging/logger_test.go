package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LevelParsing(t *testing.T) {
	Init("debug", "text")
	require.NotNil(t, Logger)
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelDebug))

	Init("error", "text")
	assert.False(t, Logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelError))
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	Init("verbose", "text")
	assert.False(t, Logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, Logger.Enabled(context.Background(), slog.LevelInfo))
}
