package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")

	closer, err := Init(Config{Level: "debug", Format: "json", File: logFile})
	require.NoError(t, err)
	require.NotNil(t, closer)

	Info().Str("session_id", "s-1").Msg("会话已创建")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"s-1"`)
	assert.Contains(t, string(data), "会话已创建")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitFallsBackToInfoLevel(t *testing.T) {
	closer, err := Init(Config{Level: "not-a-level"})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestCtxWithoutLoggerReturnsGlobal(t *testing.T) {
	_, err := Init(Config{Level: "info"})
	require.NoError(t, err)

	l := Ctx(context.Background())
	require.NotNil(t, l)
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())

	ctx := WithContext(context.Background())
	assert.NotNil(t, zerolog.Ctx(ctx))
}
