package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestLevelFromEnvDefaultsToInfo(t *testing.T) {
	t.Setenv("DOCBERT_LOG", "")
	assert.Equal(t, "info", LevelFromEnv())

	t.Setenv("DOCBERT_LOG", "debug")
	assert.Equal(t, "debug", LevelFromEnv())
}

func TestSetupWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docbert.log")

	logger, cleanup, err := Setup(Config{
		Level:         "info",
		FilePath:      path,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello", slog.String("k", "v"))
	cleanup()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"hello"`)
	assert.Contains(t, string(raw), `"k":"v"`)
}
