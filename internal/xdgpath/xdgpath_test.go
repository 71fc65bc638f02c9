package xdgpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHonorsDocbertDataDir(t *testing.T) {
	t.Setenv("DOCBERT_DATA_DIR", "/tmp/explicit-docbert")
	dir, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit-docbert", dir)
}

func TestResolveHonorsXDGDataHome(t *testing.T) {
	t.Setenv("DOCBERT_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	dir, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "docbert"), dir)
}

func TestBootstrapCreatesDataDirAndDerivesPaths(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "docbert")
	t.Setenv("DOCBERT_DATA_DIR", target)

	paths, err := Bootstrap()
	require.NoError(t, err)

	info, err := os.Stat(paths.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, filepath.Join(target, ConfigDBName), paths.ConfigDB)
	assert.Equal(t, filepath.Join(target, EmbeddingsDBName), paths.EmbeddingsDB)
	assert.Equal(t, filepath.Join(target, TextIndexDirName), paths.TextIndexDir)
}
