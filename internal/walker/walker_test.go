package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverFindsIndexableExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hello.md"), "# Hello")
	writeFile(t, filepath.Join(root, "notes.txt"), "notes")
	writeFile(t, filepath.Join(root, "image.png"), "binary")

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "hello.md", files[0].RelativePath)
	assert.Equal(t, "notes.txt", files[1].RelativePath)
}

func TestDiscoverSkipsHiddenDirectoriesAndFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "config.md"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden.md"), "ignored")
	writeFile(t, filepath.Join(root, "visible.md"), "kept")

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "visible.md", files[0].RelativePath)
}

func TestDiscoverRecursesIntoNestedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "deep.md"), "deep")

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a/b/deep.md", files[0].RelativePath)
}

func TestDiscoverResultsAreSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.md"), "z")
	writeFile(t, filepath.Join(root, "a.md"), "a")

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.md", files[0].RelativePath)
	assert.Equal(t, "z.md", files[1].RelativePath)
}
