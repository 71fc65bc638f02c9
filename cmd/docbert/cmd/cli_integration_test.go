package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestCLI_CollectionLifecycle(t *testing.T) {
	docsDir := t.TempDir()
	writeTestDoc(t, docsDir, "a.md", "# Alpha\n\nAlpha body text about rockets.")

	t.Setenv("DOCBERT_DATA_DIR", t.TempDir())

	out, err := runCLI(t, "collection", "add", "docs", docsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "docs")

	out, err = runCLI(t, "collection", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, docsDir)

	out, err = runCLI(t, "collection", "remove", "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "docs")
}

func TestCLI_SyncThenSearch(t *testing.T) {
	docsDir := t.TempDir()
	writeTestDoc(t, docsDir, "rockets.md", "# Rockets\n\nA rocket is propelled by combustion.")
	writeTestDoc(t, docsDir, "gardening.md", "# Gardening\n\nTomatoes need sunlight and water.")

	t.Setenv("DOCBERT_DATA_DIR", t.TempDir())

	_, err := runCLI(t, "collection", "add", "docs", docsDir)
	require.NoError(t, err)

	out, err := runCLI(t, "sync", "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "+2 new")

	out, err = runCLI(t, "search", "rocket")
	require.NoError(t, err)
	assert.Contains(t, out, "rockets.md")
}

func TestCLI_StatusReportsDocumentCounts(t *testing.T) {
	docsDir := t.TempDir()
	writeTestDoc(t, docsDir, "one.md", "# One\n\nfirst document body.")

	t.Setenv("DOCBERT_DATA_DIR", t.TempDir())

	_, err := runCLI(t, "collection", "add", "docs", docsDir)
	require.NoError(t, err)
	_, err = runCLI(t, "sync", "docs")
	require.NoError(t, err)

	out, err := runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "1")

	out, err = runCLI(t, "status", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "modelid:")
}

func TestCLI_RebuildReindexesAfterClear(t *testing.T) {
	docsDir := t.TempDir()
	writeTestDoc(t, docsDir, "one.md", "# One\n\nfirst document body.")

	t.Setenv("DOCBERT_DATA_DIR", t.TempDir())

	_, err := runCLI(t, "collection", "add", "docs", docsDir)
	require.NoError(t, err)
	_, err = runCLI(t, "sync", "docs")
	require.NoError(t, err)

	out, err := runCLI(t, "rebuild", "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "+1 new")
}

func TestCLI_GetReturnsNotFoundForUnknownID(t *testing.T) {
	t.Setenv("DOCBERT_DATA_DIR", t.TempDir())

	_, err := runCLI(t, "get", "deadbeef")
	assert.Error(t, err)
}

// runCLI executes one root command invocation against whatever
// DOCBERT_DATA_DIR the caller has already set via t.Setenv, so state
// (registered collections) persists across the commands that make up
// one scenario.
func runCLI(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--offline"}, args...))

	err = cmd.Execute()
	return buf.String(), err
}
