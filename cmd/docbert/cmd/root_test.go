package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "docbert", "help should mention program name")
	assert.Contains(t, output, "Usage:", "help should show usage")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	hasVersion := strings.Contains(output, "0.1") || strings.Contains(output, "dev")
	assert.True(t, hasVersion, "version output should contain a version number or 'dev'")
	assert.Contains(t, output, "docbert")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	subcommands := cmd.Commands()

	var names []string
	for _, sub := range subcommands {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "collection")
	assert.Contains(t, names, "context")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "ssearch")
	assert.Contains(t, names, "get")
	assert.Contains(t, names, "multi-get")
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "rebuild")
	assert.Contains(t, names, "model")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "mcp")
	assert.Contains(t, names, "version")
}

func TestRootCmd_HasOfflineFlag(t *testing.T) {
	cmd := NewRootCmd()

	flag := cmd.Flags().Lookup("offline")
	assert.NotNil(t, flag, "should have --offline flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestRootCmd_HasDebugFlag(t *testing.T) {
	cmd := NewRootCmd()

	flag := cmd.Flags().Lookup("debug")
	assert.NotNil(t, flag, "should have --debug flag")
}

func TestSearchCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"search", "--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "search")
}

func TestSyncCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"sync", "--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "--watch")
	assert.Contains(t, output, "--all")
}

func TestCollectionCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	collectionCmd, _, err := cmd.Find([]string{"collection"})
	require.NoError(t, err)

	var names []string
	for _, sub := range collectionCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "remove")
	assert.Contains(t, names, "list")
}
