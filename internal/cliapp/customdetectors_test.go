package cliapp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomDetectorsCreateExamplesWritesToStdout(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"custom-detectors", "create-examples"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "no-console-log")
}

func TestCustomDetectorsListShowsBuiltinsAndProfiles(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"custom-detectors", "list"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "TODO")
	assert.Contains(t, out.String(), "security")
}

func TestCustomDetectorsLoadValidatesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\npattern: foo\nseverity: high\ncategory: security\n"), 0644))

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"custom-detectors", "load", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "x\thigh\tsecurity")
}

func TestCustomDetectorsTestRunsAgainstTarget(t *testing.T) {
	docPath := filepath.Join(t.TempDir(), "d.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte("name: my-check\npattern: forbidden\nenabled: true\n"), 0644))

	targetPath := filepath.Join(t.TempDir(), "target.txt")
	require.NoError(t, os.WriteFile(targetPath, []byte("this is forbidden\n"), 0644))

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"custom-detectors", "test", docPath, targetPath})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "my-check")
}
