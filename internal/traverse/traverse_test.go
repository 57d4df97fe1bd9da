package traverse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-oit/code-guardian/internal/fingerprint"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
}

func TestWalkReturnsSortedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b")
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "sub/c.go", "package c")

	entries, diags, err := Walk(Options{Root: root})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.go", entries[0].Path)
	assert.Equal(t, "b.go", entries[1].Path)
	assert.Equal(t, "sub/c.go", entries[2].Path)
}

func TestWalkExcludesDefaultDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", "package keep")
	writeFile(t, root, "node_modules/dep.js", "skip me")
	writeFile(t, root, "vendor/lib.go", "skip me")

	entries, _, err := Walk(Options{Root: root})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.go", entries[0].Path)
}

func TestWalkHonorsIncludeExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x")
	writeFile(t, root, "a.py", "x")

	entries, _, err := Walk(Options{Root: root, IncludeExtensions: []string{".go"}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.go", entries[0].Path)
}

func TestWalkHonorsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x")
	writeFile(t, root, "a_test.go", "x")

	entries, _, err := Walk(Options{Root: root, ExcludeGlobs: []string{"**/*_test.go"}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.go", entries[0].Path)
}

func TestWalkReportsTooLargeDiagnostic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", "0123456789")

	entries, diags, err := Walk(Options{Root: root, MaxFileSize: 5})
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagTooLarge, diags[0].Kind)
	assert.Equal(t, "big.go", diags[0].Path)
}

func TestWalkRootNotFound(t *testing.T) {
	_, _, err := Walk(Options{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestWalkExplicitFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x")
	writeFile(t, root, "b.go", "x")

	entries, _, err := Walk(Options{Root: root, ExplicitFiles: []string{"a.go"}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.go", entries[0].Path)
}

func TestWalkIncrementalSkipsUnchangedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "b.go", "package b")

	known := map[string]string{
		"a.go": fingerprint.Content([]byte("package a")),
		"b.go": fingerprint.Content([]byte("stale content")),
	}

	entries, _, err := Walk(Options{Root: root, Incremental: true, KnownFingerprints: known})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.go", entries[0].Path)
}

func TestWalkIncrementalYieldsUnknownFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "new.go", "package new")

	entries, _, err := Walk(Options{Root: root, Incremental: true, KnownFingerprints: map[string]string{}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new.go", entries[0].Path)
}

func TestWalkExcludesHiddenEntriesByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".hidden/a.go", "x")
	writeFile(t, root, "visible.go", "x")

	entries, _, err := Walk(Options{Root: root})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible.go", entries[0].Path)
}
