package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-oit/code-guardian/internal/config"
	"github.com/d-oit/code-guardian/internal/fingerprint"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/registry"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
}

func newTestScanner(t *testing.T, cfg *config.ScanConfig, known map[string]string) *Scanner {
	t.Helper()
	reg, err := registry.New()
	require.NoError(t, err)
	sc, err := New(cfg, reg, known)
	require.NoError(t, err)
	return sc
}

func TestScanFindsMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO: fix this\npackage a\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}

	sc := newTestScanner(t, cfg, nil)
	res, err := sc.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "a.go", res.Matches[0].FilePath)
	assert.Equal(t, int64(1), res.Metrics.FilesScanned)
	assert.Equal(t, int64(1), res.Metrics.MatchesTotal)
}

func TestScanSkipsBinaryEncodingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0xff, 0xfe, 0x00, 0xff}, 0644))

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}

	sc := newTestScanner(t, cfg, nil)
	res, err := sc.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Matches)
	assert.Equal(t, int64(1), res.Metrics.FilesSkippedEncoding)
	assert.Equal(t, int64(0), res.Metrics.FilesScanned)
}

func TestScanCacheHitsOnSecondRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO: fix\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}

	sc := newTestScanner(t, cfg, nil)
	_, err := sc.Scan(context.Background())
	require.NoError(t, err)

	res2, err := sc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res2.Metrics.CacheHits)
	assert.Equal(t, int64(0), res2.Metrics.CacheMisses)
}

func TestScanPopulatesLastFileFingerprints(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}

	sc := newTestScanner(t, cfg, nil)
	_, err := sc.Scan(context.Background())
	require.NoError(t, err)

	fps := sc.LastFileFingerprints()
	require.Contains(t, fps, "a.go")
	assert.Len(t, fps["a.go"], 64)
}

func TestScanIncrementalSkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO: a\n")
	writeFile(t, root, "b.go", "// TODO: b\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}
	cfg.Incremental = true

	known := map[string]string{"a.go": fingerprintOf(t, "// TODO: a\n")}

	sc := newTestScanner(t, cfg, known)
	res, err := sc.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "b.go", res.Matches[0].FilePath)
	assert.Equal(t, int64(1), res.Metrics.FilesScanned)
}

func fingerprintOf(t *testing.T, content string) string {
	t.Helper()
	return fingerprint.Content([]byte(content))
}

func TestScanResultsAreCanonicallySorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "// TODO: x\n")
	writeFile(t, root, "a.go", "// TODO: y\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}

	sc := newTestScanner(t, cfg, nil)
	res, err := sc.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Matches, 2)
	assert.True(t, match.Less(res.Matches[0], res.Matches[1]) || res.Matches[0] == res.Matches[1])
	assert.Equal(t, "a.go", res.Matches[0].FilePath)
}

func TestScanStreamingEmitsViaSink(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO: x\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.EnabledDetectors = []string{"TODO"}
	cfg.Streaming = true

	sc := newTestScanner(t, cfg, nil)

	var seen []match.Match
	sink := &recordingSink{onMatch: func(m match.Match) { seen = append(seen, m) }}

	res, err := sc.ScanStreaming(context.Background(), sink)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
	assert.Equal(t, res.Matches, seen)
}

type recordingSink struct {
	onMatch func(match.Match)
}

func (r *recordingSink) OnMatch(m match.Match)          { r.onMatch(m) }
func (r *recordingSink) OnFileDone(path string)         {}
func (r *recordingSink) OnError(path string, err error) {}
func (r *recordingSink) OnDone()                        {}
