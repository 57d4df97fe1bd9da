package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/result"
)

func sampleResult() result.ScanResult {
	return result.ScanResult{
		ID:        7,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Root:      "/repo",
		Matches: []match.Match{
			{FilePath: "a.go", Line: 1, Column: 2, Pattern: "TODO", Message: "todo found", Severity: match.SeverityLow, Category: match.CategoryCodeQuality},
			{FilePath: "b.go", Line: 3, Column: 4, Pattern: "FIXME", Message: "fixme found", Severity: match.SeverityMedium, Category: match.CategoryCodeQuality},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := Parse("json")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	_, err = Parse("xml")
	assert.Error(t, err)
}

func TestWriteResultText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, sampleResult(), Text, false))
	out := buf.String()
	assert.Contains(t, out, "a.go:1:2: [low] todo found (TODO)")
	assert.Contains(t, out, "total: 2")
}

func TestWriteResultJSONContractFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, sampleResult(), JSON, false))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, float64(7), doc["id"])
	assert.Equal(t, "/repo", doc["root"])
	assert.Contains(t, doc, "matches")
	assert.Contains(t, doc, "summary")
	assert.Equal(t, "2026-01-02T03:04:05Z", doc["timestamp"])
}

func TestWriteResultCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, sampleResult(), CSV, false))

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "a.go", rows[1][0])
}

func TestWriteResultMarkdownAndHTML(t *testing.T) {
	var md bytes.Buffer
	require.NoError(t, WriteResult(&md, sampleResult(), Markdown, false))
	assert.Contains(t, md.String(), "a.go")

	var html bytes.Buffer
	require.NoError(t, WriteResult(&html, sampleResult(), HTML, false))
	assert.Contains(t, html.String(), "<!DOCTYPE html>")
	assert.Contains(t, html.String(), "a.go")
}

func TestWriteDiffCSVHasNoDoubledHeader(t *testing.T) {
	d := result.ScanDiff{
		Added:   []match.Match{{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO"}},
		Removed: nil,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDiff(&buf, d, CSV, false))

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, append([]string{"change"}, csvHeader...), rows[0])
	assert.Equal(t, "added", rows[1][0])
}

func TestWriteDiffText(t *testing.T) {
	d := result.ScanDiff{
		Added:          []match.Match{{FilePath: "a.go", Pattern: "TODO", Severity: match.SeverityLow}},
		Removed:        []match.Match{{FilePath: "b.go", Pattern: "FIXME", Severity: match.SeverityMedium}},
		UnchangedCount: 3,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDiff(&buf, d, Text, false))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "added (1):"))
	assert.Contains(t, out, "removed (1):")
	assert.Contains(t, out, "unchanged: 3")
}

func TestWriteDiffJSON(t *testing.T) {
	d := result.ScanDiff{UnchangedCount: 1}
	var buf bytes.Buffer
	require.NoError(t, WriteDiff(&buf, d, JSON, false))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, float64(1), doc["unchanged_count"])
}

func TestTextLineColorizes(t *testing.T) {
	m := match.Match{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO", Message: "x", Severity: match.SeverityCritical}
	plain := TextLine(m, false)
	colored := TextLine(m, true)
	assert.NotEqual(t, plain, colored)
	assert.Contains(t, plain, "[critical]")
}

func TestCSVStreamingHelpers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVHeader(&buf))
	require.NoError(t, WriteCSVRow(&buf, match.Match{FilePath: "a.go", Pattern: "TODO"}))

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
}
