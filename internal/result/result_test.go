package result

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d-oit/code-guardian/internal/match"
)

func TestSummaryCountsBySeverity(t *testing.T) {
	r := ScanResult{Matches: []match.Match{
		{Severity: match.SeverityCritical},
		{Severity: match.SeverityCritical},
		{Severity: match.SeverityHigh},
		{Severity: match.SeverityLow},
		{Severity: match.SeverityInfo},
	}}
	s := r.Summary()
	assert.Equal(t, 2, s.Critical)
	assert.Equal(t, 1, s.High)
	assert.Equal(t, 0, s.Medium)
	assert.Equal(t, 1, s.Low)
	assert.Equal(t, 1, s.Info)
	assert.Equal(t, 5, s.Total)
}

func TestThroughputFilesPerSecond(t *testing.T) {
	m := Metrics{FilesScanned: 100, ScanDurationMS: 2000}
	assert.InDelta(t, 50.0, m.ThroughputFilesPerSecond(), 0.001)

	zero := Metrics{FilesScanned: 10, ScanDurationMS: 0}
	assert.Equal(t, float64(0), zero.ThroughputFilesPerSecond())
}

func TestDiffPartitionsAddedRemovedUnchanged(t *testing.T) {
	shared := match.Match{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO"}
	removedOnly := match.Match{FilePath: "b.go", Line: 2, Column: 1, Pattern: "FIXME"}
	addedOnly := match.Match{FilePath: "c.go", Line: 3, Column: 1, Pattern: "HACK"}

	a := ScanResult{Matches: []match.Match{shared, removedOnly}}
	b := ScanResult{Matches: []match.Match{shared, addedOnly}}

	d := Diff(a, b)
	assert.Equal(t, 1, d.UnchangedCount)
	assert.Len(t, d.Added, 1)
	assert.Equal(t, "c.go", d.Added[0].FilePath)
	assert.Len(t, d.Removed, 1)
	assert.Equal(t, "b.go", d.Removed[0].FilePath)
}

func TestDiffIgnoresMessageForKeyEquality(t *testing.T) {
	a := ScanResult{Matches: []match.Match{{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO", Message: "old"}}}
	b := ScanResult{Matches: []match.Match{{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO", Message: "new"}}}

	d := Diff(a, b)
	assert.Equal(t, 1, d.UnchangedCount)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
}
