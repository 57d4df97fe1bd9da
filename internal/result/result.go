// Package result defines the ScanResult, ScanSummary, ScanDiff and Metrics
// data types shared by the scanner (C6), persistence (C8) and output
// formatters (C9), kept in their own package so none of those three need
// to depend on each other just to share a data model (§3).
package result

import (
	"time"

	"github.com/d-oit/code-guardian/internal/match"
)

// Metrics are the per-scan counters and timings of §4.10. They are
// reported alongside a ScanResult but never influence the scan outcome.
type Metrics struct {
	ScanDurationMS         int64 `json:"scan_duration_ms"`
	FilesScanned           int64 `json:"files_scanned"`
	FilesSkippedPermission int64 `json:"files_skipped_permission"`
	FilesSkippedTooLarge   int64 `json:"files_skipped_too_large"`
	FilesSkippedEncoding   int64 `json:"files_skipped_encoding"`
	LinesProcessed         int64 `json:"lines_processed"`
	BytesProcessed         int64 `json:"bytes_processed"`
	MatchesTotal           int64 `json:"matches_total"`
	MatchesCritical        int64 `json:"matches_critical"`
	MatchesHigh            int64 `json:"matches_high"`
	MatchesMedium          int64 `json:"matches_medium"`
	MatchesLow             int64 `json:"matches_low"`
	MatchesInfo            int64 `json:"matches_info"`
	CacheHits              int64 `json:"cache_hits"`
	CacheMisses            int64 `json:"cache_misses"`
}

// ThroughputFilesPerSecond is the derived metric of §4.10.
func (m Metrics) ThroughputFilesPerSecond() float64 {
	if m.ScanDurationMS <= 0 {
		return 0
	}
	return float64(m.FilesScanned) / (float64(m.ScanDurationMS) / 1000.0)
}

// ScanResult is the artifact of a completed scan (§3). It is read-only
// after construction by the scanner.
type ScanResult struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Root      string        `json:"root"`
	Matches   []match.Match `json:"matches"`
	Metrics   Metrics       `json:"metrics"`
}

// Summary returns the per-severity + total counts §4.9's JSON contract
// requires alongside the match list.
func (r ScanResult) Summary() Summary {
	s := Summary{Total: len(r.Matches)}
	for _, m := range r.Matches {
		switch m.Severity {
		case match.SeverityCritical:
			s.Critical++
		case match.SeverityHigh:
			s.High++
		case match.SeverityMedium:
			s.Medium++
		case match.SeverityLow:
			s.Low++
		case match.SeverityInfo:
			s.Info++
		}
	}
	return s
}

// Summary is the fixed-field severity breakdown of the JSON output
// contract (§4.9): {critical, high, medium, low, info, total}.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// ScanSummary is one row of scan history (§4.8's list_history): id,
// timestamp, root, newest first.
type ScanSummary struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Root      string    `json:"root"`
}

// ScanDiff is the result of comparing two ScanResults A (older) and B
// (newer), per §3.
type ScanDiff struct {
	Added           []match.Match `json:"added"`
	Removed         []match.Match `json:"removed"`
	UnchangedCount  int           `json:"unchanged_count"`
}

// Diff computes the diff of a (older) against b (newer): added is present
// in b but not a, removed is present in a but not b, keyed by
// (file_path, line, column, pattern); unchanged_count is the intersection
// cardinality. added ∪ removed ∪ intersection always partitions
// matches(a) ∪ matches(b), by construction: every key in either set ends
// up in exactly one of the three buckets.
func Diff(a, b ScanResult) ScanDiff {
	aByKey := make(map[match.Key]match.Match, len(a.Matches))
	for _, m := range a.Matches {
		aByKey[m.Key()] = m
	}
	bByKey := make(map[match.Key]match.Match, len(b.Matches))
	for _, m := range b.Matches {
		bByKey[m.Key()] = m
	}

	var added, removed []match.Match
	unchanged := 0
	for k, m := range bByKey {
		if _, ok := aByKey[k]; !ok {
			added = append(added, m)
		} else {
			unchanged++
		}
	}
	for k, m := range aByKey {
		if _, ok := bByKey[k]; !ok {
			removed = append(removed, m)
		}
	}

	return ScanDiff{
		Added:          match.Sorted(added),
		Removed:        match.Sorted(removed),
		UnchangedCount: unchanged,
	}
}
