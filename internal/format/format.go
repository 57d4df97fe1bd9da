// Package format implements the Output formatters (C9): serialization of a
// ScanResult or ScanDiff into text, JSON, CSV, Markdown and HTML, grounded
// on internal/parser/markdown.go's goldmark usage for the html formatter
// and internal/logger/console.go's color conventions for the text
// formatter.
package format

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/result"
)

// Format is one of the five contract output formats of §4.9.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

func Parse(s string) (Format, error) {
	switch Format(s) {
	case Text, JSON, CSV, Markdown, HTML:
		return Format(s), nil
	default:
		return "", cgerrors.UnsupportedFormat(s)
	}
}

// jsonDocument is the fixed JSON contract shape: field names and severity
// casing are part of the wire contract and must never change without a new
// top-level extensions object, per §4.9.
type jsonDocument struct {
	ID        int64          `json:"id"`
	Timestamp string         `json:"timestamp"`
	Root      string         `json:"root"`
	Matches   []match.Match  `json:"matches"`
	Summary   result.Summary `json:"summary"`
}

// WriteResult serializes r into w using the named format.
func WriteResult(w io.Writer, r result.ScanResult, f Format, color bool) error {
	switch f {
	case Text:
		return writeText(w, r.Matches, r.Summary(), color)
	case JSON:
		return writeJSON(w, r)
	case CSV:
		return writeCSV(w, r.Matches)
	case Markdown:
		return writeMarkdown(w, r, r.Summary())
	case HTML:
		return writeHTML(w, r, r.Summary())
	default:
		return cgerrors.UnsupportedFormat(string(f))
	}
}

// WriteDiff serializes a ScanDiff's Added/Removed matches into w using the
// named format. Diff output reuses the same per-match rendering as a
// ScanResult but has no single summary of overall severities; the emitted
// summaries are computed independently over Added and Removed.
func WriteDiff(w io.Writer, d result.ScanDiff, f Format, color bool) error {
	switch f {
	case Text:
		if _, err := fmt.Fprintf(w, "added (%d):\n", len(d.Added)); err != nil {
			return cgerrors.SerializationFailed(err)
		}
		if err := writeText(w, d.Added, summaryOf(d.Added), color); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "removed (%d):\n", len(d.Removed)); err != nil {
			return cgerrors.SerializationFailed(err)
		}
		if err := writeText(w, d.Removed, summaryOf(d.Removed), color); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "unchanged: %d\n", d.UnchangedCount)
		if err != nil {
			return cgerrors.SerializationFailed(err)
		}
		return nil
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		type diffDocument struct {
			Added          []match.Match `json:"added"`
			Removed        []match.Match `json:"removed"`
			UnchangedCount int           `json:"unchanged_count"`
		}
		if err := enc.Encode(diffDocument{Added: d.Added, Removed: d.Removed, UnchangedCount: d.UnchangedCount}); err != nil {
			return cgerrors.SerializationFailed(err)
		}
		return nil
	case CSV:
		return writeDiffCSV(w, d)
	case Markdown:
		return writeDiffMarkdown(w, d)
	case HTML:
		var sb strings.Builder
		if err := writeDiffMarkdown(&sb, d); err != nil {
			return err
		}
		return renderMarkdownToHTML(w, sb.String())
	default:
		return cgerrors.UnsupportedFormat(string(f))
	}
}

func summaryOf(ms []match.Match) result.Summary {
	r := result.ScanResult{Matches: ms}
	return r.Summary()
}

var severityColor = map[match.Severity]*color.Color{
	match.SeverityCritical: color.New(color.FgRed, color.Bold),
	match.SeverityHigh:     color.New(color.FgRed),
	match.SeverityMedium:   color.New(color.FgYellow),
	match.SeverityLow:      color.New(color.FgCyan),
	match.SeverityInfo:     color.New(color.FgWhite),
}

// TextLine renders a single Match as one line of the text format, for both
// the buffered text formatter and the streaming text sink.
func TextLine(m match.Match, useColor bool) string {
	sev := string(m.Severity)
	if useColor {
		if c, ok := severityColor[m.Severity]; ok {
			sev = c.Sprint(sev)
		}
	}
	return fmt.Sprintf("%s:%d:%d: [%s] %s (%s)\n", m.FilePath, m.Line, m.Column, sev, m.Message, m.Pattern)
}

func writeText(w io.Writer, ms []match.Match, sum result.Summary, useColor bool) error {
	for _, m := range ms {
		if _, err := io.WriteString(w, TextLine(m, useColor)); err != nil {
			return cgerrors.SerializationFailed(err)
		}
	}
	_, err := fmt.Fprintf(w, "\ntotal: %d  critical: %d  high: %d  medium: %d  low: %d  info: %d\n",
		sum.Total, sum.Critical, sum.High, sum.Medium, sum.Low, sum.Info)
	if err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}

func writeJSON(w io.Writer, r result.ScanResult) error {
	doc := jsonDocument{
		ID:        r.ID,
		Timestamp: r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Root:      r.Root,
		Matches:   r.Matches,
		Summary:   r.Summary(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}

// WriteJSONLine writes a single Match as one JSON-lines record, for
// streaming mode's json-lines format.
func WriteJSONLine(w io.Writer, m match.Match) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(m); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}

var csvHeader = []string{"file_path", "line", "column", "pattern", "message", "severity", "category"}

func writeCSV(w io.Writer, ms []match.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	for _, m := range ms {
		row := []string{
			m.FilePath,
			strconv.Itoa(m.Line),
			strconv.Itoa(m.Column),
			m.Pattern,
			m.Message,
			string(m.Severity),
			string(m.Category),
		}
		if err := cw.Write(row); err != nil {
			return cgerrors.SerializationFailed(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}

// WriteCSVRow writes a single Match as one CSV row without a header, for
// streaming mode's csv format; the caller writes csvHeader once up front
// via CSVHeader.
func WriteCSVRow(w io.Writer, m match.Match) error {
	cw := csv.NewWriter(w)
	row := []string{m.FilePath, strconv.Itoa(m.Line), strconv.Itoa(m.Column), m.Pattern, m.Message, string(m.Severity), string(m.Category)}
	if err := cw.Write(row); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	cw.Flush()
	return cw.Error()
}

// CSVHeader writes the CSV header row, for streaming mode.
func CSVHeader(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	cw.Flush()
	return cw.Error()
}

func writeDiffCSV(w io.Writer, d result.ScanDiff) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"change"}, csvHeader...)); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	for _, m := range d.Added {
		if err := cw.Write(append([]string{"added"}, m.FilePath, strconv.Itoa(m.Line), strconv.Itoa(m.Column), m.Pattern, m.Message, string(m.Severity), string(m.Category))); err != nil {
			return cgerrors.SerializationFailed(err)
		}
	}
	for _, m := range d.Removed {
		if err := cw.Write(append([]string{"removed"}, m.FilePath, strconv.Itoa(m.Line), strconv.Itoa(m.Column), m.Pattern, m.Message, string(m.Severity), string(m.Category))); err != nil {
			return cgerrors.SerializationFailed(err)
		}
	}
	cw.Flush()
	return cw.Error()
}
