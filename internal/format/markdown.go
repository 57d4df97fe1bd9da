package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/result"
)

func writeMarkdown(w io.Writer, r result.ScanResult, sum result.Summary) error {
	var sb bytes.Buffer
	fmt.Fprintf(&sb, "# Scan Report: %s\n\n", r.Root)
	fmt.Fprintf(&sb, "| Critical | High | Medium | Low | Info | Total |\n")
	fmt.Fprintf(&sb, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d | %d |\n\n", sum.Critical, sum.High, sum.Medium, sum.Low, sum.Info, sum.Total)

	fmt.Fprintf(&sb, "| File | Line | Column | Severity | Pattern | Message |\n")
	fmt.Fprintf(&sb, "|---|---|---|---|---|---|\n")
	for _, m := range r.Matches {
		fmt.Fprintf(&sb, "| %s | %d | %d | %s | %s | %s |\n", m.FilePath, m.Line, m.Column, m.Severity, m.Pattern, escapePipe(m.Message))
	}

	_, err := io.Copy(w, bytes.NewReader(sb.Bytes()))
	if err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}

func writeDiffMarkdown(w io.Writer, d result.ScanDiff) error {
	var sb bytes.Buffer
	fmt.Fprintf(&sb, "# Scan Diff\n\n")
	fmt.Fprintf(&sb, "unchanged: %d\n\n", d.UnchangedCount)

	fmt.Fprintf(&sb, "## Added (%d)\n\n", len(d.Added))
	fmt.Fprintf(&sb, "| File | Line | Column | Severity | Pattern | Message |\n|---|---|---|---|---|---|\n")
	for _, m := range d.Added {
		fmt.Fprintf(&sb, "| %s | %d | %d | %s | %s | %s |\n", m.FilePath, m.Line, m.Column, m.Severity, m.Pattern, escapePipe(m.Message))
	}

	fmt.Fprintf(&sb, "\n## Removed (%d)\n\n", len(d.Removed))
	fmt.Fprintf(&sb, "| File | Line | Column | Severity | Pattern | Message |\n|---|---|---|---|---|---|\n")
	for _, m := range d.Removed {
		fmt.Fprintf(&sb, "| %s | %d | %d | %s | %s | %s |\n", m.FilePath, m.Line, m.Column, m.Severity, m.Pattern, escapePipe(m.Message))
	}

	_, err := io.Copy(w, bytes.NewReader(sb.Bytes()))
	if err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}

func escapePipe(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '|' {
			out = append(out, '\\', '|')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// writeHTML renders the html format by producing the markdown format and
// running it through goldmark, rather than hand-building an equivalent
// document twice.
func writeHTML(w io.Writer, r result.ScanResult, sum result.Summary) error {
	var md bytes.Buffer
	if err := writeMarkdown(&md, r, sum); err != nil {
		return err
	}
	return renderMarkdownToHTML(w, md.String())
}

var htmlTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Scan Report</title>
<style>
body{font-family:sans-serif;margin:2rem;}
table{border-collapse:collapse;width:100%%;}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:left;}
th{background:#f0f0f0;}
</style></head><body>
%s
</body></html>
`

func renderMarkdownToHTML(w io.Writer, md string) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	if _, err := fmt.Fprintf(w, htmlTemplate, body.String()); err != nil {
		return cgerrors.SerializationFailed(err)
	}
	return nil
}
