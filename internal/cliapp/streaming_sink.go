package cliapp

import (
	"io"

	"github.com/d-oit/code-guardian/internal/format"
	"github.com/d-oit/code-guardian/internal/match"
)

// streamingSink writes each Match to w as it arrives, in the line-by-line
// shapes §4.9 requires for text/json-lines/csv. markdown and html require a
// single buffered document and cannot be emitted line-by-line, so
// newScanCommand rejects --streaming combined with either before a sink is
// ever constructed; this sink is only ever built for the three streamable
// formats.
type streamingSink struct {
	w           io.Writer
	f           format.Format
	wroteHeader bool
}

func newStreamingSink(w io.Writer, f format.Format) *streamingSink {
	return &streamingSink{w: w, f: f}
}

func (s *streamingSink) OnMatch(m match.Match) {
	switch s.f {
	case format.CSV:
		if !s.wroteHeader {
			_ = format.CSVHeader(s.w)
			s.wroteHeader = true
		}
		_ = format.WriteCSVRow(s.w, m)
	case format.JSON:
		_ = format.WriteJSONLine(s.w, m)
	default: // text
		_, _ = io.WriteString(s.w, format.TextLine(m, false))
	}
}

func (s *streamingSink) OnFileDone(string)     {}
func (s *streamingSink) OnError(string, error) {}
func (s *streamingSink) OnDone()               {}
