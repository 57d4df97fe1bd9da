package scanner

import "github.com/d-oit/code-guardian/internal/match"

// Sink receives Matches as they are produced in streaming mode (§4.6's
// scan_streaming). Implementations must tolerate partial output: a
// cancelled scan may have already pushed some Matches before returning
// Cancelled.
type Sink interface {
	OnMatch(match.Match)
	OnFileDone(path string)
	OnError(path string, err error)
	OnDone()
}

// NopSink discards everything; used by Scan (non-streaming) so the same
// internal worker path serves both entry points.
type NopSink struct{}

func (NopSink) OnMatch(match.Match)   {}
func (NopSink) OnFileDone(string)     {}
func (NopSink) OnError(string, error) {}
func (NopSink) OnDone()               {}
