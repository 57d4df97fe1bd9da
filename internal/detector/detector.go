// Package detector defines the Detector contract (C2): a pure function
// (path, content) -> []Match, identified by a stable name, plus the
// RegexDetector implementation shared by every built-in and custom detector.
package detector

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/d-oit/code-guardian/internal/match"
)

// Descriptor carries the identity and static properties of a detector,
// independent of its matching implementation. Grouping this into its own
// record (rather than an open class hierarchy per detector) keeps built-in
// and custom detectors polymorphic over a single shape.
type Descriptor struct {
	Name            string
	DefaultSeverity match.Severity
	DefaultCategory match.Category
	// ExtensionFilter, when non-empty, restricts the detector to files whose
	// lowercase extension (including the leading dot) is a member.
	ExtensionFilter map[string]bool
	CaseSensitive   bool
	// Multiline signals to the scanner that this detector requires the full
	// file buffered rather than read incrementally; it does not change the
	// Detect signature, which always receives the complete file content.
	Multiline bool
}

// Detector is the single capability every built-in and custom pattern
// implements: detect(path, content) -> []Match. Implementations must be
// pure: no filesystem access, no global state mutation, no non-determinism.
type Detector interface {
	Descriptor() Descriptor
	Detect(path string, content []byte) ([]match.Match, error)
}

// appliesTo reports whether d's extension filter accepts path.
func appliesTo(d Descriptor, path string) bool {
	if len(d.ExtensionFilter) == 0 {
		return true
	}
	ext := extOf(path)
	return d.ExtensionFilter[ext]
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	slash := strings.LastIndexByte(path, '/')
	if idx < slash {
		return ""
	}
	return strings.ToLower(path[idx:])
}

// RegexDetector is a Detector backed by a single compiled regular
// expression. It covers every built-in detector and every custom detector
// compiled from a user-supplied pattern; severity/category overrides and
// tie-breaking live in the registry (C3), not here.
type RegexDetector struct {
	descriptor Descriptor
	re         *regexp.Regexp
	// Message renders the human-readable description for a match; when nil,
	// descriptor.Name is used verbatim.
	Message func(matched []byte) string
}

// NewRegexDetector compiles pattern and returns a RegexDetector, or an error
// if the pattern is not syntactically valid.
func NewRegexDetector(d Descriptor, pattern string) (*RegexDetector, error) {
	src := pattern
	if !d.CaseSensitive {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile pattern for %q: %w", d.Name, err)
	}
	return &RegexDetector{descriptor: d, re: re}, nil
}

func (rd *RegexDetector) Descriptor() Descriptor { return rd.descriptor }

// Detect finds every non-overlapping occurrence of the compiled pattern in
// content, returning Matches ordered line-ascending then column-ascending
// within a line, as required by §4.2.
func (rd *RegexDetector) Detect(path string, content []byte) ([]match.Match, error) {
	if !appliesTo(rd.descriptor, path) {
		return nil, nil
	}

	locs := rd.re.FindAllIndex(content, -1)
	if len(locs) == 0 {
		return nil, nil
	}

	lineStarts := computeLineStarts(content)

	msg := rd.descriptor.Name
	out := make([]match.Match, 0, len(locs))
	for _, loc := range locs {
		start := loc[0]
		line, col := lineColumnOf(lineStarts, start)
		text := msg
		if rd.Message != nil {
			text = rd.Message(content[loc[0]:loc[1]])
		}
		out = append(out, match.Match{
			FilePath: path,
			Line:     line,
			Column:   col,
			Pattern:  rd.descriptor.Name,
			Message:  text,
			Severity: rd.descriptor.DefaultSeverity,
			Category: rd.descriptor.DefaultCategory,
		})
	}
	return out, nil
}

// computeLineStarts returns the byte offset of the first byte of every line
// in content (line 1 starts at offset 0).
func computeLineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineColumnOf converts a byte offset into a 1-based (line, column) pair.
// Column is the 1-based byte offset within the line — the fixed resolution
// of the multi-byte-character open question (byte offset, not grapheme or
// code-point count).
func lineColumnOf(lineStarts []int, offset int) (line, column int) {
	// lineStarts is sorted ascending; find the last start <= offset.
	lo, hi := 0, len(lineStarts)-1
	idx := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if lineStarts[mid] <= offset {
			idx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return idx + 1, offset - lineStarts[idx] + 1
}

// FuncDetector adapts a plain function into a Detector, used for the small
// number of built-ins whose shape is not a single regular expression (e.g.
// deeply-nested-loop depth counting).
type FuncDetector struct {
	descriptor Descriptor
	fn         func(path string, content []byte) ([]match.Match, error)
}

func NewFuncDetector(d Descriptor, fn func(path string, content []byte) ([]match.Match, error)) *FuncDetector {
	return &FuncDetector{descriptor: d, fn: fn}
}

func (fd *FuncDetector) Descriptor() Descriptor { return fd.descriptor }

func (fd *FuncDetector) Detect(path string, content []byte) ([]match.Match, error) {
	if !appliesTo(fd.descriptor, path) {
		return nil, nil
	}
	return fd.fn(path, content)
}

// ValidUTF8 reports whether content is well-formed UTF-8; the scanner skips
// files that fail this check with a SkippedEncoding diagnostic before any
// detector runs.
func ValidUTF8(content []byte) bool {
	return utf8.Valid(content)
}
