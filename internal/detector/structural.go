package detector

import (
	"regexp"

	"github.com/d-oit/code-guardian/internal/match"
)

// loopKeyword matches the opening of a for/while loop across the supported
// languages, deliberately by keyword rather than by parsing a grammar —
// detectors are textual, never semantic/AST-level, per scope.
var loopKeyword = regexp.MustCompile(`\b(for|while)\b[^{]*\{`)

// queryCallHint matches call shapes that commonly indicate a per-row
// database round-trip when found inside a loop body.
var queryCallHint = regexp.MustCompile(`\.(query|exec|find|findOne|get|fetch)\s*\(`)

// newDeepNestedLoopsDetector flags loop nests four or more levels deep
// (O(n^4)+), tracked by counting nested loop-opening braces.
func newDeepNestedLoopsDetector() Detector {
	d := Descriptor{
		Name:            "DeeplyNestedLoops",
		DefaultSeverity: match.SeverityHigh,
		DefaultCategory: match.CategoryPerformance,
		Multiline:       true,
	}
	return NewFuncDetector(d, func(path string, content []byte) ([]match.Match, error) {
		lineStarts := computeLineStarts(content)
		var isLoopBrace []bool // parallel stack: was the brace at this depth a loop brace?
		var out []match.Match
		loopDepth := 0
		for i, b := range content {
			switch b {
			case '{':
				opensLoop := isLoopHeaderImmediatelyBefore(content, i)
				isLoopBrace = append(isLoopBrace, opensLoop)
				if opensLoop {
					loopDepth++
					if loopDepth == 4 {
						line, col := lineColumnOf(lineStarts, i)
						out = append(out, match.Match{
							FilePath: path, Line: line, Column: col,
							Pattern: "DeeplyNestedLoops", Message: "loop nested four or more levels deep",
							Severity: d.DefaultSeverity, Category: d.DefaultCategory,
						})
					}
				}
			case '}':
				if len(isLoopBrace) > 0 {
					last := isLoopBrace[len(isLoopBrace)-1]
					isLoopBrace = isLoopBrace[:len(isLoopBrace)-1]
					if last {
						loopDepth--
					}
				}
			}
		}
		return out, nil
	})
}

// isLoopHeaderImmediatelyBefore avoids re-testing the whole prefix on every
// brace by requiring the loop keyword to appear on the same line as the
// brace, a cheap heuristic adequate for a textual detector.
func isLoopHeaderImmediatelyBefore(content []byte, bracePos int) bool {
	start := bracePos
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	return loopKeyword.Match(content[start : bracePos+1])
}

// newNPlusOneDetector flags a query-shaped call appearing textually inside a
// loop body, the classic N+1 shape.
func newNPlusOneDetector() Detector {
	d := Descriptor{
		Name:            "NPlusOneQuery",
		DefaultSeverity: match.SeverityHigh,
		DefaultCategory: match.CategoryPerformance,
		Multiline:       true,
	}
	return NewFuncDetector(d, func(path string, content []byte) ([]match.Match, error) {
		lineStarts := computeLineStarts(content)
		var out []match.Match
		loopLocs := loopKeyword.FindAllIndex(content, -1)
		for _, loopLoc := range loopLocs {
			bodyEnd := matchingBrace(content, loopLoc[1]-1)
			if bodyEnd < 0 {
				continue
			}
			body := content[loopLoc[1]:bodyEnd]
			if qloc := queryCallHint.FindIndex(body); qloc != nil {
				abs := loopLoc[1] + qloc[0]
				line, col := lineColumnOf(lineStarts, abs)
				out = append(out, match.Match{
					FilePath: path, Line: line, Column: col,
					Pattern: "NPlusOneQuery", Message: "query call inside loop body",
					Severity: d.DefaultSeverity, Category: d.DefaultCategory,
				})
			}
		}
		return out, nil
	})
}

// matchingBrace returns the offset of the '}' matching the '{' at openPos,
// or -1 if unbalanced.
func matchingBrace(content []byte, openPos int) int {
	depth := 0
	for i := openPos; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
