// Package lint performs approximate, best-effort checks over source text:
// unbalanced delimiters, unterminated string literals, leftover merge
// conflict markers, oversized lines. It is a text scan, not a parser, and
// never fails the caller; findings are advisory.
package lint

import (
	"fmt"
	"strings"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding in the checked source.
type Issue struct {
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// maxLineLength is the threshold above which a line draws a warning.
const maxLineLength = 200

// Check scans source text and returns its findings, ordered by line. An
// empty result means nothing was flagged, not that the source is correct.
func Check(source string) []Issue {
	var issues []Issue

	braces, brackets, parens := 0, 0, 0
	lines := strings.Split(source, "\n")

	for i, line := range lines {
		lineNo := i + 1

		if strings.HasPrefix(line, "<<<<<<<") || strings.HasPrefix(line, ">>>>>>>") || line == "=======" {
			issues = append(issues, Issue{
				Line:     lineNo,
				Severity: SeverityError,
				Message:  "merge conflict marker left in source",
			})
			continue
		}

		if len(line) > maxLineLength {
			issues = append(issues, Issue{
				Line:     lineNo,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("line exceeds %d characters", maxLineLength),
			})
		}

		b, br, p, unterminated := scanLine(line)
		braces += b
		brackets += br
		parens += p
		if unterminated != 0 {
			issues = append(issues, Issue{
				Line:     lineNo,
				Severity: SeverityError,
				Message:  fmt.Sprintf("unterminated string literal (%c)", unterminated),
			})
		}
	}

	for _, unbalanced := range []struct {
		count int
		name  string
	}{
		{braces, "braces"},
		{brackets, "brackets"},
		{parens, "parentheses"},
	} {
		if unbalanced.count != 0 {
			issues = append(issues, Issue{
				Line:     len(lines),
				Severity: SeverityError,
				Message:  fmt.Sprintf("unbalanced %s (off by %d)", unbalanced.name, unbalanced.count),
			})
		}
	}
	return issues
}

// scanLine counts delimiter balance on one line, ignoring anything inside
// string literals or after a line comment. Template literals spanning lines
// are beyond this scan; a backtick left open on its own line is reported as
// unterminated, which is the best a line-based scan can do.
func scanLine(line string) (braces, brackets, parens int, unterminated rune) {
	var inString rune
	escaped := false

	for i, r := range line {
		if escaped {
			escaped = false
			continue
		}
		if inString != 0 {
			switch r {
			case '\\':
				escaped = true
			case inString:
				inString = 0
			}
			continue
		}
		switch r {
		case '\'', '"', '`':
			inString = r
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return braces, brackets, parens, 0
			}
		case '{':
			braces++
		case '}':
			braces--
		case '[':
			brackets++
		case ']':
			brackets--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	return braces, brackets, parens, inString
}
