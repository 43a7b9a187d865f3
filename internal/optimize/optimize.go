// Package optimize performs best-effort source cleanup for preview payloads:
// comments are stripped where a text scan can safely see them, trailing
// whitespace is trimmed, and runs of blank lines are collapsed. This is
// explicitly not minification or compilation; the output is only ever a
// lighter rendition of the same text, never a correctness guarantee.
package optimize

import (
	"regexp"
	"strings"
)

// Optimizer cleans source text for preview. Construct one per composition
// root and pass it where needed.
type Optimizer struct{}

// New returns a ready Optimizer.
func New() *Optimizer {
	return &Optimizer{}
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Clean returns a lighter rendition of the source: block and line comments
// outside string literals removed, trailing whitespace trimmed, blank-line
// runs collapsed to a single blank line.
func (o *Optimizer) Clean(source string) string {
	out := stripComments(source)

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out = strings.Join(lines, "\n")

	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out) + "\n"
}

// stripComments removes /* */ and // comments while honoring single, double,
// and backtick string literals so that comment-looking text inside strings
// (URLs, most commonly) survives.
func stripComments(source string) string {
	var b strings.Builder
	b.Grow(len(source))

	var inString rune
	inBlock := false
	inLine := false
	escaped := false
	runes := []rune(source)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inBlock {
			if r == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}
		if inLine {
			if r == '\n' {
				inLine = false
				b.WriteRune(r)
			}
			continue
		}
		if inString != 0 {
			b.WriteRune(r)
			if escaped {
				escaped = false
				continue
			}
			switch r {
			case '\\':
				escaped = true
			case inString:
				inString = 0
			}
			continue
		}

		switch {
		case r == '\'' || r == '"' || r == '`':
			inString = r
			b.WriteRune(r)
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			inBlock = true
			i++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			inLine = true
			i++
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
