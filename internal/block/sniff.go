package block

import (
	"regexp"
	"strings"
)

var (
	markupRe    = regexp.MustCompile(`(?i)^\s*(<!DOCTYPE\s+html|<html)`)
	cssRuleRe   = regexp.MustCompile(`(?m)^[^{}\n]+\{[^{}]*\}`)
	jsxReturnRe = regexp.MustCompile(`return\s*\(?\s*<[A-Za-z]`)
	exportCmpRe = regexp.MustCompile(`export\s+default\s+(function\s+)?[A-Z]`)
	jsSignalRe  = regexp.MustCompile(`(?m)\b(function|const|let|var|=>|import|require|console\.)`)
)

// Sniff infers a fragment's effective content type from its body text. The
// fence label is a hint only: sniffing may reclassify a fragment labeled one
// way (e.g. "react") into a more specific kind based on what the body
// actually contains.
func Sniff(code, fenceName string) Type {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return TypePlain
	}

	// A full HTML document wins over any fence label.
	if markupRe.MatchString(trimmed) {
		return TypeMarkup
	}

	switch fenceName {
	case "html":
		return TypeMarkup
	case "css":
		return TypeStylesheet
	case "json":
		return TypePlain
	}

	if looksLikeComponent(trimmed) {
		return TypeComponent
	}

	switch fenceName {
	case "javascript", "js", "typescript", "ts", "jsx", "tsx", "react":
		return TypeScript
	}

	// No fence label: fall back to body signals.
	if cssRuleRe.MatchString(trimmed) && !jsSignalRe.MatchString(trimmed) {
		return TypeStylesheet
	}
	if jsSignalRe.MatchString(trimmed) {
		return TypeScript
	}
	return TypePlain
}

// looksLikeComponent reports whether the body reads like a UI component:
// a default-exported capitalized function or a JSX-returning body.
func looksLikeComponent(code string) bool {
	if exportCmpRe.MatchString(code) {
		return true
	}
	return strings.Contains(code, "React") && jsxReturnRe.MatchString(code)
}
