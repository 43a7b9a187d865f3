package block

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// fencePattern matches one recognized fence label and carries the display
// title and normalized language tag for blocks it produces.
type fencePattern struct {
	name     string
	title    string
	language string
	re       *regexp.Regexp
}

func newFencePattern(name, title, language string) fencePattern {
	return fencePattern{
		name:     name,
		title:    title,
		language: language,
		re:       regexp.MustCompile("(?s)```" + name + "[ \t]*\r?\n(.*?)```"),
	}
}

// fencePatterns is the fixed, ordered set of recognized fence labels. Every
// non-markup script and component fence normalizes to the single "javascript"
// language tag.
var fencePatterns = []fencePattern{
	newFencePattern("html", "HTML", "html"),
	newFencePattern("css", "CSS", "css"),
	newFencePattern("javascript", "JavaScript", "javascript"),
	newFencePattern("js", "JavaScript", "javascript"),
	newFencePattern("typescript", "TypeScript", "javascript"),
	newFencePattern("ts", "TypeScript", "javascript"),
	newFencePattern("jsx", "JSX", "javascript"),
	newFencePattern("tsx", "TSX", "javascript"),
	newFencePattern("react", "React", "javascript"),
	newFencePattern("json", "JSON", "json"),
}

// Extract scans free-form text for delimited code fragments and returns the
// classified blocks ordered by ascending source offset. It never fails the
// caller: an internal failure is recovered and surfaced as a diagnostic error
// alongside an empty result. Overlapping matches from different fence labels
// are all retained; deduplication is deliberately not attempted.
func Extract(text string) (blocks []ContentBlock, err error) {
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
			err = fmt.Errorf("content extraction failed: %v", r)
		}
	}()

	for _, p := range fencePatterns {
		matches := p.re.FindAllStringSubmatchIndex(text, -1)
		seq := 0
		for _, m := range matches {
			body := strings.TrimSpace(text[m[2]:m[3]])
			if body == "" {
				continue
			}
			blocks = append(blocks, ContentBlock{
				ID:       fmt.Sprintf("%s-%d", p.name, seq),
				Type:     Sniff(body, p.name),
				Code:     body,
				Title:    p.title,
				Language: p.language,
				Metadata: map[string]any{
					MetaPattern:    p.name,
					MetaStartIndex: m[0],
				},
			})
			seq++
		}
	}

	// Stable: ties keep pattern-scan order.
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Metadata[MetaStartIndex].(int) < blocks[j].Metadata[MetaStartIndex].(int)
	})

	if len(blocks) == 0 && strings.TrimSpace(text) != "" {
		blocks = append(blocks, wholeDocumentBlock(text))
	}
	return blocks, nil
}

// wholeDocumentBlock wraps an unfenced, non-blank input into the single
// fallback block covering the whole text.
func wholeDocumentBlock(text string) ContentBlock {
	code := strings.TrimSpace(text)
	kind := Sniff(code, "")
	return ContentBlock{
		ID:       "document-0",
		Type:     kind,
		Code:     code,
		Title:    "Document",
		Language: languageForType(kind),
		Metadata: map[string]any{
			MetaPattern:       "document",
			MetaStartIndex:    0,
			MetaWholeDocument: true,
		},
	}
}

func languageForType(kind Type) string {
	switch kind {
	case TypeMarkup:
		return "html"
	case TypeStylesheet:
		return "css"
	case TypeScript, TypeComponent:
		return "javascript"
	default:
		return "plain"
	}
}
