package block

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_NoFencesYieldsWholeDocumentFallback(t *testing.T) {
	input := "  const answer = 42;\nconsole.log(answer);  "

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, "const answer = 42;\nconsole.log(answer);", b.Code)
	assert.Equal(t, TypeScript, b.Type)
	assert.Equal(t, true, b.Metadata[MetaWholeDocument])
}

func TestExtract_BlankInputYieldsNothing(t *testing.T) {
	blocks, err := Extract("   \n\t  ")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestExtract_MultipleFencesOrderedByOffset(t *testing.T) {
	input := "intro\n" +
		"```css\nbody { margin: 0; }\n```\n" +
		"middle\n" +
		"```html\n<div>hi</div>\n```\n" +
		"```js\nconsole.log(1);\n```\n"

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	// css appears first in the source even though html is scanned first.
	assert.Equal(t, "CSS", blocks[0].Title)
	assert.Equal(t, "HTML", blocks[1].Title)
	assert.Equal(t, "JavaScript", blocks[2].Title)

	prev := -1
	for _, b := range blocks {
		offset := b.Metadata[MetaStartIndex].(int)
		assert.Greater(t, offset, prev)
		prev = offset
	}
}

func TestExtract_IDsCarryPatternNameAndSequence(t *testing.T) {
	input := "```js\nfoo();\n```\n```js\nbar();\n```\n"

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "js-0", blocks[0].ID)
	assert.Equal(t, "js-1", blocks[1].ID)
}

func TestExtract_EmptyBodiesSkipped(t *testing.T) {
	input := "```js\n   \n```\n```css\nbody { color: red; }\n```\n"

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, TypeStylesheet, blocks[0].Type)
}

func TestExtract_LanguageNormalization(t *testing.T) {
	cases := []struct {
		fence    string
		language string
	}{
		{"html", "html"},
		{"css", "css"},
		{"javascript", "javascript"},
		{"typescript", "javascript"},
		{"tsx", "javascript"},
		{"react", "javascript"},
		{"json", "json"},
	}
	for _, tc := range cases {
		t.Run(tc.fence, func(t *testing.T) {
			input := fmt.Sprintf("```%s\nsome body text here\n```\n", tc.fence)
			blocks, err := Extract(input)
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			assert.Equal(t, tc.language, blocks[0].Language)
		})
	}
}

func TestExtract_SniffingOverridesFenceLabel(t *testing.T) {
	// A fragment labeled react whose body is a full HTML document.
	input := "```react\n<!DOCTYPE html>\n<html><body>hi</body></html>\n```\n"

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, TypeMarkup, blocks[0].Type)
	// The fence still determines title and language.
	assert.Equal(t, "React", blocks[0].Title)
	assert.Equal(t, "javascript", blocks[0].Language)
}

func TestExtract_ReactFenceClassifiedAsComponent(t *testing.T) {
	input := "```react\n" +
		"export default function App() {\n" +
		"  return <div>hello</div>;\n" +
		"}\n```\n"

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, TypeComponent, blocks[0].Type)
}

func TestExtract_OverlappingPatternsBothRetained(t *testing.T) {
	// The js fence opener sits inside the body of an html fence, so the two
	// patterns produce overlapping matches. Both blocks are kept.
	input := "```html\n<p>before</p>\n```js\nconsole.log(1);\n```\n"

	blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "html", blocks[0].Metadata[MetaPattern])
	assert.Equal(t, "js", blocks[1].Metadata[MetaPattern])
	assert.Less(t,
		blocks[0].Metadata[MetaStartIndex].(int),
		blocks[1].Metadata[MetaStartIndex].(int))
}

func TestSniff(t *testing.T) {
	cases := []struct {
		name  string
		code  string
		fence string
		want  Type
	}{
		{"html doc without fence", "<!DOCTYPE html>\n<html></html>", "", TypeMarkup},
		{"css fence", "body { margin: 0; }", "css", TypeStylesheet},
		{"json fence", `{"a": 1}`, "json", TypePlain},
		{"plain prose", "just a sentence about nothing", "", TypePlain},
		{"bare css body", ".card {\n  color: red;\n}", "", TypeStylesheet},
		{"script body", "const x = 1;", "js", TypeScript},
		{"component body", "export default function Card() { return <div/>; }", "tsx", TypeComponent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sniff(tc.code, tc.fence))
		})
	}
}
