package lint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_CleanSource(t *testing.T) {
	source := `function greet(name) {
  console.log("hello, " + name);
}
greet('world');
`
	assert.Empty(t, Check(source))
}

func TestCheck_UnbalancedBraces(t *testing.T) {
	source := "function broken() {\n  if (x) {\n    return 1;\n}\n"
	issues := Check(source)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "unbalanced braces")
}

func TestCheck_DelimitersInsideStringsIgnored(t *testing.T) {
	source := `const s = "a { b [ c ( d";` + "\n"
	assert.Empty(t, Check(source))
}

func TestCheck_DelimitersAfterLineCommentIgnored(t *testing.T) {
	source := "const x = 1; // opening { brace in comment\n"
	assert.Empty(t, Check(source))
}

func TestCheck_UnterminatedString(t *testing.T) {
	source := "const s = 'no closing quote\n"
	issues := Check(source)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Line)
	assert.Contains(t, issues[0].Message, "unterminated string")
}

func TestCheck_ConflictMarkers(t *testing.T) {
	source := "<<<<<<< HEAD\nconst a = 1;\n=======\nconst a = 2;\n>>>>>>> branch\n"
	issues := Check(source)
	require.Len(t, issues, 3)
	for _, issue := range issues {
		assert.Equal(t, SeverityError, issue.Severity)
		assert.Contains(t, issue.Message, "conflict marker")
	}
	assert.Equal(t, 1, issues[0].Line)
	assert.Equal(t, 3, issues[1].Line)
	assert.Equal(t, 5, issues[2].Line)
}

func TestCheck_OversizedLine(t *testing.T) {
	source := "const padding = \"" + strings.Repeat("x", 250) + "\";\n"
	issues := Check(source)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestCheck_EscapedQuoteInsideString(t *testing.T) {
	source := `const s = "she said \"hi\"";` + "\n"
	assert.Empty(t, Check(source))
}
