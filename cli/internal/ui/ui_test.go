package ui

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestPrintKeyValuesAligns(t *testing.T) {
	buf := capture(t)
	PrintKeyValues([][2]string{{"a", "1"}, {"long", "2"}})
	assert.Equal(t, "a:    1\nlong: 2\n", ansi.ReplaceAllString(buf.String(), ""))
}

func TestPrintJSON(t *testing.T) {
	buf := capture(t)
	require.NoError(t, PrintJSON(map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())
}

func TestCodeBlock(t *testing.T) {
	assert.Equal(t, "```graphql\nquery {}\n```\n", CodeBlock("query {}\n\n", "graphql"))
}
