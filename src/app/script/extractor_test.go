package script

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(blocks []Block) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.ID)
	}
	return out
}

func TestExtractorReturnsEveryBalancedBlock(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&sb, "tech_%d = {\n\tarea = physics\n\tnested = { a = b }\n}\n", i)
	}
	text := sb.String()

	blocks := NewExtractor().All(text)

	require.Len(t, blocks, 7)
	for i, b := range blocks {
		assert.Equal(t, fmt.Sprintf("tech_%d", i), b.ID)
		assert.Equal(t, "\n\tarea = physics\n\tnested = { a = b }\n", b.Body)
		assert.Equal(t, b.ID, text[b.Start:b.Start+len(b.ID)])
		assert.Equal(t, byte('}'), text[b.End-1])
	}
}

func TestExtractorIgnoresBracesInCommentsAndStrings(t *testing.T) {
	text := "foo = { # comment with }\n bar = { \"text with } inside\" }\n}\n"

	blocks := NewExtractor().All(text)

	require.Len(t, blocks, 1)
	assert.Equal(t, "foo", blocks[0].ID)
	assert.Contains(t, blocks[0].Body, `bar = { "text with } inside" }`)
}

func TestExtractorCommentRunsToEndOfLine(t *testing.T) {
	text := `foo = { # comment with } bar = { "text with } inside" }`

	assert.Empty(t, NewExtractor().All(text))
}

func TestExtractorKeepsFirstDuplicate(t *testing.T) {
	text := "tech_x = { tier = 1 }\ntech_x = { tier = 2 }\n"

	blocks := NewExtractor().All(text)

	require.Len(t, blocks, 1)
	assert.Equal(t, " tier = 1 ", blocks[0].Body)
}

func TestExtractorDuplicatesAcrossCallsShareRun(t *testing.T) {
	e := NewExtractor()

	first := e.All("tech_x = { tier = 1 }")
	second := e.All("tech_x = { tier = 2 } tech_y = { }")

	assert.Equal(t, []string{"tech_x"}, ids(first))
	assert.Equal(t, []string{"tech_y"}, ids(second))
	assert.True(t, e.Seen("tech_x"))
}

func TestExtractorSkipsBlocklistedBodies(t *testing.T) {
	text := "potential = { inner = { } }\ntech_a = { }\nNOT = { tech_b = { } }\n"

	blocks := NewExtractor(DefaultBlocklist...).All(text)

	assert.Equal(t, []string{"tech_a"}, ids(blocks))
}

func TestExtractorRecoversAfterUnbalancedBlock(t *testing.T) {
	text := "broken = {\n tech_a = { tier = 1 }\n tech_b = { tier = 2 }\n"

	blocks := NewExtractor().All(text)

	assert.Equal(t, []string{"tech_a", "tech_b"}, ids(blocks))
}

func TestExtractorNextAdvancesThroughText(t *testing.T) {
	text := "@cost = 10\na = { }\nvalue = 3\nb = { x = { } }\n"
	e := NewExtractor()

	var got []string
	pos := 0
	for {
		b, next, ok := e.Next(text, pos)
		if !ok {
			break
		}
		assert.Equal(t, b.ID, text[b.Start:b.Start+len(b.ID)])
		got = append(got, b.ID)
		pos = next
	}

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestTokenizeKinds(t *testing.T) {
	tokens := Tokenize(`key >= 2 # note
name = "a { b" list = { x }`)

	kinds := make([]Kind, 0, len(tokens))
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []Kind{
		Ident, Operator, Ident, Comment,
		Ident, Operator, String,
		Ident, Operator, OpenBrace, Ident, CloseBrace,
	}, kinds)
	assert.Equal(t, ">=", tokens[1].Text)
	assert.Equal(t, "a { b", tokens[6].Value())
}

func TestTokenizeUnterminatedStringRunsToEnd(t *testing.T) {
	tokens := Tokenize(`a = "open { }`)

	require.Len(t, tokens, 3)
	assert.Equal(t, String, tokens[2].Kind)
	assert.Equal(t, `"open { }`, tokens[2].Text)
}

func TestExtractorAllowDuplicates(t *testing.T) {
	text := `utility_component_template = { key = "A" } utility_component_template = { key = "B" }`

	blocks := NewExtractor().AllowDuplicates().All(text)

	require.Len(t, blocks, 2)
	assert.Equal(t, ` key = "B" `, blocks[1].Body)
}
