package script

import "strings"

type Kind int

const (
	Ident Kind = iota
	Operator
	OpenBrace
	CloseBrace
	String
	Comment
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "ident"
	case Operator:
		return "operator"
	case OpenBrace:
		return "open-brace"
	case CloseBrace:
		return "close-brace"
	case String:
		return "string"
	case Comment:
		return "comment"
	}
	return "unknown"
}

// Token is a lexical unit of mod script. Start and End are byte offsets
// into the tokenized text, Text is the raw slice between them.
type Token struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// Value returns the token text with surrounding quotes removed.
func (t Token) Value() string {
	if t.Kind == String {
		return strings.Trim(t.Text, `"`)
	}
	return t.Text
}

// Tokenize splits text into tokens. Strings are matched naively from one
// quote to the next with no escape handling; an unterminated string runs to
// the end of input. Comments run from # to the end of the line.
func Tokenize(text string) []Token {
	var tokens []Token
	i, n := 0, len(text)

	for i < n {
		c := text[i]
		switch {
		case isSpace(c):
			i++
		case c == '#':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = n
			} else {
				end += i
			}
			tokens = append(tokens, Token{Kind: Comment, Text: text[i:end], Start: i, End: end})
			i = end
		case c == '"':
			end := strings.IndexByte(text[i+1:], '"')
			if end < 0 {
				end = n
			} else {
				end += i + 2
			}
			tokens = append(tokens, Token{Kind: String, Text: text[i:end], Start: i, End: end})
			i = end
		case c == '{':
			tokens = append(tokens, Token{Kind: OpenBrace, Text: "{", Start: i, End: i + 1})
			i++
		case c == '}':
			tokens = append(tokens, Token{Kind: CloseBrace, Text: "}", Start: i, End: i + 1})
			i++
		case isOperator(c):
			end := i + 1
			if end < n && text[end] == '=' {
				end++
			}
			tokens = append(tokens, Token{Kind: Operator, Text: text[i:end], Start: i, End: end})
			i = end
		default:
			end := i
			for end < n && !isSpace(text[end]) && !isDelimiter(text[end]) {
				end++
			}
			tokens = append(tokens, Token{Kind: Ident, Text: text[i:end], Start: i, End: end})
			i = end
		}
	}

	return tokens
}

// structural drops comment tokens.
func structural(tokens []Token) []Token {
	out := tokens[:0:0]
	for _, t := range tokens {
		if t.Kind != Comment {
			out = append(out, t)
		}
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isOperator(c byte) bool {
	return c == '=' || c == '<' || c == '>' || c == '!'
}

func isDelimiter(c byte) bool {
	return c == '{' || c == '}' || c == '"' || c == '#' || isOperator(c)
}
