package script

import (
	"strconv"
	"strings"
)

// Fields gives keyed access to the contents of a block body. Lookups prefer
// a key at the top level of the body and fall back to the first occurrence
// at any depth.
type Fields struct {
	text   string
	tokens []Token
	vars   map[string]string
}

// Ref is one `key = value` occurrence with the offset of the key in the body.
type Ref struct {
	Value  string
	Offset int
}

// Pair is a numeric `key = value` assignment.
type Pair struct {
	Key   string
	Value float64
}

func ParseFields(body string) *Fields {
	return &Fields{text: body, tokens: structural(Tokenize(body))}
}

// WithVariables makes @name values resolve through vars.
func (f *Fields) WithVariables(vars map[string]string) *Fields {
	f.vars = vars
	return f
}

func (f *Fields) Text() string {
	return f.text
}

func (f *Fields) Value(name string) (string, bool) {
	i := f.find(name)
	if i < 0 {
		return "", false
	}
	t := f.tokens[i]
	if t.Kind != Ident && t.Kind != String {
		return "", false
	}
	return f.Resolve(t.Value()), true
}

// Quoted returns the value of name only when it is a quoted string.
func (f *Fields) Quoted(name string) (string, bool) {
	i := f.find(name)
	if i < 0 || f.tokens[i].Kind != String {
		return "", false
	}
	return f.tokens[i].Value(), true
}

// Int returns the field as an integer, truncating decimals. Absent or
// non-numeric values yield zero.
func (f *Fields) Int(name string) int {
	return int(f.Float(name))
}

func (f *Fields) Float(name string) float64 {
	v, ok := f.Value(name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

// Bool reads yes/no values.
func (f *Fields) Bool(name string, def bool) bool {
	v, ok := f.Value(name)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "yes", "true":
		return true
	case "no", "false":
		return false
	}
	return def
}

// List returns the bracketed content of name split into tokens with quotes
// stripped. Nested blocks inside the list are skipped.
func (f *Fields) List(name string) []string {
	i := f.find(name)
	if i < 0 || f.tokens[i].Kind != OpenBrace {
		return nil
	}
	closing := matchBrace(f.tokens, i)
	if closing < 0 {
		return nil
	}

	var out []string
	depth := 0
	for _, t := range f.tokens[i+1 : closing] {
		switch t.Kind {
		case OpenBrace:
			depth++
		case CloseBrace:
			depth--
		case Ident, String:
			if depth == 0 && t.Value() != "" {
				out = append(out, t.Value())
			}
		}
	}
	return out
}

// SubBlock returns the body of the nested block name.
func (f *Fields) SubBlock(name string) (string, bool) {
	i := f.find(name)
	if i < 0 || f.tokens[i].Kind != OpenBrace {
		return "", false
	}
	closing := matchBrace(f.tokens, i)
	if closing < 0 {
		return "", false
	}
	return f.text[f.tokens[i].End:f.tokens[closing].Start], true
}

// TopBlock is SubBlock restricted to the top level of the body.
func (f *Fields) TopBlock(name string) (string, bool) {
	i := f.findTop(name)
	if i < 0 || f.tokens[i].Kind != OpenBrace {
		return "", false
	}
	closing := matchBrace(f.tokens, i)
	if closing < 0 {
		return "", false
	}
	return f.text[f.tokens[i].End:f.tokens[closing].Start], true
}

// Refs lists every `name = value` occurrence at any depth.
func (f *Fields) Refs(name string) []Ref {
	var refs []Ref
	for i := 0; i+2 < len(f.tokens); i++ {
		if !f.isAssignment(i, name) {
			continue
		}
		v := f.tokens[i+2]
		if v.Kind == Ident || v.Kind == String {
			refs = append(refs, Ref{Value: v.Value(), Offset: f.tokens[i].Start})
		}
	}
	return refs
}

// Numeric returns the top-level assignments with a numeric value, in order.
func (f *Fields) Numeric() []Pair {
	var pairs []Pair
	depth := 0
	for i := 0; i < len(f.tokens); i++ {
		switch f.tokens[i].Kind {
		case OpenBrace:
			depth++
			continue
		case CloseBrace:
			depth--
			continue
		}
		if depth != 0 || i+2 >= len(f.tokens) || !f.isAssignment(i, f.tokens[i].Text) {
			continue
		}
		v := f.tokens[i+2]
		if v.Kind != Ident {
			continue
		}
		n, err := strconv.ParseFloat(f.Resolve(v.Text), 64)
		if err != nil {
			continue
		}
		pairs = append(pairs, Pair{Key: f.tokens[i].Text, Value: n})
	}
	return pairs
}

// Resolve substitutes a scripted variable reference. Unknown references and
// plain values are returned unchanged.
func (f *Fields) Resolve(v string) string {
	if !strings.HasPrefix(v, "@") || f.vars == nil {
		return v
	}
	if r, ok := f.vars[v]; ok {
		return r
	}
	return v
}

// find returns the index of the value token of name.
func (f *Fields) find(name string) int {
	fallback := -1
	depth := 0
	for i := 0; i < len(f.tokens); i++ {
		switch f.tokens[i].Kind {
		case OpenBrace:
			depth++
			continue
		case CloseBrace:
			depth--
			continue
		}
		if i+2 >= len(f.tokens) || !f.isAssignment(i, name) {
			continue
		}
		if depth == 0 {
			return i + 2
		}
		if fallback < 0 {
			fallback = i + 2
		}
	}
	return fallback
}

func (f *Fields) findTop(name string) int {
	depth := 0
	for i := 0; i+2 < len(f.tokens); i++ {
		switch f.tokens[i].Kind {
		case OpenBrace:
			depth++
		case CloseBrace:
			depth--
		default:
			if depth == 0 && f.isAssignment(i, name) {
				return i + 2
			}
		}
	}
	return -1
}

func (f *Fields) isAssignment(i int, name string) bool {
	return f.tokens[i].Kind == Ident && f.tokens[i].Text == name &&
		f.tokens[i+1].Kind == Operator && f.tokens[i+1].Text == "="
}

// Variables collects top-level `@name = value` definitions.
func Variables(text string) map[string]string {
	tokens := structural(Tokenize(text))
	vars := make(map[string]string)
	depth := 0
	for i := 0; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case OpenBrace:
			depth++
			continue
		case CloseBrace:
			depth--
			continue
		}
		if depth != 0 || i+2 >= len(tokens) {
			continue
		}
		t := tokens[i]
		if t.Kind != Ident || !strings.HasPrefix(t.Text, "@") {
			continue
		}
		if tokens[i+1].Kind == Operator && tokens[i+1].Text == "=" && tokens[i+2].Kind != OpenBrace {
			vars[t.Text] = tokens[i+2].Value()
		}
	}
	return vars
}
