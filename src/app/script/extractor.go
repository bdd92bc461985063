package script

import (
	"github.com/rs/zerolog/log"
)

// DefaultBlocklist holds block labels that are structural keywords rather
// than entities.
var DefaultBlocklist = []string{
	"if", "else", "limit", "modifier", "weight_modifier", "potential",
	"trigger", "OR", "AND", "NOT", "NOR", "weight_groups",
	"mod_weight_if_group_picked", "feature_flags", "category",
	"prereqfor_desc", "diplo_action", "ship", "custom",
	"has_trait_in_council", "prerequisites", "ai_weight",
}

// Block is a named, brace-delimited region. Body is the exact text between
// the braces; Start is the offset of the identifier and End the offset just
// past the closing brace.
type Block struct {
	ID    string
	Body  string
	Start int
	End   int
}

// Extractor finds top-level `identifier = { ... }` blocks. It remembers
// every identifier it has emitted, so one Extractor is one accumulating run:
// the first definition of an identifier wins.
type Extractor struct {
	blocklist map[string]struct{}
	seen      map[string]struct{}
	repeat    bool
}

func NewExtractor(blocklist ...string) *Extractor {
	e := &Extractor{
		blocklist: make(map[string]struct{}, len(blocklist)),
		seen:      make(map[string]struct{}),
	}
	for _, id := range blocklist {
		e.blocklist[id] = struct{}{}
	}
	return e
}

// AllowDuplicates turns off first-wins deduplication, for files where the
// block label names a type rather than an entity.
func (e *Extractor) AllowDuplicates() *Extractor {
	e.repeat = true
	return e
}

// Seen reports whether id was already emitted in this run.
func (e *Extractor) Seen(id string) bool {
	_, ok := e.seen[id]
	return ok
}

// Next returns the first block found at or after pos, plus the offset to
// continue from. ok is false when no further block exists.
func (e *Extractor) Next(text string, pos int) (b Block, next int, ok bool) {
	if pos < 0 {
		pos = 0
	}
	if pos >= len(text) {
		return Block{}, len(text), false
	}

	e.walk(text[pos:], func(found Block) bool {
		found.Start += pos
		found.End += pos
		b, next, ok = found, found.End, true
		return false
	})
	if !ok {
		next = len(text)
	}
	return b, next, ok
}

// All returns every block in text in source order.
func (e *Extractor) All(text string) []Block {
	var blocks []Block
	e.walk(text, func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}

func (e *Extractor) walk(text string, emit func(Block) bool) {
	tokens := structural(Tokenize(text))
	n := len(tokens)

	for i := 0; i < n; {
		if !isBlockStart(tokens, i) {
			i++
			continue
		}

		start := i
		id := tokens[start].Text
		open := start + 2
		closing := matchBrace(tokens, open)
		if closing < 0 {
			log.Debug().Str("id", id).Int("offset", tokens[start].Start).Msg("[scan] unbalanced block skipped")
			i = open + 1
			continue
		}
		i = closing + 1

		if _, blocked := e.blocklist[id]; blocked {
			continue
		}
		if !e.repeat {
			if e.Seen(id) {
				continue
			}
			e.seen[id] = struct{}{}
		}

		b := Block{
			ID:    id,
			Body:  text[tokens[open].End:tokens[closing].Start],
			Start: tokens[start].Start,
			End:   tokens[closing].End,
		}
		if !emit(b) {
			return
		}
	}
}

func isBlockStart(tokens []Token, i int) bool {
	return i+2 < len(tokens) &&
		tokens[i].Kind == Ident &&
		tokens[i+1].Kind == Operator && tokens[i+1].Text == "=" &&
		tokens[i+2].Kind == OpenBrace
}

// matchBrace returns the index of the brace closing tokens[open], or -1 when
// the input ends first.
func matchBrace(tokens []Token, open int) int {
	depth := 1
	for j := open + 1; j < len(tokens); j++ {
		switch tokens[j].Kind {
		case OpenBrace:
			depth++
		case CloseBrace:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
