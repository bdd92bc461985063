package triggers

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// DefaultNegationWindow is how many bytes before a technology reference are
// inspected for an enclosing NOT.
const DefaultNegationWindow = 50

// Hit is a rule that matched a condition text.
type Hit struct {
	Rule Rule
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// Resolver classifies condition text against an ordered rule list. It does
// no logical-expression parsing: a rule applies when its condition appears
// as whole words anywhere in the text, negated or not.
type Resolver struct {
	rules []compiledRule
}

func NewResolver(rules []Rule) (*Resolver, error) {
	r := &Resolver{}
	for _, rule := range rules {
		p, err := conditionPattern(rule.Condition)
		if err != nil {
			return nil, err
		}
		r.rules = append(r.rules, compiledRule{Rule: rule, pattern: p})
	}
	return r, nil
}

func (r *Resolver) Len() int {
	return len(r.rules)
}

// Match returns the rules that apply to text, in rule order.
func (r *Resolver) Match(text string) []Hit {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var hits []Hit
	for _, rule := range r.rules {
		if !rule.pattern.MatchString(text) {
			continue
		}
		hits = append(hits, Hit{Rule: rule.Rule})
	}
	return hits
}

// Resolve computes the entities text requires. Excluded entities are
// removed from the required set whatever the order of the rules.
func (r *Resolver) Resolve(text string) (required, excluded []string) {
	inc := map[string]struct{}{}
	exc := map[string]struct{}{}

	for _, h := range r.Match(text) {
		target := inc
		if h.Rule.Type == Exclude {
			target = exc
		}
		for _, s := range h.Rule.Species {
			target[s] = struct{}{}
		}
	}

	for s := range inc {
		if _, ok := exc[s]; !ok {
			required = append(required, s)
		}
	}
	for s := range exc {
		excluded = append(excluded, s)
	}
	sort.Strings(required)
	sort.Strings(excluded)
	return required, excluded
}

// IsNegated reports whether the window bytes before pos contain both NOT
// and an assignment. This is a textual approximation, not scope analysis:
// it misses NOT blocks opened further back and may catch a closed sibling.
func IsNegated(text string, pos, window int) bool {
	if pos > len(text) {
		pos = len(text)
	}
	from := pos - window
	if from < 0 {
		from = 0
	}
	before := text[from:pos]
	return strings.Contains(before, "NOT") && strings.Contains(before, "=")
}

var operators = map[string]bool{"=": true, "<": true, ">": true, "<=": true, ">=": true, "!=": true, "==": true}

// conditionPattern turns `is_species_class = KDF` into a whole-word pattern
// tolerant of spacing around operators.
func conditionPattern(condition string) (*regexp.Regexp, error) {
	parts := strings.Fields(condition)
	if len(parts) == 0 {
		return nil, errors.New("empty trigger condition")
	}

	var sb strings.Builder
	if isWord(parts[0][0]) {
		sb.WriteString(`\b`)
	}
	for i, p := range parts {
		if i > 0 {
			if operators[p] || operators[parts[i-1]] {
				sb.WriteString(`\s*`)
			} else {
				sb.WriteString(`\s+`)
			}
		}
		sb.WriteString(regexp.QuoteMeta(p))
	}
	last := parts[len(parts)-1]
	if isWord(last[len(last)-1]) {
		sb.WriteString(`\b`)
	}

	return regexp.Compile(sb.String())
}

func isWord(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
