package triggers

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Polarity string

const (
	Include Polarity = "include"
	Exclude Polarity = "exclude"
)

// Rule maps a textual condition to the entities it implies. Tag is an
// optional label carried through to match results.
type Rule struct {
	Condition string   `yaml:"condition" json:"condition"`
	Species   []string `yaml:"species" json:"species"`
	Type      Polarity `yaml:"type" json:"type"`
	Tag       string   `yaml:"tag,omitempty" json:"tag,omitempty"`
}

// Table is a rule table grouped by category name.
type Table map[string][]Rule

//go:embed default_rules.yaml
var defaultRules []byte

// Default returns the built-in curated table.
func Default() (Table, error) {
	return Parse(defaultRules)
}

// Load reads a rule table from a YAML or JSON file.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadOrDefault reads path, or returns the built-in table when path is
// empty.
func LoadOrDefault(path string) (Table, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse trigger table: %w", err)
	}
	for category, rules := range t {
		for i, r := range rules {
			if r.Condition == "" {
				return nil, fmt.Errorf("category %s rule %d: empty condition", category, i)
			}
			switch r.Type {
			case Include, Exclude:
			case "":
				t[category][i].Type = Include
			default:
				return nil, fmt.Errorf("category %s rule %d: unknown type %q", category, i, r.Type)
			}
		}
	}
	return t, nil
}

// Rules flattens the table, categories in name order.
func (t Table) Rules() []Rule {
	categories := make([]string, 0, len(t))
	for c := range t {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var out []Rule
	for _, c := range categories {
		out = append(out, t[c]...)
	}
	return out
}

func (t Table) Len() int {
	n := 0
	for _, rules := range t {
		n += len(rules)
	}
	return n
}
