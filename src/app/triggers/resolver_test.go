package triggers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, rules []Rule) *Resolver {
	t.Helper()
	r, err := NewResolver(rules)
	require.NoError(t, err)
	return r
}

func TestResolveIncludeRule(t *testing.T) {
	r := newResolver(t, []Rule{
		{Condition: "is_species_class = KDF", Species: []string{"Klingon"}, Type: Include},
	})

	required, excluded := r.Resolve(" is_species_class = KDF ")

	assert.Equal(t, []string{"Klingon"}, required)
	assert.Empty(t, excluded)
}

func TestResolveExclusionWins(t *testing.T) {
	rules := []Rule{
		{Condition: "is_borg_empire = no", Species: []string{"Borg"}, Type: Exclude},
		{Condition: "has_country_flag = borg_collective", Species: []string{"Borg", "Undine"}, Type: Include},
	}
	text := "has_country_flag = borg_collective\nis_borg_empire = no"

	for _, ordered := range [][]Rule{rules, {rules[1], rules[0]}} {
		required, excluded := newResolver(t, ordered).Resolve(text)

		assert.Equal(t, []string{"Undine"}, required)
		assert.Equal(t, []string{"Borg"}, excluded)
	}
}

func TestResolveMatchesWholeWordsOnly(t *testing.T) {
	r := newResolver(t, []Rule{
		{Condition: "is_species_class = KDF", Species: []string{"Klingon"}, Type: Include},
	})

	required, _ := r.Resolve("is_species_class = KDF_ALT")
	assert.Empty(t, required)

	required, _ = r.Resolve("not_is_species_class = KDF")
	assert.Empty(t, required)
}

func TestResolveToleratesSpacing(t *testing.T) {
	r := newResolver(t, []Rule{
		{Condition: "is_species_class = KDF", Species: []string{"Klingon"}, Type: Include},
	})

	required, _ := r.Resolve("is_species_class=KDF")

	assert.Equal(t, []string{"Klingon"}, required)
}

func TestResolveEmptyTextMatchesNothing(t *testing.T) {
	r := newResolver(t, []Rule{{Condition: "x = y", Species: []string{"A"}, Type: Include}})

	required, excluded := r.Resolve("   ")

	assert.Empty(t, required)
	assert.Empty(t, excluded)
}

func TestResolveKeepsIncludeAfterSiblingNot(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	r := newResolver(t, table.Rules())

	required, excluded := r.Resolve("NOT = { has_country_flag = borg_collective } is_species_class = KDF")

	assert.Equal(t, []string{"Klingon"}, required)
	assert.Empty(t, excluded)
}

func TestResolveIgnoresNotScope(t *testing.T) {
	rule := Rule{Condition: "has_technology = tech_x", Species: []string{"X"}, Type: Include}

	required, _ := newResolver(t, []Rule{rule}).Resolve("NOT = { has_technology = tech_x }")

	assert.Equal(t, []string{"X"}, required)
}

func TestIsNegated(t *testing.T) {
	text := "NOT = { has_technology = tech_x }"
	pos := len("NOT = { ")

	assert.True(t, IsNegated(text, pos, 50))
	assert.False(t, IsNegated(text, pos, 3))
	assert.False(t, IsNegated("OR = { has_technology = tech_x }", pos-1, 50))
}

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	assert.Len(t, table, 4)
	assert.Equal(t, 35, table.Len())

	r := newResolver(t, table.Rules())
	required, _ := r.Resolve("is_species_class = KDF")
	assert.Equal(t, []string{"Klingon"}, required)
}

func TestLoadJSONTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trigger_map.json")
	data := `{"species_specific": [{"condition": "is_species_class = ROM", "species": ["Romulan"], "type": "include"}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []Rule{{Condition: "is_species_class = ROM", Species: []string{"Romulan"}, Type: Include}}, table.Rules())
}

func TestParseRejectsUnknownPolarity(t *testing.T) {
	_, err := Parse([]byte(`c: [{condition: "a = b", species: [A], type: maybe}]`))

	assert.Error(t, err)
}
