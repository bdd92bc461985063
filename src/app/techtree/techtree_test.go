package techtree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
	"github.com/simivar/stnh-techtree-exporter/src/app/balance"
	"github.com/simivar/stnh-techtree-exporter/src/app/components"
	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
	"github.com/simivar/stnh-techtree-exporter/src/app/triggers"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) []Source {
	t.Helper()
	return ParseFile(text, script.NewExtractor(script.DefaultBlocklist...))
}

func newBuilder(t *testing.T, in Inputs) *Builder {
	t.Helper()
	b, err := NewBuilder(in)
	require.NoError(t, err)
	return b
}

func TestBuildMinimalTechnology(t *testing.T) {
	sources := parse(t, `tech_alpha = { area = physics tier = 2 cost = 100 prerequisites = { "tech_zero" } }`)

	records := newBuilder(t, Inputs{}).Build(nil, sources)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "tech_alpha", r.ID)
	assert.Equal(t, "physics", r.Area)
	assert.Equal(t, 2, r.Tier)
	assert.Equal(t, 100, r.Cost)
	assert.Equal(t, []string{"tech_zero"}, r.Prerequisites)
	assert.Equal(t, "tech_alpha", r.Name)
	assert.Equal(t, "tech_alpha", r.Icon)
	assert.True(t, r.IsReverseEngineerable)
}

func TestBuildRequiredSpeciesFromPotential(t *testing.T) {
	species, err := triggers.NewResolver([]triggers.Rule{
		{Condition: "is_species_class = KDF", Species: []string{"Klingon"}, Type: triggers.Include},
	})
	require.NoError(t, err)

	sources := parse(t, `
tech_bat_leth = {
	area = society
	potential = { is_species_class = KDF }
}`)
	records := newBuilder(t, Inputs{Species: species}).Build(nil, sources)

	require.Len(t, records, 1)
	assert.Equal(t, []string{"Klingon"}, records[0].RequiredSpecies)
}

func TestBuildPrefersBalanceCenterEntries(t *testing.T) {
	exported := []balance.Technology{{Name: "tech_a", Area: "engineering category =", Cost: 5}}
	parsed := parse(t, `
tech_a = { area = physics cost = 100 }
tech_b = { cost = 7 }
`)

	b := newBuilder(t, Inputs{})
	records := b.Build(exported, parsed)

	require.Len(t, records, 2)
	assert.Equal(t, 5, records[0].Cost)
	assert.Equal(t, "engineering", records[0].Area)
	assert.Equal(t, "unknown", records[1].Area)
	assert.Equal(t, Stats{FromBalance: 1, FromMod: 1, AreasFixed: 1}, b.Stats())
}

func TestBuildDropsRecordsWithoutID(t *testing.T) {
	b := newBuilder(t, Inputs{})
	records := b.Build([]balance.Technology{{Area: "physics"}, {Name: "tech_ok", Area: "physics"}}, nil)

	require.Len(t, records, 1)
	assert.Equal(t, "tech_ok", records[0].ID)
	assert.Equal(t, 1, b.Stats().Dropped)
}

func TestParseBlockFields(t *testing.T) {
	sources := parse(t, `
@cost = 480
tech_physics_sensors_2 = {
	cost = @cost
	tier = 3
	weight = 0.5
	is_rare = yes
	is_reverse_engineerable = no
	category = { particles OR }
	prerequisites = { "tech_physics_sensors_1" "building_x" }
	modifier = {
		ship_sensor_range_add = 2
	}
	weight_modifier = {
		modifier = { factor = 2 }
	}
	prereqfor_desc = {
		ship = { title = "SCOUT_TITLE" desc = "SCOUT_DESC" }
		component = "SENSOR_2"
		building = "building_array"
	}
}`)

	require.Len(t, sources, 1)
	s := sources[0]
	assert.Equal(t, "physics", s.Area)
	assert.Equal(t, 480, s.Cost)
	assert.Equal(t, 3, s.Tier)
	assert.Equal(t, 0.5, s.Weight)
	assert.True(t, s.IsRare)
	assert.False(t, s.IsReverseEngineerable)
	assert.Equal(t, []string{"particles"}, s.Category)
	assert.Equal(t, []string{"tech_physics_sensors_1"}, s.Prerequisites)
	assert.Equal(t, []script.Pair{{Key: "ship_sensor_range_add", Value: 2}}, s.Modifiers)
	assert.Equal(t, []string{"SCOUT_TITLE"}, s.Titles)
	assert.Equal(t, []string{"building_array", "SENSOR_2"}, s.Unlocks)
}

func TestFormatModifier(t *testing.T) {
	tests := map[string]struct {
		key   string
		value float64
	}{
		"+10% Speed":         {"ship_speed_mult", 0.1},
		"-25% Damage":        {"army_damage_mult", -0.25},
		"+3 Shield":          {"ship_shield_add", 3},
		"+15% Energy Income": {"country_resource_energy_produces_mult", 0.15},
		"+2.50 Stability":    {"planet_stability", 2.5},
	}
	for want, c := range tests {
		assert.Equal(t, want, FormatModifier(c.key, c.value), c.key)
	}
}

func TestEffectsCombineComponentsAndDirectModifiers(t *testing.T) {
	catalog := components.NewCatalog()
	catalog.Parse(`
utility_component_template = {
	key = "SHIELD_1"
	prerequisites = { "tech_shields" }
	modifier = { ship_shield_add = 120 }
}`)

	effects := Effects("tech_shields", catalog, []script.Pair{{Key: "ship_armor_mult", Value: 0.1}})

	require.Len(t, effects, 2)
	assert.Equal(t, Effect{Type: "modifier", Key: "ship_shield_add", Value: 120, Display: "+120 Shield", Component: "SHIELD_1"}, effects[0])
	assert.Equal(t, "tech_direct", effects[1].Source)
	assert.Equal(t, "+10% Armor", effects[1].Display)
	assert.Empty(t, Effects("tech_none", nil, nil))
}

func TestEffectsIncludeComponentStats(t *testing.T) {
	catalog := components.NewCatalog()
	catalog.Parse(`
weapon_component_template = {
	key = "PHASER_1"
	size = small
	power = -5
	damage = { min = 10 max = 20 }
	cooldown = 3
	prerequisites = { "tech_phaser_1" }
	resources = {
		cost = { alloys = 12 }
		upkeep = { energy = 0.2 }
	}
}`)

	effects := Effects("tech_phaser_1", catalog, nil)

	displays := make([]string, 0, len(effects))
	for _, e := range effects {
		assert.Equal(t, "component_stat", e.Type)
		assert.Equal(t, "PHASER_1", e.Component)
		displays = append(displays, e.Display)
	}
	assert.Equal(t, []string{
		"Small Slot",
		"-5 Power",
		"10-20 Damage",
		"3 Cooldown",
		"12 Alloys Cost",
		"0.2 Energy Upkeep",
	}, displays)
	assert.Equal(t, Effect{Type: "component_stat", Key: "cost_alloys", Value: 12, Display: "12 Alloys Cost", Component: "PHASER_1"}, effects[4])
}

func TestDetailsDescription(t *testing.T) {
	loc := localisation.NewTable()
	loc.Parse("l_english:\n building_lab:0 \"Research Lab\"\n SCOUT_TITLE:0 \"§HScout§!\"\n")

	d := Details(
		[]string{"SCOUT_TITLE"},
		[]string{"building_lab", "SHIELD_1", "tech_b", "tech_c", "edict_x"},
		[]unlocks.Entry{{Type: "Ship Type", ID: "cruiser", Name: "Cruiser"}},
		loc,
	)

	assert.Equal(t, "Scout | Building: Research Lab | Component: SHIELD_1 | Technologies: tech_b, tech_c | Other: edict_x | Ship Type: Cruiser", d.Description)
	assert.Equal(t, []string{"building_lab"}, d.Buildings)
	assert.Equal(t, []string{"SHIELD_1"}, d.Components)
	assert.Equal(t, []string{"edict_x"}, d.Other)
	assert.Equal(t, map[string][]string{
		"Building":   {"Research Lab"},
		"Component":  {"SHIELD_1"},
		"Technology": {"tech_b", "tech_c"},
		"Other":      {"edict_x"},
		"Ship Type":  {"Cruiser"},
	}, d.UnlocksByType)
}

func TestDetailsEmpty(t *testing.T) {
	d := Details(nil, nil, nil, nil)
	assert.Equal(t, "", d.Description)
	assert.NotNil(t, d.Technologies)
	assert.Empty(t, d.UnlocksByType)
}

func TestAlternateNames(t *testing.T) {
	loc := localisation.NewTable()
	loc.Parse("l_english:\n tech_society_fed_marines:0 \"MACO Detachment\"\n tech_society_kdf_marines_1:0 \"Klingon Raiding Techniques\"\n")

	assert.Equal(t, map[string]string{
		"Federation": "MACO Detachment",
		"Klingon":    "Klingon Raiding Techniques",
	}, AlternateNames("tech_society_fed_marines", loc))
	assert.Empty(t, AlternateNames("tech_society_marines", loc))
}

func TestAvailabilityFor(t *testing.T) {
	md := balance.Metadata{
		CountryFlags: map[string]string{"klingon_empire": "Klingon"},
		Civics:       map[string]string{"civic_ufp": "Federation"},
	}
	r, err := triggers.NewResolver(AvailabilityRules(md))
	require.NoError(t, err)

	got := AvailabilityFor("OR = { has_country_flag = klingon_empire uses_cloak_romulans }", r)

	assert.Equal(t, map[string]Availability{
		"Klingon": {Available: true, Condition: "country_flag"},
		"Romulan": {Available: true, Condition: "uses_trigger"},
	}, got)
	assert.Empty(t, AvailabilityFor("  ", r))
}

func TestFactions(t *testing.T) {
	records := []Record{
		{ID: "a", FactionAvailability: map[string]Availability{"Klingon": {Available: true}}},
		{ID: "b", RequiredSpecies: []string{"Klingon"}},
		{ID: "c"},
	}

	got := Factions([]string{"Klingon", "Federation", "breen_thing"}, records)

	require.Len(t, got, 3)
	assert.Equal(t, Faction{ID: "federation", Name: "United Federation of Planets", ShortName: "UFP", Color: "#0066cc", Playable: true, TechCount: 2}, got[0])
	assert.Equal(t, "klingon", got[1].ID)
	assert.Equal(t, 3, got[1].TechCount)
	assert.Equal(t, Faction{ID: "breen_thing", Name: "Breen Thing", ShortName: "BRE", Color: "#cccccc", TechCount: 2}, got[2])
}

func TestAnalyzeReportsDanglingAndCycles(t *testing.T) {
	records := []Record{
		{ID: "tech_a"},
		{ID: "tech_b", Prerequisites: []string{"tech_a", "tech_missing"}},
		{ID: "tech_c", Prerequisites: []string{"tech_d"}},
		{ID: "tech_d", Prerequisites: []string{"tech_c"}},
		{ID: "tech_e", Prerequisites: []string{"tech_e"}},
	}

	rep, err := Analyze(records)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Roots)
	assert.Equal(t, 3, rep.Edges)
	assert.Equal(t, []Dangling{{Tech: "tech_b", Missing: "tech_missing"}}, rep.Dangling)
	assert.Equal(t, [][]string{{"tech_c", "tech_d"}, {"tech_e"}}, rep.Cycles)
	assert.Equal(t, []string{"tech_b -> tech_missing", "cycle: tech_c, tech_d", "cycle: tech_e"}, rep.Lines())
}

func TestWriteSplitsByArea(t *testing.T) {
	dir := t.TempDir()
	records := []Record{
		{ID: "tech_p", Area: "physics", UnlockDetails: UnlockDetails{UnlocksByType: map[string][]string{"Building": {"x"}}}},
		{ID: "tech_s", Area: "society", UnlockDetails: UnlockDetails{UnlocksByType: map[string][]string{"Ship Type": {"y"}, "Building": {"z"}}}},
		{ID: "tech_u", Area: "unknown"},
	}

	err := Write(artifact.NewWriter(dir, false), Output{Records: records, Factions: []Faction{}})
	require.NoError(t, err)

	var physics []Record
	data, err := os.ReadFile(filepath.Join(dir, AreaFile("physics")))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &physics))
	require.Len(t, physics, 1)
	assert.Equal(t, "tech_p", physics[0].ID)

	data, err = os.ReadFile(filepath.Join(dir, AreaFile("engineering")))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, UnlockTypesFile))
	require.NoError(t, err)
	var types []string
	require.NoError(t, json.Unmarshal(data, &types))
	assert.Equal(t, []string{"Building", "Ship Type"}, types)

	_, err = os.Stat(filepath.Join(dir, DanglingFile))
	assert.NoError(t, err)
}
