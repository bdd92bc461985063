package techtree

import (
	"sort"
	"strings"

	"github.com/simivar/stnh-techtree-exporter/src/app/balance"
	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/triggers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type factionPrefix struct {
	prefix  string
	faction string
}

// factionPrefixes are the id infixes of faction-specific technology
// variants, e.g. tech_society_fed_marines.
var factionPrefixes = []factionPrefix{
	{"fed", "Federation"},
	{"kdf", "Klingon"},
	{"rom", "Romulan"},
	{"car", "Cardassian"},
	{"dom", "Dominion"},
	{"und", "Undine"},
	{"tho", "Tholian"},
	{"bre", "Breen"},
	{"fer", "Ferengi"},
	{"son", "Son'a"},
	{"hir", "Hirogen"},
	{"vot", "Voth"},
	{"kre", "Krenim"},
	{"vid", "Vidiian"},
	{"sul", "Suliban"},
}

// AlternateNames finds the localized names of the other faction variants
// of a faction-specific technology. Variants are looked up as the id with
// the faction infix substituted, then with an _1 suffix.
func AlternateNames(techID string, loc *localisation.Table) map[string]string {
	names := map[string]string{}

	own := ""
	pattern := ""
	for _, fp := range factionPrefixes {
		infix := "_" + fp.prefix + "_"
		if strings.Contains(techID, infix) {
			own = fp.faction
			pattern = strings.ReplaceAll(techID, infix, "_*_")
			break
		}
	}
	if pattern == "" {
		return names
	}

	for _, fp := range factionPrefixes {
		variant := strings.ReplaceAll(pattern, "_*_", "_"+fp.prefix+"_")
		if name := loc.Get(variant, ""); name != "" {
			names[fp.faction] = name
		} else if name := loc.Get(variant+"_1", ""); name != "" {
			names[fp.faction] = name
		}
	}

	if len(names) > 0 {
		if name := loc.Get(techID, ""); name != "" {
			names[own] = name
		}
	}
	return names
}

// usesTriggers map scripted trigger names to the faction they imply.
var usesTriggers = []triggers.Rule{
	{Condition: "uses_cloak_klingons", Species: []string{"Klingon"}},
	{Condition: "uses_cloak_romulans", Species: []string{"Romulan"}},
	{Condition: "uses_cloak_federation", Species: []string{"Federation"}},
	{Condition: "uses_cloak_cardassian", Species: []string{"Cardassian"}},
	{Condition: "uses_torpedoes_klingon", Species: []string{"Klingon"}},
	{Condition: "uses_torpedoes_romulan", Species: []string{"Romulan"}},
	{Condition: "uses_torpedoes_federation", Species: []string{"Federation"}},
	{Condition: "is_machine_empire", Species: []string{"Machine"}},
	{Condition: "is_hive_empire", Species: []string{"Hive"}},
	{Condition: "is_borg_empire", Species: []string{"Borg"}},
}

// AvailabilityRules turns balance center faction mappings into trigger
// rules tagged with the kind of condition.
func AvailabilityRules(md balance.Metadata) []triggers.Rule {
	var rules []triggers.Rule
	for _, flag := range sortedKeys(md.CountryFlags) {
		rules = append(rules, triggers.Rule{
			Condition: "has_country_flag = " + flag,
			Species:   []string{md.CountryFlags[flag]},
			Type:      triggers.Include,
			Tag:       "country_flag",
		})
	}
	for _, civic := range sortedKeys(md.Civics) {
		rules = append(rules, triggers.Rule{
			Condition: "has_civic = " + civic,
			Species:   []string{md.Civics[civic]},
			Type:      triggers.Include,
			Tag:       "civic",
		})
	}
	for _, r := range usesTriggers {
		r.Type = triggers.Include
		r.Tag = "uses_trigger"
		rules = append(rules, r)
	}
	return rules
}

// AvailabilityFor evaluates a potential block. An empty block means no
// restriction and yields an empty map.
func AvailabilityFor(potential string, r *triggers.Resolver) map[string]Availability {
	out := map[string]Availability{}
	if strings.TrimSpace(potential) == "" || r == nil {
		return out
	}
	for _, h := range r.Match(potential) {
		for _, faction := range h.Rule.Species {
			out[faction] = Availability{Available: true, Condition: h.Rule.Tag}
		}
	}
	return out
}

// Faction is one entry of factions.json.
type Faction struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Color     string `json:"color"`
	Playable  bool   `json:"playable"`
	TechCount int    `json:"tech_count"`
}

var knownFactions = map[string]Faction{
	"Federation": {Name: "United Federation of Planets", ShortName: "UFP", Color: "#0066cc", Playable: true},
	"Klingon":    {Name: "Klingon Empire", ShortName: "KDF", Color: "#cc0000", Playable: true},
	"Romulan":    {Name: "Romulan Star Empire", ShortName: "RSE", Color: "#00cc66", Playable: true},
	"Cardassian": {Name: "Cardassian Union", ShortName: "CU", Color: "#cc6600", Playable: true},
	"Dominion":   {Name: "The Dominion", ShortName: "DOM", Color: "#9966cc", Playable: true},
	"Borg":       {Name: "Borg Collective", ShortName: "BC", Color: "#00cc00", Playable: true},
	"Undine":     {Name: "Undine", ShortName: "UND", Color: "#cc00cc", Playable: true},
}

// speciesFaction maps required species to the faction counted for them.
var speciesFaction = map[string]string{
	"Federation": "Federation",
	"Klingon":    "Klingon",
	"Romulan":    "Romulan",
	"Cardassian": "Cardassian",
	"Dominion":   "Dominion",
	"Borg":       "Borg",
	"Undine":     "Undine",
	"Breen":      "Breen",
	"Ferengi":    "Ferengi",
	"Hirogen":    "Hirogen",
	"Vidiian":    "Vidiian",
	"Suliban":    "Romulan",
	"Tholian":    "Other",
	"Krenim":     "Other",
	"Voth":       "Other",
}

// KnownFactions lists the factions with curated display data, sorted.
func KnownFactions() []string {
	names := make([]string, 0, len(knownFactions))
	for n := range knownFactions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Factions builds the faction list with the number of technologies each
// can research. A technology counts for a faction when its availability
// names the faction; otherwise its required species decide, and a
// technology without any restriction counts for everyone.
func Factions(names []string, records []Record) []Faction {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	out := make([]Faction, 0, len(sorted))
	for _, name := range sorted {
		count := 0
		for _, r := range records {
			if countsFor(name, r) {
				count++
			}
		}

		f, ok := knownFactions[name]
		if !ok {
			short := name
			if len(short) > 3 {
				short = short[:3]
			}
			f = Faction{
				Name:      cases.Title(language.English).String(strings.ReplaceAll(name, "_", " ")),
				ShortName: strings.ToUpper(short),
				Color:     "#cccccc",
			}
		}
		f.ID = strings.ReplaceAll(strings.ToLower(name), " ", "_")
		f.TechCount = count
		out = append(out, f)
	}
	return out
}

func countsFor(faction string, r Record) bool {
	if a, ok := r.FactionAvailability[faction]; ok {
		return a.Available
	}
	if len(r.RequiredSpecies) == 0 {
		return true
	}
	for _, s := range r.RequiredSpecies {
		if speciesFaction[s] == faction {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
