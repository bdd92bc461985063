package techtree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/simivar/stnh-techtree-exporter/src/app/components"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var modifierPrefixes = []string{"country_", "planet_", "pop_", "ship_", "starbase_", "army_"}

// FormatModifier renders a modifier for display: _mult values as a signed
// percentage, _add values as a signed integer, anything else with two
// decimals.
func FormatModifier(key string, value float64) string {
	var v string
	switch {
	case strings.HasSuffix(key, "_mult"):
		v = fmt.Sprintf("%+.0f%%", value*100)
	case strings.HasSuffix(key, "_add"):
		v = fmt.Sprintf("%+.0f", value)
	default:
		v = fmt.Sprintf("%+.2f", value)
	}
	return v + " " + HumanizeModifier(key)
}

// HumanizeModifier strips scope prefixes and type suffixes from a modifier
// key and title-cases the rest.
func HumanizeModifier(key string) string {
	name := key
	for _, p := range modifierPrefixes {
		name = strings.ReplaceAll(name, p, "")
	}
	name = strings.ReplaceAll(name, "_mult", "")
	name = strings.ReplaceAll(name, "_add", "")

	if strings.Contains(name, "resource_") {
		name = strings.ReplaceAll(name, "resource_", "")
		name = strings.ReplaceAll(name, "_produces", " Income")
		name = strings.ReplaceAll(name, "_upkeep", " Upkeep")
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Effects lists the modifiers and stats of every component the technology
// unlocks, followed by the technology's own modifiers.
func Effects(techID string, catalog *components.Catalog, direct []script.Pair) []Effect {
	effects := []Effect{}
	if catalog != nil {
		for _, comp := range catalog.ForTech(techID) {
			for _, m := range comp.Modifiers {
				effects = append(effects, Effect{
					Type:      "modifier",
					Key:       m.Key,
					Value:     m.Value,
					Display:   FormatModifier(m.Key, m.Value),
					Component: comp.Key,
				})
			}
			effects = append(effects, componentStats(comp)...)
		}
	}
	for _, m := range direct {
		effects = append(effects, Effect{
			Type:    "modifier",
			Key:     m.Key,
			Value:   m.Value,
			Display: FormatModifier(m.Key, m.Value),
			Source:  "tech_direct",
		})
	}
	return effects
}

// componentStats renders the non-zero template stats of a component.
func componentStats(comp *components.Component) []Effect {
	var out []Effect
	add := func(key string, value float64, display string) {
		out = append(out, Effect{Type: "component_stat", Key: key, Value: value, Display: display, Component: comp.Key})
	}

	if comp.Size != "" {
		add("size", 0, cases.Title(language.English).String(strings.ReplaceAll(comp.Size, "_", " "))+" Slot")
	}
	if comp.Power != 0 {
		add("power", comp.Power, fmt.Sprintf("%+g Power", comp.Power))
	}
	if comp.DamageMax != 0 {
		add("damage", comp.DamageMax, num(comp.DamageMin)+"-"+num(comp.DamageMax)+" Damage")
	}
	if comp.Windup != 0 {
		add("windup", comp.Windup, num(comp.Windup)+" Windup")
	}
	if comp.Cooldown != 0 {
		add("cooldown", comp.Cooldown, num(comp.Cooldown)+" Cooldown")
	}
	for _, res := range sortedAmounts(comp.Cost) {
		add("cost_"+res, comp.Cost[res], num(comp.Cost[res])+" "+HumanizeModifier(res)+" Cost")
	}
	for _, res := range sortedAmounts(comp.Upkeep) {
		add("upkeep_"+res, comp.Upkeep[res], num(comp.Upkeep[res])+" "+HumanizeModifier(res)+" Upkeep")
	}
	return out
}

func sortedAmounts(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
