package techtree

import (
	"strings"
	"unicode"

	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
)

// Details builds the unlock details of a technology. titles are
// localisation keys of ship or feature unlocks, declared are unlock ids and
// reverse holds the items that name the technology as a prerequisite.
func Details(titles, declared []string, reverse []unlocks.Entry, loc *localisation.Table) UnlockDetails {
	d := UnlockDetails{
		Technologies:  []string{},
		Components:    []string{},
		Buildings:     []string{},
		Other:         []string{},
		UnlocksByType: map[string][]string{},
	}

	for _, id := range declared {
		switch {
		case strings.HasPrefix(id, "tech_"):
			d.Technologies = append(d.Technologies, id)
		case strings.HasPrefix(id, "building_"):
			d.Buildings = append(d.Buildings, id)
		case strings.HasPrefix(id, "COMPONENT_") || isUpper(id):
			d.Components = append(d.Components, id)
		default:
			d.Other = append(d.Other, id)
		}
	}

	var parts []string
	for _, key := range titles {
		parts = append(parts, localisation.Clean(loc.Get(key, key)))
	}

	buildings := localize(d.Buildings, loc)
	techs := localize(d.Technologies, loc)
	other := localize(d.Other, loc)

	if len(buildings) > 0 {
		parts = append(parts, unlocks.Label("Building", buildings))
		d.UnlocksByType["Building"] = append(d.UnlocksByType["Building"], buildings...)
	}
	if len(d.Components) > 0 {
		parts = append(parts, unlocks.Label("Component", d.Components))
		d.UnlocksByType["Component"] = append(d.UnlocksByType["Component"], d.Components...)
	}
	if len(techs) > 0 {
		if len(techs) == 1 {
			parts = append(parts, "Technology: "+techs[0])
		} else {
			parts = append(parts, "Technologies: "+strings.Join(techs, ", "))
		}
		d.UnlocksByType["Technology"] = append(d.UnlocksByType["Technology"], techs...)
	}
	if len(other) > 0 {
		parts = append(parts, "Other: "+strings.Join(other, ", "))
		d.UnlocksByType["Other"] = append(d.UnlocksByType["Other"], other...)
	}

	parts = append(parts, unlocks.Parts(reverse)...)
	for _, e := range reverse {
		d.UnlocksByType[e.Type] = append(d.UnlocksByType[e.Type], e.Name)
	}

	d.Description = strings.Join(parts, " | ")
	return d
}

func localize(ids []string, loc *localisation.Table) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, loc.Get(id, id))
	}
	return out
}

// isUpper reports whether s has letters and none of them is lower case.
func isUpper(s string) bool {
	letters := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
		}
	}
	return letters
}
