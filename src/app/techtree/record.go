package techtree

import "strings"

// Areas are the research areas written to separate files, in output order.
var Areas = []string{"physics", "engineering", "society"}

// Record is one technology as consumed by the viewer.
type Record struct {
	ID                    string                  `json:"id"`
	Name                  string                  `json:"name"`
	Area                  string                  `json:"area"`
	Tier                  int                     `json:"tier"`
	Cost                  int                     `json:"cost"`
	Prerequisites         []string                `json:"prerequisites"`
	Weight                float64                 `json:"weight"`
	Icon                  string                  `json:"icon"`
	Description           string                  `json:"description"`
	AlternateNames        map[string]string       `json:"alternate_names"`
	Effects               []Effect                `json:"effects"`
	UnlockDetails         UnlockDetails           `json:"unlock_details"`
	FactionAvailability   map[string]Availability `json:"faction_availability"`
	IsRare                bool                    `json:"is_rare"`
	IsDangerous           bool                    `json:"is_dangerous"`
	IsReverseEngineerable bool                    `json:"is_reverse_engineerable"`
	Category              []string                `json:"category"`
	RequiredSpecies       []string                `json:"required_species"`
}

// Effect is one displayable modifier granted by a technology.
type Effect struct {
	Type      string  `json:"type"`
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Display   string  `json:"display"`
	Component string  `json:"component,omitempty"`
	Source    string  `json:"source,omitempty"`
}

// UnlockDetails lists what a technology unlocks, both declared and found by
// reverse lookup.
type UnlockDetails struct {
	Technologies  []string            `json:"technologies"`
	Components    []string            `json:"components"`
	Buildings     []string            `json:"buildings"`
	Other         []string            `json:"other"`
	Description   string              `json:"description"`
	UnlocksByType map[string][]string `json:"unlocks_by_type"`
}

// Availability tells whether a faction can research a technology and which
// kind of condition granted it.
type Availability struct {
	Available bool   `json:"available"`
	Condition string `json:"condition"`
}

// NormalizeArea folds area values with trailing garbage, such as
// "engineering category =", onto the known area names.
func NormalizeArea(area string) string {
	for _, a := range Areas {
		if strings.HasPrefix(area, a) {
			return a
		}
	}
	return area
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
