package techtree

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/balance"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
)

// Source is a technology before enrichment, read either from the balance
// center export or from the mod's own technology files.
type Source struct {
	ID                    string
	Area                  string
	Tier                  int
	Cost                  int
	Weight                float64
	Prerequisites         []string
	Category              []string
	Unlocks               []string
	Titles                []string
	Modifiers             []script.Pair
	Potential             string
	RequiredSpecies       []string
	IsRare                bool
	IsDangerous           bool
	IsReverseEngineerable bool
	FromMod               bool
}

// Prereqfor is the content of a prereqfor_desc block.
type Prereqfor struct {
	Ship         string
	Feature      string
	Components   []string
	Buildings    []string
	Technologies []string
}

// Unlocks flattens the declared unlock ids.
func (p Prereqfor) Unlocks() []string {
	var out []string
	out = append(out, p.Buildings...)
	out = append(out, p.Components...)
	out = append(out, p.Technologies...)
	return out
}

// Titles returns the localisation keys of ship and feature titles.
func (p Prereqfor) Titles() []string {
	var out []string
	if p.Ship != "" {
		out = append(out, p.Ship)
	}
	if p.Feature != "" {
		out = append(out, p.Feature)
	}
	return out
}

var categoryKeywords = map[string]bool{"OR": true, "AND": true, "NOT": true}

// FromBalance converts an export entry.
func FromBalance(t balance.Technology) Source {
	return Source{
		ID:                    t.Name,
		Area:                  t.Area,
		Tier:                  t.Tier,
		Cost:                  t.Cost,
		Weight:                t.Weight,
		Prerequisites:         t.Prerequisites,
		Category:              t.Category,
		Unlocks:               t.Unlocks,
		Potential:             t.PotentialBlock,
		RequiredSpecies:       t.RequiredSpecies,
		IsRare:                t.IsRare,
		IsDangerous:           t.IsDangerous,
		IsReverseEngineerable: t.ReverseEngineerable(),
	}
}

// ParseBlock reads a technology block of a mod file. vars resolves
// scripted @variables defined in the same file.
func ParseBlock(b script.Block, vars map[string]string) Source {
	f := script.ParseFields(b.Body).WithVariables(vars)

	src := Source{
		ID:                    b.ID,
		Tier:                  f.Int("tier"),
		Cost:                  f.Int("cost"),
		Weight:                f.Float("weight"),
		IsRare:                f.Bool("is_rare", false),
		IsDangerous:           f.Bool("is_dangerous", false),
		IsReverseEngineerable: f.Bool("is_reverse_engineerable", true),
		FromMod:               true,
	}

	src.Area, _ = f.Value("area")
	if src.Area == "" {
		src.Area = areaFromID(b.ID)
	}

	for _, p := range f.List("prerequisites") {
		if strings.HasPrefix(p, "tech_") {
			src.Prerequisites = append(src.Prerequisites, p)
		}
	}
	for _, c := range f.List("category") {
		if !categoryKeywords[c] {
			src.Category = append(src.Category, c)
		}
	}

	if body, ok := f.TopBlock("modifier"); ok {
		src.Modifiers = script.ParseFields(body).WithVariables(vars).Numeric()
	}
	if body, ok := f.SubBlock("potential"); ok {
		src.Potential = body
	}
	if body, ok := f.SubBlock("prereqfor_desc"); ok {
		p := parsePrereqfor(body)
		src.Unlocks = p.Unlocks()
		src.Titles = p.Titles()
	}
	return src
}

func parsePrereqfor(body string) Prereqfor {
	f := script.ParseFields(body)

	var p Prereqfor
	if ship, ok := f.SubBlock("ship"); ok {
		p.Ship, _ = script.ParseFields(ship).Quoted("title")
	}
	if feature, ok := f.SubBlock("feature"); ok {
		p.Feature, _ = script.ParseFields(feature).Quoted("title")
	}
	for _, r := range f.Refs("component") {
		p.Components = append(p.Components, r.Value)
	}
	for _, r := range f.Refs("building") {
		p.Buildings = append(p.Buildings, r.Value)
	}
	for _, r := range f.Refs("technology") {
		p.Technologies = append(p.Technologies, r.Value)
	}
	return p
}

func areaFromID(id string) string {
	for _, a := range Areas {
		if strings.HasPrefix(id, "tech_"+a) {
			return a
		}
	}
	return "unknown"
}

// ParseFile returns the technology blocks of one file. ex carries the
// first-definition-wins state across files.
func ParseFile(text string, ex *script.Extractor) []Source {
	vars := script.Variables(text)
	var out []Source
	for _, b := range ex.All(text) {
		if !strings.HasPrefix(b.ID, "tech_") {
			continue
		}
		out = append(out, ParseBlock(b, vars))
	}
	return out
}

// LoadSources parses every technology file. Files that cannot be read are
// logged and skipped.
func LoadSources(files []string) []Source {
	ex := script.NewExtractor(script.DefaultBlocklist...)
	var out []Source
	skipped := 0
	for _, path := range files {
		text, err := script.ReadFile(path)
		if err != nil {
			skipped++
			log.Warn().Err(err).Str("file", path).Msg("Skipping technology file")
			continue
		}
		techs := ParseFile(text, ex)
		log.Debug().Msgf("[techtree] %s: %d technologies", path, len(techs))
		out = append(out, techs...)
	}
	log.Info().Int("files", len(files)).Int("skipped", skipped).Int("technologies", len(out)).Msg("Technology files parsed")
	return out
}
