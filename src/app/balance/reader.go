package balance

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	TechnologiesFile = "technologies.json"
	MetadataFile     = "metadata.json"
)

var ErrNoExport = errors.New("balance center export not found")

// Technology is one entry of the balance center technology export.
type Technology struct {
	Name                  string   `json:"name"`
	Area                  string   `json:"area"`
	Tier                  int      `json:"tier"`
	Cost                  int      `json:"cost"`
	Weight                float64  `json:"weight"`
	Prerequisites         []string `json:"prerequisites"`
	Unlocks               []string `json:"unlocks"`
	Category              []string `json:"category"`
	RequiredSpecies       []string `json:"required_species"`
	PotentialBlock        string   `json:"potential_block"`
	IsRare                bool     `json:"is_rare"`
	IsDangerous           bool     `json:"is_dangerous"`
	IsReverseEngineerable *bool    `json:"is_reverse_engineerable"`
}

// ReverseEngineerable defaults to true when the export omits the flag.
func (t Technology) ReverseEngineerable() bool {
	return t.IsReverseEngineerable == nil || *t.IsReverseEngineerable
}

// Metadata carries faction lists and the lookup tables used to map
// potential-block conditions to factions.
type Metadata struct {
	Factions     []string
	CountryFlags map[string]string
	Civics       map[string]string
}

// Export is a loaded balance center export directory.
type Export struct {
	Technologies []Technology
	Metadata     Metadata
}

// StreamTechnologies decodes the top-level array at path one element at a
// time and hands each to fn. Decoding stops at the first error.
func StreamTechnologies(path string, fn func(Technology) error) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("%s: expected top-level JSON array", path)
	}

	for dec.More() {
		var tech Technology
		if err := dec.Decode(&tech); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if err := fn(tech); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// LoadMetadata reads factions and faction mappings. Missing sections are
// empty, not errors.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	if !gjson.ValidBytes(data) {
		return Metadata{}, fmt.Errorf("%s: invalid JSON", path)
	}

	md := Metadata{
		CountryFlags: stringMap(gjson.GetBytes(data, "faction_mappings.country_flag_to_faction")),
		Civics:       stringMap(gjson.GetBytes(data, "faction_mappings.civic_to_faction")),
	}
	gjson.GetBytes(data, "factions").ForEach(func(_, v gjson.Result) bool {
		if name := factionName(v); name != "" {
			md.Factions = append(md.Factions, name)
		}
		return true
	})
	sort.Strings(md.Factions)
	return md, nil
}

// Load reads an export directory. ErrNoExport is returned when the
// technology list is absent; a missing metadata file only logs a warning.
func Load(dir string) (*Export, error) {
	techPath := filepath.Join(dir, TechnologiesFile)
	if _, err := os.Stat(techPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoExport, techPath)
	}

	exp := &Export{}
	err := StreamTechnologies(techPath, func(t Technology) error {
		if t.Name == "" {
			log.Debug().Msg("[balance] skipping technology without name")
			return nil
		}
		exp.Technologies = append(exp.Technologies, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	md, err := LoadMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Balance center metadata unavailable")
	}
	exp.Metadata = md

	log.Info().
		Int("technologies", len(exp.Technologies)).
		Int("factions", len(md.Factions)).
		Msg("Balance center export loaded")
	return exp, nil
}

func stringMap(r gjson.Result) map[string]string {
	out := map[string]string{}
	r.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}

// factionName accepts either a plain string or an object with a name.
func factionName(v gjson.Result) string {
	if v.IsObject() {
		return v.Get("name").String()
	}
	return v.String()
}
