package techtree

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/balance"
	"github.com/simivar/stnh-techtree-exporter/src/app/components"
	"github.com/simivar/stnh-techtree-exporter/src/app/icons"
	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/triggers"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
)

var errNoID = errors.New("technology without id")

// Inputs are the lookups a Builder enriches records from. Nil lookups are
// treated as empty.
type Inputs struct {
	Localisation *localisation.Table
	Components   *components.Catalog
	Unlocks      unlocks.Index
	Icons        icons.Mapping
	Species      *triggers.Resolver
	Metadata     balance.Metadata
}

// Stats counts where the built records came from.
type Stats struct {
	FromBalance int
	FromMod     int
	Dropped     int
	AreasFixed  int
}

// Builder turns technology sources into viewer records.
type Builder struct {
	in       Inputs
	factions *triggers.Resolver
	stats    Stats
}

func NewBuilder(in Inputs) (*Builder, error) {
	if in.Components == nil {
		in.Components = components.NewCatalog()
	}
	factions, err := triggers.NewResolver(AvailabilityRules(in.Metadata))
	if err != nil {
		return nil, fmt.Errorf("faction rules: %w", err)
	}
	return &Builder{in: in, factions: factions}, nil
}

func (b *Builder) Stats() Stats {
	return b.stats
}

// Build merges both source lists and enriches every technology. Balance
// center entries come first; a mod entry is only used when its id is not
// already present. Records that fail enrichment are logged and dropped.
func (b *Builder) Build(exported []balance.Technology, parsed []Source) []Record {
	b.stats = Stats{}

	sources := make([]Source, 0, len(exported)+len(parsed))
	seen := make(map[string]struct{}, len(exported)+len(parsed))
	for _, t := range exported {
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		sources = append(sources, FromBalance(t))
		b.stats.FromBalance++
	}
	for _, s := range parsed {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		sources = append(sources, s)
		b.stats.FromMod++
	}

	progress := app.NewProgress(len(sources), "Building technologies", "techs")
	records := make([]Record, 0, len(sources))
	for _, s := range sources {
		r, err := b.Record(s)
		_ = progress.Add(1)
		if err != nil {
			b.stats.Dropped++
			log.Warn().Err(err).Str("tech", s.ID).Msg("Dropping technology")
			continue
		}
		if r.Area != s.Area {
			b.stats.AreasFixed++
		}
		records = append(records, r)
	}
	_ = progress.Finish()

	log.Info().
		Int("balance", b.stats.FromBalance).
		Int("mod", b.stats.FromMod).
		Int("dropped", b.stats.Dropped).
		Int("areas_fixed", b.stats.AreasFixed).
		Msg("Technologies built")
	return records
}

// Record enriches a single source.
func (b *Builder) Record(s Source) (Record, error) {
	if s.ID == "" {
		return Record{}, errNoID
	}
	loc := b.in.Localisation

	r := Record{
		ID:                    s.ID,
		Name:                  loc.Get(s.ID, s.ID),
		Area:                  NormalizeArea(s.Area),
		Tier:                  s.Tier,
		Cost:                  s.Cost,
		Prerequisites:         nonNil(s.Prerequisites),
		Weight:                s.Weight,
		Icon:                  b.in.Icons.Icon(s.ID),
		Description:           loc.Get(s.ID+"_desc", ""),
		AlternateNames:        AlternateNames(s.ID, loc),
		Effects:               Effects(s.ID, b.in.Components, s.Modifiers),
		UnlockDetails:         Details(s.Titles, s.Unlocks, b.in.Unlocks[s.ID], loc),
		FactionAvailability:   AvailabilityFor(s.Potential, b.factions),
		IsRare:                s.IsRare,
		IsDangerous:           s.IsDangerous,
		IsReverseEngineerable: s.IsReverseEngineerable,
		Category:              nonNil(s.Category),
		RequiredSpecies:       nonNil(s.RequiredSpecies),
	}

	if b.in.Species != nil {
		if required, _ := b.in.Species.Resolve(s.Potential); len(required) > 0 {
			r.RequiredSpecies = required
		}
	}
	return r, nil
}
