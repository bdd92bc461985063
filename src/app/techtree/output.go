package techtree

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
)

const (
	FactionsFile    = "factions.json"
	UnlockTypesFile = "unlock_types.json"
	DanglingFile    = "dangling_prerequisites.txt"
)

// AreaFile names the output file of one research area.
func AreaFile(area string) string {
	return "technology_" + area + ".json"
}

// Split groups records by area. Records outside the known areas are left
// out.
func Split(records []Record) map[string][]Record {
	out := make(map[string][]Record, len(Areas))
	for _, a := range Areas {
		out[a] = []Record{}
	}
	for _, r := range records {
		if _, ok := out[r.Area]; ok {
			out[r.Area] = append(out[r.Area], r)
		}
	}
	return out
}

// UnlockTypes lists every unlock type label used by any record, sorted.
func UnlockTypes(records []Record) []string {
	set := map[string]struct{}{}
	for _, r := range records {
		for t := range r.UnlockDetails.UnlocksByType {
			set[t] = struct{}{}
		}
	}
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Output is everything the generation step writes.
type Output struct {
	Records  []Record
	Factions []Faction
	Report   Report
}

// Write stores the area files, factions, unlock types and the prerequisite
// report.
func Write(w *artifact.Writer, out Output) error {
	byArea := Split(out.Records)
	written := 0
	for _, a := range Areas {
		if _, err := w.JSON(AreaFile(a), byArea[a]); err != nil {
			return err
		}
		written += len(byArea[a])
		log.Info().Str("area", a).Int("technologies", len(byArea[a])).Msg("Area written")
	}
	if skipped := len(out.Records) - written; skipped > 0 {
		log.Warn().Int("technologies", skipped).Msg("Technologies without a known area not written")
	}

	if _, err := w.JSON(FactionsFile, out.Factions); err != nil {
		return err
	}
	if _, err := w.JSON(UnlockTypesFile, UnlockTypes(out.Records)); err != nil {
		return err
	}
	if _, err := w.Lines(DanglingFile, out.Report.Lines()); err != nil {
		return err
	}
	return nil
}
