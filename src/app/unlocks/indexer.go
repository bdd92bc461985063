package unlocks

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
	"github.com/simivar/stnh-techtree-exporter/src/app/triggers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one content item unlocked by a technology.
type Entry struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Index maps a technology id to everything that references it.
type Index map[string][]Entry

type Stats struct {
	Categories int
	Files      int
	Skipped    int
	Entries    int
}

// Indexer inverts prerequisite declarations of content items into a
// technology -> unlocks map.
type Indexer struct {
	modRoot    string
	categories []Category
	window     int
	stats      Stats
}

func NewIndexer(modRoot string, categories []Category) *Indexer {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Indexer{
		modRoot:    modRoot,
		categories: categories,
		window:     triggers.DefaultNegationWindow,
	}
}

func (ix *Indexer) Stats() Stats {
	return ix.stats
}

// Build scans every mapped directory. Unreadable files are logged and
// skipped; a directory that does not exist contributes nothing.
func (ix *Indexer) Build() Index {
	idx := Index{}
	ix.stats = Stats{}

	type job struct {
		path  string
		label string
		cat   int
	}
	var jobs []job
	for i, c := range ix.categories {
		dir := filepath.Join(ix.modRoot, "common", c.Dir)
		files, err := app.ListFiles(dir, "*.txt", true)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Skipping unlock category")
			continue
		}
		if len(files) == 0 {
			log.Debug().Msgf("[unlocks] %s: directory empty or missing", c.Dir)
			continue
		}
		ix.stats.Categories++
		for _, f := range files {
			jobs = append(jobs, job{path: f, label: c.Label, cat: i})
		}
	}

	progress := app.NewProgress(len(jobs), "Scanning reverse unlocks", "files")
	extractors := make(map[int]*script.Extractor)
	for _, j := range jobs {
		ex, ok := extractors[j.cat]
		if !ok {
			ex = script.NewExtractor(metaBlocks...)
			extractors[j.cat] = ex
		}
		if err := ix.scanFile(j.path, j.label, ex, idx); err != nil {
			ix.stats.Skipped++
			log.Warn().Err(err).Str("file", j.path).Msg("Skipping unreadable content file")
		} else {
			ix.stats.Files++
		}
		_ = progress.Add(1)
	}
	_ = progress.Finish()

	log.Info().
		Int("categories", ix.stats.Categories).
		Int("files", ix.stats.Files).
		Int("skipped", ix.stats.Skipped).
		Int("entries", ix.stats.Entries).
		Int("technologies", len(idx)).
		Msg("Reverse unlock scan finished")
	return idx
}

func (ix *Indexer) scanFile(path, label string, ex *script.Extractor, idx Index) error {
	text, err := script.ReadFile(path)
	if err != nil {
		return err
	}
	ix.stats.Entries += Scan(text, label, ex, ix.window, idx)
	return nil
}

// Scan indexes the blocks of one file under label and returns the number of
// entries added.
func Scan(text, label string, ex *script.Extractor, window int, idx Index) int {
	added := 0
	for _, b := range ex.All(text) {
		f := script.ParseFields(b.Body)
		techs := TechRefs(f, window)
		if len(techs) == 0 {
			continue
		}
		name := DisplayName(b.ID, f)
		for _, tech := range techs {
			idx[tech] = append(idx[tech], Entry{Type: label, ID: b.ID, Name: name})
			added++
		}
	}
	return added
}

// TechRefs returns the technologies a block depends on: entries of its
// prerequisites list, required_technology fields and has_technology
// conditions not preceded by a NOT within window bytes. Ids are unique and
// in first-seen order.
func TechRefs(f *script.Fields, window int) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(id string) {
		if !strings.HasPrefix(id, "tech_") {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, id := range f.List("prerequisites") {
		add(id)
	}
	for _, r := range f.Refs("required_technology") {
		add(r.Value)
	}
	for _, r := range f.Refs("has_technology") {
		if triggers.IsNegated(f.Text(), r.Offset, window) {
			continue
		}
		add(r.Value)
	}
	return out
}

// DisplayName prefers a quoted name field, otherwise it drops the leading
// word of the identifier and title-cases the rest.
func DisplayName(id string, f *script.Fields) string {
	if f != nil {
		if name, ok := f.Quoted("name"); ok && name != "" {
			return name
		}
	}

	title := cases.Title(language.English)
	parts := strings.Split(id, "_")
	if len(parts) == 1 {
		return title.String(id)
	}

	words := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if p != "" {
			words = append(words, title.String(p))
		}
	}
	return strings.Join(words, " ")
}
