package icons

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
)

// Mapping maps a technology id to the icon name it displays.
type Mapping map[string]string

// MappingFromFiles reads the icon of every technology block in files. A tech
// without an icon field uses its own id. Unreadable files are skipped.
func MappingFromFiles(files []string) Mapping {
	m := Mapping{}
	ex := script.NewExtractor(script.DefaultBlocklist...)
	for _, path := range files {
		text, err := script.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping technology file")
			continue
		}
		m.Parse(text, ex)
	}
	log.Debug().Int("techs", len(m)).Int("files", len(files)).Msg("[icons] mapping built")
	return m
}

// Parse adds the technology blocks of text to m.
func (m Mapping) Parse(text string, ex *script.Extractor) {
	vars := script.Variables(text)
	for _, b := range ex.All(text) {
		if !strings.HasPrefix(b.ID, "tech_") {
			continue
		}
		icon, ok := script.ParseFields(b.Body).WithVariables(vars).Value("icon")
		if !ok || icon == "" {
			icon = b.ID
		}
		m[b.ID] = icon
	}
}

// Icon returns the icon of tech, defaulting to the tech id.
func (m Mapping) Icon(tech string) string {
	if icon, ok := m[tech]; ok {
		return icon
	}
	return tech
}

// Needed lists the distinct icon names, sorted.
func (m Mapping) Needed() []string {
	names := make([]string, 0, len(m))
	for _, icon := range m {
		names = append(names, icon)
	}
	return unique(names)
}

// Lines renders `id -> icon` for every tech whose icon is in names, sorted
// by tech id.
func (m Mapping) Lines(names []string) []string {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	ids := make([]string, 0, len(m))
	for id, icon := range m {
		if _, ok := want[icon]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("%s -> %s", id, m[id])
	}
	return lines
}
