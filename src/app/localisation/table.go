package localisation

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
)

const DefaultPattern = "*_l_english.yml"

var (
	linePattern   = regexp.MustCompile(`^\s*([\w._-]+):\d?\s*"(.*)"\s*$`)
	colourPattern = regexp.MustCompile(`§[HYRGBhyrgb]([^§]+)§!`)
)

// Table maps localisation keys to display strings.
type Table struct {
	entries map[string]string
	files   int
}

func NewTable() *Table {
	return &Table{entries: make(map[string]string)}
}

// Load parses every file under dir matching pattern. Files are read in path
// order and later keys override earlier ones. Unreadable files are logged
// and skipped.
func Load(dir, pattern string) (*Table, error) {
	files, err := app.ListFiles(dir, pattern, true)
	if err != nil {
		return nil, err
	}

	t := NewTable()
	skipped := 0
	for _, path := range files {
		text, err := script.ReadFile(path)
		if err != nil {
			skipped++
			log.Warn().Err(err).Str("file", path).Msg("Skipping localisation file")
			continue
		}
		t.Parse(text)
		t.files++
	}

	log.Info().
		Int("files", t.files).
		Int("skipped", skipped).
		Int("entries", len(t.entries)).
		Msg("Localisation loaded")
	return t, nil
}

// Parse adds the entries of one decoded file.
func (t *Table) Parse(text string) int {
	added := 0
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t.entries[m[1]] = m[2]
		added++
	}
	return added
}

// Get returns the value of key, or fallback when the key is unknown or empty.
func (t *Table) Get(key, fallback string) string {
	if t == nil {
		return fallback
	}
	if v, ok := t.entries[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) Files() int {
	return t.files
}

// Map returns a copy of the entries.
func (t *Table) Map() map[string]string {
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Clean strips §X...§! colour markup.
func Clean(text string) string {
	return colourPattern.ReplaceAllString(text, "$1")
}

func (t *Table) String() string {
	return fmt.Sprintf("localisation(%d entries)", t.Len())
}
