package components

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/script"
)

// Component is a ship component template.
type Component struct {
	Key           string
	Type          string
	Size          string
	Power         float64
	Prerequisites []string
	Modifiers     []script.Pair
	Cost          map[string]float64
	Upkeep        map[string]float64
	DamageMin     float64
	DamageMax     float64
	Windup        float64
	Cooldown      float64
}

// Catalog indexes component templates by key and by unlocking technology.
type Catalog struct {
	byKey  map[string]*Component
	byTech map[string][]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		byKey:  make(map[string]*Component),
		byTech: make(map[string][]string),
	}
}

// Load parses every *.txt template file in dir. A missing directory gives
// an empty catalog.
func Load(dir string) (*Catalog, error) {
	files, err := app.ListFiles(dir, "*.txt", false)
	if err != nil {
		return nil, err
	}

	c := NewCatalog()
	if len(files) == 0 {
		log.Warn().Str("dir", dir).Msg("No component templates found")
		return c, nil
	}

	for _, path := range files {
		text, err := script.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping component file")
			continue
		}
		n := c.Parse(text)
		log.Debug().Msgf("[components] %s: %d templates", path, n)
	}

	log.Info().
		Int("components", len(c.byKey)).
		Int("technologies", len(c.byTech)).
		Msg("Component templates parsed")
	return c, nil
}

// Parse adds the templates of one file and returns how many were read.
func (c *Catalog) Parse(text string) int {
	count := 0
	for _, b := range script.NewExtractor().AllowDuplicates().All(text) {
		if !strings.HasSuffix(b.ID, "_component_template") {
			continue
		}
		comp, ok := parseTemplate(b)
		if !ok {
			continue
		}
		c.add(comp)
		count++
	}
	return count
}

func (c *Catalog) add(comp *Component) {
	if _, exists := c.byKey[comp.Key]; !exists {
		for _, tech := range comp.Prerequisites {
			c.byTech[tech] = append(c.byTech[tech], comp.Key)
		}
	}
	c.byKey[comp.Key] = comp
}

// ForTech returns the components unlocked by a technology, in parse order.
func (c *Catalog) ForTech(techID string) []*Component {
	keys := c.byTech[techID]
	out := make([]*Component, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.byKey[k])
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.byKey)
}

func (c *Catalog) TechCount() int {
	return len(c.byTech)
}

func parseTemplate(b script.Block) (*Component, bool) {
	f := script.ParseFields(b.Body)
	key, ok := f.Value("key")
	if !ok || key == "" {
		return nil, false
	}

	comp := &Component{
		Key:      key,
		Type:     b.ID,
		Power:    f.Float("power"),
		Cost:     map[string]float64{},
		Upkeep:   map[string]float64{},
		Windup:   f.Float("windup"),
		Cooldown: f.Float("cooldown"),
	}
	comp.Size, _ = f.Value("size")

	for _, p := range f.List("prerequisites") {
		if strings.HasPrefix(p, "tech_") {
			comp.Prerequisites = append(comp.Prerequisites, p)
		}
	}

	if body, ok := f.SubBlock("modifier"); ok {
		comp.Modifiers = script.ParseFields(body).Numeric()
	}

	if body, ok := f.SubBlock("resources"); ok {
		res := script.ParseFields(body)
		readAmounts(res, "cost", comp.Cost)
		readAmounts(res, "upkeep", comp.Upkeep)
	}

	if body, ok := f.SubBlock("damage"); ok {
		dmg := script.ParseFields(body)
		comp.DamageMin = dmg.Float("min")
		comp.DamageMax = dmg.Float("max")
	}

	return comp, true
}

func readAmounts(f *script.Fields, name string, into map[string]float64) {
	body, ok := f.SubBlock(name)
	if !ok {
		return
	}
	for _, p := range script.ParseFields(body).Numeric() {
		into[p.Key] = p.Value
	}
}
