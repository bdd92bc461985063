package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/icons"
	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
)

const (
	DefaultTechPattern = "*sth*.txt"
	DefaultKeepLogs    = 10
)

var ErrInvalidRoot = errors.New("invalid mod root")

// Config holds every path and option of a run. Empty directories are
// derived from OutputRoot by WithDefaults.
type Config struct {
	ModRoot     string
	VanillaRoot string
	OutputRoot  string

	AssetsDir string
	CacheDir  string
	IconsDir  string
	WebpDir   string
	LogsDir   string

	BalanceDir   string
	TriggersPath string

	TechPattern string
	LocPattern  string
	IconMarker  string
	Categories  []unlocks.Category

	Precompress bool
	KeepLogs    int
}

// WithDefaults returns a copy with every unset option filled in.
func (c Config) WithDefaults() Config {
	c.ModRoot = app.SanitizeModRoot(app.ExpandPath(c.ModRoot))
	if c.VanillaRoot != "" {
		c.VanillaRoot = filepath.Clean(app.ExpandPath(c.VanillaRoot))
	}
	if c.OutputRoot == "" {
		c.OutputRoot = "output"
	}
	c.OutputRoot = filepath.Clean(app.ExpandPath(c.OutputRoot))

	def := func(v *string, rel ...string) {
		if *v == "" {
			*v = filepath.Join(append([]string{c.OutputRoot}, rel...)...)
		} else {
			*v = filepath.Clean(app.ExpandPath(*v))
		}
	}
	def(&c.AssetsDir, "assets")
	def(&c.CacheDir, "data")
	def(&c.IconsDir, "icons")
	def(&c.LogsDir, "logs")
	if c.WebpDir == "" {
		c.WebpDir = filepath.Join(c.IconsDir, "icons_webp")
	} else {
		c.WebpDir = filepath.Clean(app.ExpandPath(c.WebpDir))
	}
	if c.BalanceDir != "" {
		c.BalanceDir = filepath.Clean(app.ExpandPath(c.BalanceDir))
	}
	if c.TriggersPath != "" {
		c.TriggersPath = app.ExpandPath(c.TriggersPath)
	}

	if c.TechPattern == "" {
		c.TechPattern = DefaultTechPattern
	}
	if c.LocPattern == "" {
		c.LocPattern = localisation.DefaultPattern
	}
	if c.IconMarker == "" {
		c.IconMarker = icons.DefaultMarker
	}
	if len(c.Categories) == 0 {
		c.Categories = unlocks.DefaultCategories
	}
	if c.KeepLogs <= 0 {
		c.KeepLogs = DefaultKeepLogs
	}
	return c
}

func (c Config) TechDir() string {
	return filepath.Join(c.ModRoot, "common", "technology")
}

func (c Config) ComponentsDir() string {
	return filepath.Join(c.ModRoot, "common", "component_templates")
}

func (c Config) LocalisationDir() string {
	return filepath.Join(c.ModRoot, "localisation", "english")
}

// IconRoots lists the icon search locations, highest priority first.
// Vanilla roots are only included when a vanilla install is configured.
func (c Config) IconRoots() []icons.Root {
	roots := []icons.Root{
		{Label: "mod technologies", Path: filepath.Join(c.ModRoot, "gfx", "interface", "icons", "technologies")},
		{Label: "mod gfx", Path: filepath.Join(c.ModRoot, "gfx")},
	}
	if c.VanillaRoot != "" {
		roots = append(roots,
			icons.Root{Label: "vanilla technologies", Path: filepath.Join(c.VanillaRoot, "gfx", "interface", "icons", "technologies")},
			icons.Root{Label: "vanilla gfx", Path: filepath.Join(c.VanillaRoot, "gfx")},
		)
	}
	return roots
}

// Validate checks the directories a run cannot do without.
func (c Config) Validate() error {
	if c.ModRoot == "" || c.ModRoot == "." {
		return fmt.Errorf("%w: not set", ErrInvalidRoot)
	}
	for _, dir := range []string{c.ModRoot, c.TechDir(), c.LocalisationDir()} {
		if err := readableDir(dir); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRoot, err)
		}
	}
	return nil
}

func readableDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	return f.Close()
}
