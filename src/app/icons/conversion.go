package icons

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"golang.org/x/image/webp"
)

// Conversion is the state of the external DDS to WebP conversion.
type Conversion struct {
	Converted map[string]bool
	Invalid   []string
	Pending   []string
}

// ScanConversion reads the WebP output directory and the DDS staging
// directory. Every WebP header is decoded; files that fail are reported as
// invalid and not counted as converted.
func ScanConversion(webpDir, ddsDir string) (Conversion, error) {
	c := Conversion{Converted: map[string]bool{}}

	files, err := app.ListFiles(webpDir, "*.webp", false)
	if err != nil {
		return c, err
	}
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), ".webp")
		if err := verifyWebP(f); err != nil {
			log.Warn().Err(err).Str("icon", name).Msg("Invalid WebP icon")
			c.Invalid = append(c.Invalid, name)
			continue
		}
		c.Converted[name] = true
	}

	pending, err := app.ListFiles(ddsDir, "*.dds", false)
	if err != nil {
		return c, err
	}
	for _, f := range pending {
		c.Pending = append(c.Pending, strings.TrimSuffix(filepath.Base(f), ".dds"))
	}

	log.Debug().
		Int("converted", len(c.Converted)).
		Int("invalid", len(c.Invalid)).
		Int("pending", len(c.Pending)).
		Msg("[icons] conversion state")
	return c, nil
}

// Unconverted returns the names of needed that have no valid WebP.
func (c Conversion) Unconverted(needed []string) []string {
	var out []string
	for _, n := range unique(needed) {
		if !c.Converted[n] {
			out = append(out, n)
		}
	}
	return out
}

// ManualStep describes the conversion work left for the maintainer, or
// returns "" when nothing is pending.
func (c Conversion) ManualStep() string {
	if len(c.Pending) == 0 {
		return ""
	}
	return fmt.Sprintf("Convert %d DDS icon(s) to WebP with the external converter, then remove the DDS files", len(c.Pending))
}

func verifyWebP(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		return err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%s: empty image", path)
	}
	return nil
}
