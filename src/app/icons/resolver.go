package icons

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
)

// DefaultMarker identifies the canonical technology icon folders.
const DefaultMarker = "technologies"

// Root is one search location, scanned in priority order.
type Root struct {
	Label string
	Path  string
}

// Record is the chosen file for one icon name.
type Record struct {
	Name string
	Path string
	Root string
}

// Result partitions the needed icon names after a Resolve call.
type Result struct {
	Found          []Record
	NewlyCopied    []string
	AlreadyPresent []string
	Missing        []string
}

// Resolver indexes .dds files by stem across several roots. The first match
// for a name wins unless a later path contains the preferred marker.
type Resolver struct {
	roots  []Root
	marker string
	index  map[string]Record
}

func NewResolver(marker string, roots ...Root) *Resolver {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Resolver{roots: roots, marker: marker}
}

// Index scans every root. Missing roots are skipped.
func (r *Resolver) Index() error {
	r.index = make(map[string]Record)
	for _, root := range r.roots {
		files, err := app.ListFiles(root.Path, "*.dds", true)
		if err != nil {
			return fmt.Errorf("scan %s: %w", root.Label, err)
		}
		if files == nil {
			log.Debug().Str("root", root.Label).Str("path", root.Path).Msg("[icons] root empty or missing")
			continue
		}

		added := 0
		for _, f := range files {
			name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
			if _, ok := r.index[name]; ok && !strings.Contains(filepath.ToSlash(f), r.marker) {
				continue
			}
			r.index[name] = Record{Name: name, Path: f, Root: root.Label}
			added++
		}
		log.Debug().Str("root", root.Label).Int("files", len(files)).Int("indexed", added).Msg("[icons] root scanned")
	}
	return nil
}

func (r *Resolver) Len() int {
	return len(r.index)
}

func (r *Resolver) Lookup(name string) (Record, bool) {
	rec, ok := r.index[name]
	return rec, ok
}

// Resolve copies every indexed icon of needed into target as <name>.dds.
// Existing destinations are left alone, so repeated calls copy nothing new.
func (r *Resolver) Resolve(needed []string, target string) (Result, error) {
	if r.index == nil {
		if err := r.Index(); err != nil {
			return Result{}, err
		}
	}

	names := unique(needed)
	var res Result
	for _, name := range names {
		rec, ok := r.index[name]
		if !ok {
			res.Missing = append(res.Missing, name)
			continue
		}
		res.Found = append(res.Found, rec)
	}

	if len(res.Found) > 0 {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", target, err)
		}
	}

	progress := app.NewProgress(len(res.Found), "Copying icons", "icons")
	failed := 0
	for _, rec := range res.Found {
		dst := filepath.Join(target, rec.Name+".dds")
		if _, err := os.Stat(dst); err == nil {
			res.AlreadyPresent = append(res.AlreadyPresent, rec.Name)
		} else if err := copyFile(rec.Path, dst); err != nil {
			failed++
			log.Warn().Err(err).Str("icon", rec.Name).Msg("Failed to copy icon")
		} else {
			res.NewlyCopied = append(res.NewlyCopied, rec.Name)
		}
		_ = progress.Add(1)
	}
	_ = progress.Finish()

	log.Info().
		Int("needed", len(names)).
		Int("found", len(res.Found)).
		Int("copied", len(res.NewlyCopied)).
		Int("present", len(res.AlreadyPresent)).
		Int("missing", len(res.Missing)).
		Int("failed", failed).
		Msg("Icon resolution finished")
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
