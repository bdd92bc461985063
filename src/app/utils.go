package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mattn/go-isatty"
	bar "github.com/schollz/progressbar/v3"
)

func ExpandPath(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// SanitizeModRoot accepts either the mod directory or its descriptor file.
func SanitizeModRoot(path string) string {
	path = filepath.Clean(path)
	if strings.HasSuffix(path, ".mod") {
		return filepath.Dir(path)
	}
	return path
}

// ListFiles returns the files under root whose base name matches pattern,
// sorted by path. Subdirectories are only visited when recursive is set.
// A missing root yields no files and no error.
func ListFiles(root, pattern string, recursive bool) ([]string, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Interactive reports whether stderr is a terminal.
func Interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewProgress builds the progress bar used by long scans. It stays hidden
// when stderr is not a terminal.
func NewProgress(total int, description, unit string) *bar.ProgressBar {
	return bar.NewOptions(
		total,
		bar.OptionSetDescription(description),
		bar.OptionSetWriter(os.Stderr),
		bar.OptionSetVisibility(Interactive()),
		bar.OptionShowCount(),
		bar.OptionShowIts(),
		bar.OptionSetItsString(unit),
		bar.OptionThrottle(100),
		bar.OptionClearOnFinish(),
	)
}
