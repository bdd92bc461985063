package runlog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
	"github.com/ulikunitz/xz"
)

// Archive keeps the newest keep plain run logs in dir and compresses the
// rest to .json.xz, removing the originals. Returns the archived paths.
func Archive(dir string, keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}
	logs, err := filepath.Glob(filepath.Join(dir, "update_*.json"))
	if err != nil {
		return nil, err
	}
	if len(logs) <= keep {
		return nil, nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(logs)
	old := logs[:len(logs)-keep]

	var archived []string
	for _, path := range old {
		dst, err := compress(path)
		if err != nil {
			return archived, err
		}
		archived = append(archived, dst)
	}

	log.Debug().Int("archived", len(archived)).Str("dir", dir).Msg("[runlog] old logs compressed")
	return archived, nil
}

func compress(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compress %s: %w", path, err)
	}

	dst := path + ".xz"
	if err := artifact.WriteAtomic(dst, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return dst, nil
}
