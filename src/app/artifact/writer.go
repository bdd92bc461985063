package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog/log"
)

// Writer stores generated artifacts under one directory. Every file is
// written atomically; with Precompress a brotli .br sibling is written too.
type Writer struct {
	dir         string
	precompress bool
	written     []string
}

func NewWriter(dir string, precompress bool) *Writer {
	return &Writer{dir: dir, precompress: precompress}
}

// Written lists the paths produced so far, in write order.
func (w *Writer) Written() []string {
	return w.written
}

// JSON writes v with two-space indentation and unescaped HTML characters.
func (w *Writer) JSON(name string, v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return w.write(name, buf.Bytes(), w.precompress)
}

// Lines writes one entry per line.
func (w *Writer) Lines(name string, lines []string) (string, error) {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return w.write(name, []byte(sb.String()), false)
}

func (w *Writer) write(name string, data []byte, compress bool) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := WriteAtomic(path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	w.written = append(w.written, path)

	if compress {
		var buf bytes.Buffer
		bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		if _, err := bw.Write(data); err != nil {
			return "", fmt.Errorf("compress %s: %w", path, err)
		}
		if err := bw.Close(); err != nil {
			return "", fmt.Errorf("compress %s: %w", path, err)
		}
		if err := WriteAtomic(path+".br", buf.Bytes()); err != nil {
			return "", fmt.Errorf("write %s.br: %w", path, err)
		}
		w.written = append(w.written, path+".br")
	}

	log.Debug().Str("file", path).Int("bytes", len(data)).Msg("[artifact] written")
	return path, nil
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Chmod(tmpPath, 0o644)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
