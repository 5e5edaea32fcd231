// Package output writes compiled modules to disk as .js and .js.map files,
// plus an optional brotli-precompressed .js.br for static serving.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/cryguy/tscompiler/internal/core"
)

// ErrCompileFailed is returned by Write for an unsuccessful module.
var ErrCompileFailed = errors.New("module did not compile")

// Writer places artifacts under Dir, mirroring each source's path relative
// to the compile root.
type Writer struct {
	Dir    string
	Brotli bool
	// Quality is the brotli level, 0 to 11. Zero selects brotli.BestCompression.
	Quality int
}

// Artifacts lists the files written for one module.
type Artifacts struct {
	Script    string
	SourceMap string
	Brotli    string
}

// JSPath maps a TypeScript source path to its .js counterpart.
func JSPath(rel string) string {
	ext := filepath.Ext(rel)
	switch ext {
	case ".ts", ".tsx", ".mts", ".cts":
		return strings.TrimSuffix(rel, ext) + ".js"
	}
	return rel + ".js"
}

// Write stores m under w.Dir at the .js path for rel. The .js.map is written
// only when the module carries a source map.
func (w *Writer) Write(rel string, m *core.CompiledModule) (*Artifacts, error) {
	if !m.Success {
		return nil, fmt.Errorf("%s: %w", rel, ErrCompileFailed)
	}

	script := filepath.Join(w.Dir, JSPath(rel))
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(script, []byte(m.SourceCode), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", script, err)
	}
	a := &Artifacts{Script: script}

	if m.SourceMap != "" {
		a.SourceMap = script + ".map"
		if err := os.WriteFile(a.SourceMap, []byte(m.SourceMap), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", a.SourceMap, err)
		}
	}

	if w.Brotli {
		a.Brotli = script + ".br"
		data, err := Compress([]byte(m.SourceCode), w.quality())
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(a.Brotli, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", a.Brotli, err)
		}
	}
	return a, nil
}

func (w *Writer) quality() int {
	if w.Quality <= 0 || w.Quality > brotli.BestCompression {
		return brotli.BestCompression
	}
	return w.Quality
}

// Compress brotli-encodes data at the given quality.
func Compress(data []byte, quality int) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, quality)
	if _, err := bw.Write(data); err != nil {
		return nil, fmt.Errorf("brotli compress: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("brotli compress: %w", err)
	}
	return buf.Bytes(), nil
}
