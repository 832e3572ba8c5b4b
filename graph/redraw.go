package graph

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go-livedeck/debug"
)

// Redrawer rewrites a chart file every time the sample window changes.
// Update matches the sampler observer signature.
type Redrawer struct {
	path   string
	format Format
	style  Style

	mu     sync.Mutex
	err    error
	frames int
}

// NewRedrawer writes to path, choosing SVG or PNG from its extension.
func NewRedrawer(path string, st Style) *Redrawer {
	return &Redrawer{path: path, format: FormatFor(path), style: st}
}

// Update redraws the whole chart from values. Readers of the file never see
// a partial frame.
func (r *Redrawer) Update(values []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.write(values); err != nil {
		if r.err == nil {
			debug.Log("chart", "redraw %s failed: %v", r.path, err)
		}
		r.err = err
		return
	}
	r.err = nil
	r.frames++
}

func (r *Redrawer) write(values []float64) error {
	var buf bytes.Buffer
	if err := Render(values, r.format, r.style, &buf); err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".chart-*")
	if err != nil {
		return fmt.Errorf("create temp chart: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

// Err returns the error of the most recent redraw, if it failed.
func (r *Redrawer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Frames counts successful redraws.
func (r *Redrawer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
