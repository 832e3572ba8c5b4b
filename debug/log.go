// Package debug writes a timestamped trace of deck activity to a file. Lines
// are tagged with a category ("deck", "transport", "sampler", "midi", ...)
// and can be narrowed to a few categories while chasing one problem.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const stampLayout = "15:04:05.000"

var (
	mu   sync.Mutex
	out  *os.File
	only map[string]bool // nil writes every category
	hits = map[string]int{}
)

// Enable starts writing to path, truncating any previous log. An empty path
// writes to ~/.config/go-livedeck/debug.log. Calling it again while enabled
// keeps the current file.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		return nil
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "go-livedeck", "debug.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	out = f
	hits = map[string]int{}

	header := "=== debug log started ==="
	if only != nil {
		header += " (only " + strings.Join(categoriesLocked(), ",") + ")"
	}
	writeLocked("debug", header)
	return nil
}

// Disable closes the log. Later calls to Log are dropped.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		out.Close()
		out = nil
	}
}

// Enabled reports whether log lines are being written.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil
}

// Only restricts the log to the named categories. No names (or only blank
// ones) lifts the restriction.
func Only(categories ...string) {
	mu.Lock()
	defer mu.Unlock()

	only = nil
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if only == nil {
			only = map[string]bool{}
		}
		only[c] = true
	}
}

// ParseCategories splits a comma separated category list, as given on the
// command line.
func ParseCategories(list string) []string {
	var cats []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return cats
}

// Log writes one line under category.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !wantLocked(category) {
		return
	}
	writeLocked(category, fmt.Sprintf(format, args...))
}

// LogEvery writes every nth call for the same category and format. The
// sampler uses it for its per tick trace.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !wantLocked(category) {
		return
	}
	key := category + "\x00" + format
	hits[key]++
	count := hits[key]
	if n > 1 && count%n != 0 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	writeLocked(category, fmt.Sprintf("%s (every %d, count=%d)", msg, n, count))
}

func wantLocked(category string) bool {
	if out == nil {
		return false
	}
	return only == nil || only[strings.ToLower(category)]
}

func categoriesLocked() []string {
	cats := make([]string, 0, len(only))
	for c := range only {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// must hold mu
func writeLocked(category, msg string) {
	fmt.Fprintf(out, "[%s] %-10s %s\n", time.Now().Format(stampLayout), category, msg)
	out.Sync() // flush so a crash keeps the tail
}
