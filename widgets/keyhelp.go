package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []key.Binding
}

// RenderKeyHelp formats key bindings in a friendly way. Disabled bindings
// are left out.
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		var keys []string
		for _, k := range sec.Keys {
			if !k.Enabled() {
				continue
			}
			h := k.Help()
			keys = append(keys, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
		}
		if len(keys) == 0 {
			continue
		}
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		lines = append(lines, keys...)
	}
	return strings.Join(lines, "\n")
}
