package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-livedeck/settings"
	"go-livedeck/theme"
)

var titleCase = cases.Title(language.English)

// TrackLabel is the display name of a track: "drums1" becomes "Drums1".
func TrackLabel(t settings.Track) string {
	return titleCase.String(string(t))
}

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.RGB(color).Hex()))
	return style.Render("■")
}

// RenderTrackPads renders one toggle per track with its number key:
// "1 ● Bass  2 ○ Melody ...". The cursor track is highlighted.
func RenderTrackPads(s settings.Settings, cursor int, th *theme.Theme) string {
	on := lipgloss.NewStyle().Foreground(th.Success())
	off := lipgloss.NewStyle().Foreground(th.Muted())
	sel := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)

	var parts []string
	for i, t := range settings.Tracks() {
		sym, style := th.Symbols.TrackOff, off
		if s.Track(t) {
			sym, style = th.Symbols.TrackOn, on
		}
		label := TrackLabel(t)
		if i == cursor {
			label = sel.Render(label)
		} else {
			label = style.Render(label)
		}
		parts = append(parts, fmt.Sprintf("%d %s %s", i+1, style.Render(string(sym)), label))
	}
	return strings.Join(parts, "  ")
}

// RenderBar renders a horizontal bar of width cells filled to norm (0-1),
// coloured along the palette.
func RenderBar(norm float64, width int, th *theme.Theme) string {
	if width <= 0 {
		return ""
	}
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	filled := int(norm*float64(width) + 0.5)

	var out strings.Builder
	empty := lipgloss.NewStyle().Foreground(th.Muted())
	for i := 0; i < width; i++ {
		if i < filled {
			c := th.Color(float64(i) / float64(width))
			out.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(th.Symbols.BarFull)))
		} else {
			out.WriteString(empty.Render(string(th.Symbols.BarEmpty)))
		}
	}
	return out.String()
}

// RenderPadGrid renders an 8x8 grid of pads (row 0 at bottom, row 7 at top)
// Optional rightCol adds a 9th column (side buttons)
func RenderPadGrid(grid [8][8][3]uint8, rightCol *[8][3]uint8) string {
	var lines []string
	for row := 7; row >= 0; row-- {
		var line strings.Builder
		for col := 0; col < 8; col++ {
			line.WriteString(RenderPad(grid[row][col]))
			line.WriteString(" ")
		}
		if rightCol != nil {
			line.WriteString(RenderPad(rightCol[row]))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// TrackPadSpans returns the [start, end) columns of each pad drawn by
// RenderTrackPads, for mouse hit testing.
func TrackPadSpans() [][2]int {
	var spans [][2]int
	x := 0
	for i, t := range settings.Tracks() {
		w := lipgloss.Width(fmt.Sprintf("%d ● %s", i+1, TrackLabel(t)))
		spans = append(spans, [2]int{x, x + w})
		x += w + 2
	}
	return spans
}
