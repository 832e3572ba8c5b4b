package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Track pads
	TrackOn  rune // ● audible
	TrackOff rune // ○ muted

	// Transport
	Playing rune // ▶
	Stopped rune // ■

	// Volume and level bars
	BarFull  rune // █
	BarEmpty rune // ░

	// Key help legend
	Solid rune // ■ bound
	Empty rune // □ unbound
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			TrackOn:  '●',
			TrackOff: '○',

			Playing: '▶',
			Stopped: '■',

			BarFull:  '█',
			BarEmpty: '░',

			Solid: '■',
			Empty: '□',
		},
	}
}

// Color roles mapped to palette indices. Palettes with fewer entries clamp
// to their last colour.
const (
	RoleBG      = 0  // deep purple
	RoleSurface = 1  // dark purple
	RoleMuted   = 2  // purple-magenta
	RoleDim     = 3  // violet
	RoleFG      = 4  // lavender (readable)
	RoleTitle   = 5  // neon magenta
	RoleCursor  = 6  // hot pink
	RoleLine    = 7  // neon red
	RoleWarning = 8  // orange
	RoleAxis    = 9  // aqua
	RoleSuccess = 10 // pale yellow
)

// Style helpers

func (t *Theme) role(i int) lipgloss.Color {
	return lipgloss.Color(t.Palette.Index(i).Hex())
}

// Hex returns the #rrggbb colour of a role, for non-terminal renderers.
func (t *Theme) Hex(role int) string {
	return t.Palette.Index(role).Hex()
}

func (t *Theme) BG() lipgloss.Color      { return t.role(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.role(RoleSurface) }
func (t *Theme) Muted() lipgloss.Color   { return t.role(RoleMuted) }
func (t *Theme) FG() lipgloss.Color      { return t.role(RoleFG) }
func (t *Theme) Title() lipgloss.Color   { return t.role(RoleTitle) }
func (t *Theme) Cursor() lipgloss.Color  { return t.role(RoleCursor) }
func (t *Theme) Line() lipgloss.Color    { return t.role(RoleLine) }
func (t *Theme) Warning() lipgloss.Color { return t.role(RoleWarning) }
func (t *Theme) Axis() lipgloss.Color    { return t.role(RoleAxis) }
func (t *Theme) Success() lipgloss.Color { return t.role(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// RGB returns raw RGB for any normalized value (for Launchpad)
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}
