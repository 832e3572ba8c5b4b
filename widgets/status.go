package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-livedeck/deck"
	"go-livedeck/settings"
	"go-livedeck/theme"
)

// RenderStatus is the header line: play state, tempo, volume and engine clock.
func RenderStatus(playing bool, s settings.Settings, clock float64, th *theme.Theme) string {
	state := lipgloss.NewStyle().Foreground(th.Line()).Render(string(th.Symbols.Stopped) + " STOP")
	if playing {
		state = lipgloss.NewStyle().Foreground(th.Axis()).Render(string(th.Symbols.Playing) + " PLAY")
	}
	dim := lipgloss.NewStyle().Foreground(th.FG())
	return fmt.Sprintf("%s  %s", state, dim.Render(fmt.Sprintf(
		"cpm %s  vol %.2f  t %6.1fs", settings.FormatNumber(s.CPM), s.Volume, clock)))
}

// RenderNotice renders the visible notice, or "" when none is.
func RenderNotice(n deck.Notice, visible bool, th *theme.Theme) string {
	if !visible || n.Message == "" {
		return ""
	}
	c := th.Success()
	switch n.Type {
	case deck.Warning:
		c = th.Warning()
	case deck.Error:
		c = th.Line()
	}
	return lipgloss.NewStyle().Foreground(th.BG()).Background(c).Padding(0, 1).Render(n.Message)
}
