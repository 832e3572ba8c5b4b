package graph

import (
	plot "github.com/chriskim06/drawille-go"
)

// Terminal draws the window as braille dots for the TUI.
type Terminal struct {
	Width, Height int
	Line          plot.Color
	Guide         plot.Color
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{Width: width, Height: height, Line: plot.Red, Guide: plot.DimGray}
}

// Resize changes the canvas size used by the next Render.
func (t *Terminal) Resize(width, height int) {
	t.Width, t.Height = width, height
}

// Render returns the braille chart, or "" when there are fewer than two
// samples to connect. Flat guide series at 1.0 and 0 pin the vertical range
// to the same [0, 1] domain the exported chart uses.
func (t *Terminal) Render(values []float64) string {
	if len(values) < 2 || t.Width <= 0 || t.Height <= 0 {
		return ""
	}
	ceiling := make([]float64, len(values))
	floor := make([]float64, len(values))
	for i := range ceiling {
		ceiling[i] = maxValue
	}

	c := plot.NewCanvas(t.Width, t.Height)
	c.NumDataPoints = len(values)
	c.ShowAxis = false
	c.LineColors = []plot.Color{t.Guide, t.Guide, t.Line}
	c.Fill([][]float64{ceiling, floor, clampUnit(values)})
	return c.String()
}

func clampUnit(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case v < 0:
			out[i] = 0
		case v > maxValue:
			out[i] = maxValue
		default:
			out[i] = v
		}
	}
	return out
}
