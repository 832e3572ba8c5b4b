// Package graph draws the rolling gain window as a line chart.
package graph

import "fmt"

// Surface and layout constants, in surface units.
const (
	Width  = 600
	Height = 260

	margin    = 20
	maxValue  = 1.0
	tickCount = 5
	tickSize  = 3
	// pieces per segment when flattening the smoothed curve
	curveSteps = 8
)

// Title is drawn centred above the panel.
const Title = "Midnight in Motion – Live Gain Visualizer"

// Rect is a rounded rectangle.
type Rect struct {
	X, Y, W, H float64
	Radius     float64
}

// Tick is one labelled y-axis mark.
type Tick struct {
	Value float64
	Y     float64
	Label string
}

// Frame is everything needed to draw one chart, in surface coordinates.
type Frame struct {
	Width, Height int

	Title  string
	TitleX float64 // centre of the title text
	TitleY float64 // baseline

	Panel Rect

	AxisX      float64
	AxisTop    float64
	AxisBottom float64
	TickSize   float64
	Ticks      []Tick

	// Points are the sample positions, Line is the smoothed polyline through
	// them. Line has fewer than two points when there is nothing to stroke.
	Points []Point
	Line   []Point
}

// XScale maps sample index to surface x for a window of n samples.
func XScale(n int) Scale {
	return Linear(0, float64(n-1), margin+30, Width-margin)
}

// YScale maps gain to surface y, 1.0 at the top.
func YScale() Scale {
	return Linear(maxValue, 0, margin+55, Height-margin-35)
}

// Layout computes the chart geometry for values. It is a pure function of
// the window contents, so the whole chart is redrawn from it every update.
func Layout(values []float64) Frame {
	xs, ys := XScale(len(values)), YScale()

	f := Frame{
		Width:  Width,
		Height: Height,
		Title:  Title,
		TitleX: Width / 2,
		TitleY: 32,
		Panel: Rect{
			X: 10, Y: 45,
			W: Width - 20, H: Height - 70,
			Radius: 15,
		},
		AxisX:      margin + 30,
		AxisTop:    ys.R0,
		AxisBottom: ys.R1,
		TickSize:   tickSize,
	}

	for _, v := range ys.Ticks(tickCount) {
		f.Ticks = append(f.Ticks, Tick{Value: v, Y: ys.Map(v), Label: fmt.Sprintf("%.1f", v)})
	}

	f.Points = make([]Point, len(values))
	for i, v := range values {
		f.Points[i] = Point{X: xs.Map(float64(i)), Y: ys.Map(v)}
	}
	f.Line = Monotone(f.Points, curveSteps)
	return f
}
