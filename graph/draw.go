package graph

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"go-livedeck/theme"
)

const dpi = 96

// Style holds the chart colours and stroke widths.
type Style struct {
	Title      drawing.Color
	PanelFill  drawing.Color
	PanelEdge  drawing.Color
	Axis       drawing.Color
	Line       drawing.Color
	PanelWidth float64
	LineWidth  float64
	TitleSize  float64
	LabelSize  float64

	Font *truetype.Font // nil uses the go-chart default font
}

// DefaultStyle is the neon-on-black look.
func DefaultStyle() Style {
	return Style{
		Title:      drawing.ColorFromHex("ff4fe6"),
		PanelFill:  drawing.Color{R: 0, G: 0, B: 0, A: 140},
		PanelEdge:  drawing.ColorFromHex("ff3b3b"),
		Axis:       drawing.ColorFromHex("00ffc8"),
		Line:       drawing.ColorFromHex("ff3b3b"),
		PanelWidth: 2.5,
		LineWidth:  3,
		TitleSize:  26,
		LabelSize:  10,
	}
}

// StyleFrom takes the chart colours from a theme's title, line and axis roles.
func StyleFrom(th *theme.Theme) Style {
	s := DefaultStyle()
	s.Title = drawing.ColorFromHex(th.Hex(theme.RoleTitle))
	s.PanelEdge = drawing.ColorFromHex(th.Hex(theme.RoleLine))
	s.Line = s.PanelEdge
	s.Axis = drawing.ColorFromHex(th.Hex(theme.RoleAxis))
	return s
}

// Format selects the output encoding of Render.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// FormatFor picks the format from a file name, defaulting to SVG.
func FormatFor(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		return PNG
	}
	return SVG
}

// Draw paints f onto a fresh renderer. Callers create a new renderer per
// frame, which is the clear step.
func Draw(r chart.Renderer, f Frame, st Style) error {
	font := st.Font
	if font == nil {
		var err error
		if font, err = chart.GetDefaultFont(); err != nil {
			return fmt.Errorf("load chart font: %w", err)
		}
	}
	r.SetDPI(dpi)
	r.SetFont(font)

	drawTitle(r, f, st)
	drawPanel(r, f.Panel, st)
	drawAxis(r, f, st)
	drawLine(r, f.Line, st)
	return nil
}

func drawTitle(r chart.Renderer, f Frame, st Style) {
	r.ResetStyle()
	r.SetFontColor(st.Title)
	r.SetFontSize(st.TitleSize)
	box := r.MeasureText(f.Title)
	r.Text(f.Title, int(math.Round(f.TitleX))-box.Width()/2, int(math.Round(f.TitleY)))
}

func drawPanel(r chart.Renderer, p Rect, st Style) {
	r.ResetStyle()
	r.SetFillColor(st.PanelFill)
	r.SetStrokeColor(st.PanelEdge)
	r.SetStrokeWidth(st.PanelWidth)

	x0, y0 := int(p.X), int(p.Y)
	x1, y1 := int(p.X+p.W), int(p.Y+p.H)
	rad := int(p.Radius)

	r.MoveTo(x0+rad, y0)
	r.LineTo(x1-rad, y0)
	r.QuadCurveTo(x1, y0, x1, y0+rad)
	r.LineTo(x1, y1-rad)
	r.QuadCurveTo(x1, y1, x1-rad, y1)
	r.LineTo(x0+rad, y1)
	r.QuadCurveTo(x0, y1, x0, y1-rad)
	r.LineTo(x0, y0+rad)
	r.QuadCurveTo(x0, y0, x0+rad, y0)
	r.Close()
	r.FillStroke()
}

func drawAxis(r chart.Renderer, f Frame, st Style) {
	x := int(math.Round(f.AxisX))
	top, bottom := int(math.Round(f.AxisTop)), int(math.Round(f.AxisBottom))
	size := int(f.TickSize)

	// domain path with outer ticks at both ends
	r.ResetStyle()
	r.SetStrokeColor(st.Axis)
	r.SetStrokeWidth(1)
	r.MoveTo(x-size, top)
	r.LineTo(x, top)
	r.LineTo(x, bottom)
	r.LineTo(x-size, bottom)
	r.Stroke()

	for _, tk := range f.Ticks {
		y := int(math.Round(tk.Y))
		r.ResetStyle()
		r.SetStrokeColor(st.Axis)
		r.SetStrokeWidth(1)
		r.MoveTo(x-size, y)
		r.LineTo(x, y)
		r.Stroke()

		r.ResetStyle()
		r.SetFontColor(st.Axis)
		r.SetFontSize(st.LabelSize)
		box := r.MeasureText(tk.Label)
		r.Text(tk.Label, x-size-3-box.Width(), y+int(0.32*st.LabelSize))
	}
}

func drawLine(r chart.Renderer, line []Point, st Style) {
	if len(line) < 2 {
		return
	}
	r.ResetStyle()
	r.SetStrokeColor(st.Line)
	r.SetStrokeWidth(st.LineWidth)
	r.MoveTo(int(math.Round(line[0].X)), int(math.Round(line[0].Y)))
	for _, p := range line[1:] {
		r.LineTo(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	r.Stroke()
}

// Render lays out values and writes the chart to w.
func Render(values []float64, format Format, st Style, w io.Writer) error {
	provider := chart.SVG
	if format == PNG {
		provider = chart.PNG
	}
	r, err := provider(Width, Height)
	if err != nil {
		return fmt.Errorf("create %s renderer: %w", format, err)
	}
	if err := Draw(r, Layout(values), st); err != nil {
		return err
	}
	return r.Save(w)
}
