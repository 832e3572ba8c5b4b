package graph

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestScaleMap(t *testing.T) {
	t.Parallel()

	ys := YScale()
	if !near(ys.Map(1), 75) || !near(ys.Map(0), 205) || !near(ys.Map(0.5), 140) {
		t.Fatalf("y scale: 1->%v 0->%v 0.5->%v", ys.Map(1), ys.Map(0), ys.Map(0.5))
	}
	if got := Linear(3, 3, 50, 580).Map(3); !near(got, 315) {
		t.Fatalf("degenerate domain should map to midpoint, got %v", got)
	}
}

func TestScaleTicks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		scale Scale
		count int
		want  []float64
	}{
		{YScale(), 5, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
		{Linear(0, 100, 0, 1), 5, []float64{0, 20, 40, 60, 80, 100}},
		{Linear(0, 10, 0, 1), 2, []float64{0, 5, 10}},
		{Linear(2, 2, 0, 1), 5, []float64{2}},
		{Linear(0, 1, 0, 1), 0, nil},
	}
	for _, tc := range cases {
		if got := tc.scale.Ticks(tc.count); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Ticks(%v, %d) = %v; want %v", tc.scale, tc.count, got, tc.want)
		}
	}
}

func TestLayoutStaticElements(t *testing.T) {
	t.Parallel()

	f := Layout(nil)
	if f.Width != 600 || f.Height != 260 {
		t.Fatalf("surface: %dx%d", f.Width, f.Height)
	}
	if f.Title != Title || f.TitleX != 300 || f.TitleY != 32 {
		t.Fatalf("title placement: %+v", f)
	}
	if f.Panel != (Rect{X: 10, Y: 45, W: 580, H: 190, Radius: 15}) {
		t.Fatalf("panel: %+v", f.Panel)
	}
	if f.AxisX != 50 || f.AxisTop != 75 || f.AxisBottom != 205 {
		t.Fatalf("axis: x=%v top=%v bottom=%v", f.AxisX, f.AxisTop, f.AxisBottom)
	}

	var labels []string
	for _, tk := range f.Ticks {
		labels = append(labels, tk.Label)
	}
	want := []string{"0.0", "0.2", "0.4", "0.6", "0.8", "1.0"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("tick labels: %v", labels)
	}
	if !near(f.Ticks[0].Y, 205) || !near(f.Ticks[5].Y, 75) {
		t.Fatalf("tick positions: %v", f.Ticks)
	}
	if len(f.Points) != 0 || len(f.Line) != 0 {
		t.Fatalf("empty window should have no line: %v", f.Line)
	}
}

func TestLayoutDegenerateWindows(t *testing.T) {
	t.Parallel()

	one := Layout([]float64{0.5})
	if len(one.Points) != 1 || !near(one.Points[0].X, 315) || !near(one.Points[0].Y, 140) {
		t.Fatalf("single sample: %v", one.Points)
	}

	two := Layout([]float64{0, 1})
	if !near(two.Points[0].X, 50) || !near(two.Points[0].Y, 205) {
		t.Fatalf("first point: %v", two.Points[0])
	}
	if !near(two.Points[1].X, 580) || !near(two.Points[1].Y, 75) {
		t.Fatalf("last point: %v", two.Points[1])
	}
	if len(two.Line) != 2 {
		t.Fatalf("two samples should draw a straight line, got %d points", len(two.Line))
	}
}

func TestLayoutFullWindow(t *testing.T) {
	t.Parallel()

	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i%7) / 7
	}
	f := Layout(values)
	if !near(f.Points[0].X, 50) || !near(f.Points[49].X, 580) {
		t.Fatalf("x range: %v..%v", f.Points[0].X, f.Points[49].X)
	}
	if len(f.Line) != 49*curveSteps+1 {
		t.Fatalf("line points: %d", len(f.Line))
	}
	if f.Line[0] != f.Points[0] || f.Line[len(f.Line)-1] != f.Points[49] {
		t.Fatalf("line must start and end on the samples")
	}
}

func TestMonotoneDoesNotOvershoot(t *testing.T) {
	t.Parallel()

	ys := []float64{0.1, 0.9, 0.9, 0.2, 0.5, 0.5, 0}
	pts := make([]Point, len(ys))
	for i, y := range ys {
		pts[i] = Point{X: float64(i * 10), Y: y}
	}
	const steps = 8
	line := Monotone(pts, steps)
	if len(line) != (len(pts)-1)*steps+1 {
		t.Fatalf("line length %d", len(line))
	}
	for seg := 0; seg < len(pts)-1; seg++ {
		lo := math.Min(pts[seg].Y, pts[seg+1].Y) - eps
		hi := math.Max(pts[seg].Y, pts[seg+1].Y) + eps
		for k := 0; k <= steps; k++ {
			p := line[seg*steps+k]
			if p.Y < lo || p.Y > hi {
				t.Fatalf("segment %d overshoots: y=%v not in [%v, %v]", seg, p.Y, lo, hi)
			}
			if k > 0 && p.X <= line[seg*steps+k-1].X {
				t.Fatalf("x not increasing at segment %d step %d", seg, k)
			}
		}
		if line[(seg+1)*steps] != pts[seg+1] {
			t.Fatalf("segment %d does not end on its sample", seg)
		}
	}
}

// recorder captures the drawing calls Draw makes.
type recorder struct {
	chart.Renderer

	texts   []string
	strokes int
	fills   int
	quads   int
	moves   int
	lines   int
	font    *truetype.Font
	dpi     float64
}

func (r *recorder) ResetStyle()                           {}
func (r *recorder) SetDPI(dpi float64)                    { r.dpi = dpi }
func (r *recorder) SetFont(f *truetype.Font)              { r.font = f }
func (r *recorder) SetFontColor(drawing.Color)            {}
func (r *recorder) SetFontSize(float64)                   {}
func (r *recorder) SetFillColor(drawing.Color)            {}
func (r *recorder) SetStrokeColor(drawing.Color)          {}
func (r *recorder) SetStrokeWidth(float64)                {}
func (r *recorder) MeasureText(body string) chart.Box     { return chart.Box{Right: 6 * len(body)} }
func (r *recorder) Text(body string, x, y int)            { r.texts = append(r.texts, body) }
func (r *recorder) MoveTo(x, y int)                       { r.moves++ }
func (r *recorder) LineTo(x, y int)                       { r.lines++ }
func (r *recorder) QuadCurveTo(cx, cy, x, y int)          { r.quads++ }
func (r *recorder) Close()                                {}
func (r *recorder) Stroke()                               { r.strokes++ }
func (r *recorder) FillStroke()                           { r.fills++ }

func TestDrawPaintsEveryElement(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	if err := Draw(r, Layout([]float64{0.2, 0.8, 0.4}), DefaultStyle()); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if r.font == nil || r.dpi == 0 {
		t.Fatalf("font and dpi must be set before text is measured")
	}
	if len(r.texts) != 7 || r.texts[0] != Title {
		t.Fatalf("texts: %v", r.texts)
	}
	if r.fills != 1 || r.quads != 4 {
		t.Fatalf("panel: fills=%d quads=%d", r.fills, r.quads)
	}
	// axis domain + 6 ticks + the gain line
	if r.strokes != 8 {
		t.Fatalf("strokes: %d", r.strokes)
	}

	empty := &recorder{}
	if err := Draw(empty, Layout(nil), DefaultStyle()); err != nil {
		t.Fatalf("Draw empty: %v", err)
	}
	if empty.strokes != 7 {
		t.Fatalf("empty window should draw no line, strokes=%d", empty.strokes)
	}
}

func TestRenderSVG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Render([]float64{0.1, 0.5, 0.3}, SVG, DefaultStyle(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "Midnight in Motion", ">0.0<", ">1.0<", "<path"} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg output missing %q", want)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Render([]float64{0.4}, PNG, DefaultStyle(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG")
	}
}

func TestRedrawer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "gain.svg")
	r := NewRedrawer(path, DefaultStyle())
	r.Update([]float64{0.3})
	r.Update([]float64{0.3, 0.6})
	if err := r.Err(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.Frames() != 2 {
		t.Fatalf("frames: %d", r.Frames())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("chart file is not svg")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}

	bad := NewRedrawer(filepath.Join(dir, "missing", "gain.png"), DefaultStyle())
	bad.Update([]float64{0.1})
	if bad.Err() == nil || bad.Frames() != 0 {
		t.Fatalf("expected error writing into a missing directory")
	}
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	if FormatFor("out/Gain.PNG") != PNG || FormatFor("gain.svg") != SVG || FormatFor("gain") != SVG {
		t.Fatalf("FormatFor picked the wrong format")
	}
}

func TestTerminalNeedsTwoSamples(t *testing.T) {
	t.Parallel()

	term := NewTerminal(40, 8)
	if term.Render(nil) != "" || term.Render([]float64{0.5}) != "" {
		t.Fatalf("expected empty chart for fewer than two samples")
	}
	if got := clampUnit([]float64{-1, 0.5, 3}); !reflect.DeepEqual(got, []float64{0, 0.5, 1}) {
		t.Fatalf("clampUnit: %v", got)
	}
}
