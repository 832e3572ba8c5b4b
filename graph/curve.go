package graph

import "math"

// Point is a position on the chart surface.
type Point struct {
	X, Y float64
}

// Monotone smooths pts, which must have strictly increasing X, with a
// monotone cubic (Steffen) interpolation and flattens every segment into
// steps line pieces. The curve never overshoots the samples vertically.
func Monotone(pts []Point, steps int) []Point {
	n := len(pts)
	if n < 3 || steps < 1 {
		return append([]Point(nil), pts...)
	}

	tangents := make([]float64, n)
	for i := 1; i < n-1; i++ {
		tangents[i] = interiorSlope(pts[i-1], pts[i], pts[i+1])
	}
	tangents[0] = endSlope(pts[0], pts[1], tangents[1])
	tangents[n-1] = endSlope(pts[n-2], pts[n-1], tangents[n-2])

	out := make([]Point, 0, (n-1)*steps+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0, p3 := pts[i], pts[i+1]
		dx := (p3.X - p0.X) / 3
		p1 := Point{p0.X + dx, p0.Y + dx*tangents[i]}
		p2 := Point{p3.X - dx, p3.Y - dx*tangents[i+1]}
		for k := 1; k <= steps; k++ {
			out = append(out, bezier(p0, p1, p2, p3, float64(k)/float64(steps)))
		}
	}
	return out
}

func interiorSlope(a, b, c Point) float64 {
	h0, h1 := b.X-a.X, c.X-b.X
	if h0 == 0 || h1 == 0 {
		return 0
	}
	s0 := (b.Y - a.Y) / h0
	s1 := (c.Y - b.Y) / h1
	p := (s0*h1 + s1*h0) / (h0 + h1)
	m := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(m) {
		return 0
	}
	return m
}

func endSlope(a, b Point, t float64) float64 {
	h := b.X - a.X
	if h == 0 {
		return t
	}
	return (3*(b.Y-a.Y)/h - t) / 2
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func bezier(p0, p1, p2, p3 Point, t float64) Point {
	if t == 1 {
		return p3
	}
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
