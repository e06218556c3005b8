package paths

import (
	"errors"
	"math"
	"sort"
)

// ErrFlatteningDepthExceeded reports that a curve was flattened less
// accurately than requested because subdivision hit its depth limit.
var ErrFlatteningDepthExceeded = errors.New("flattening depth exceeded")

const (
	DefaultTolerance = 0.01
	DefaultMaxDepth  = 16

	// initial samples per knot span, and per full ellipse revolution
	spanSamples    = 4
	ellipseSamples = 16

	fullTurnEps = 1e-9
)

// Flattener approximates curves by polylines whose chords stay within
// Tolerance of the curve. Subdivision of any one coarse interval stops
// after MaxDepth bisections.
type Flattener struct {
	Tolerance float64
	MaxDepth  int
}

func (f Flattener) tol() float64 {
	if f.Tolerance <= 0 {
		return DefaultTolerance
	}
	return f.Tolerance
}

func (f Flattener) maxDepth() int {
	if f.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return f.MaxDepth
}

type curveFunc func(t float64) Vec2

type interval struct {
	t0, t1 float64
	p0, p1 Vec2
	depth  int
}

// flat reports whether the chord of iv is within tolerance of the
// curve at the quarter points of the interval.
func (f Flattener) flat(c curveFunc, iv interval) bool {
	for _, q := range [...]float64{0.25, 0.5, 0.75} {
		p := c(iv.t0 + q*(iv.t1-iv.t0))
		if segmentDist(p, iv.p0, iv.p1) > f.tol() {
			return false
		}
	}
	return true
}

// flatten walks the breakpoints ts in order, bisecting each interval
// until it is flat. The returned bool is true if any interval hit the
// depth limit.
func (f Flattener) flatten(c curveFunc, ts []float64) ([]Vec2, bool) {
	out := []Vec2{c(ts[0])}
	exceeded := false
	var stack []interval
	for i := 0; i+1 < len(ts); i++ {
		stack = append(stack[:0], interval{t0: ts[i], t1: ts[i+1], p0: c(ts[i]), p1: c(ts[i+1])})
		for len(stack) > 0 {
			iv := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.flat(c, iv) {
				out = append(out, iv.p1)
				continue
			}
			if iv.depth >= f.maxDepth() {
				exceeded = true
				out = append(out, iv.p1)
				continue
			}
			tm := (iv.t0 + iv.t1) / 2
			pm := c(tm)
			// push the right half first so the left half is done first
			stack = append(stack,
				interval{t0: tm, t1: iv.t1, p0: pm, p1: iv.p1, depth: iv.depth + 1},
				interval{t0: iv.t0, t1: tm, p0: iv.p0, p1: pm, depth: iv.depth + 1})
		}
	}
	return out, exceeded
}

// subdivide splits each interval between consecutive breakpoints into n.
func subdivide(breaks []float64, n int) []float64 {
	var ts []float64
	for i := 0; i+1 < len(breaks); i++ {
		for j := 0; j < n; j++ {
			ts = append(ts, breaks[i]+(breaks[i+1]-breaks[i])*float64(j)/float64(n))
		}
	}
	return append(ts, breaks[len(breaks)-1])
}

// Ellipse flattens an elliptical arc. A parameter span of a whole
// revolution (or none) yields a closed loop whose last point is its first.
func (f Flattener) Ellipse(e Ellipse) ([]Vec2, bool) {
	span := normAngle(e.EndParam - e.StartParam)
	full := span < fullTurnEps || span > 2*math.Pi-fullTurnEps
	if full {
		span = 2 * math.Pi
	}
	minor := Vec2{-e.Major[1], e.Major[0]}.Scale(e.Ratio)
	c := func(t float64) Vec2 {
		return e.Center.Add(e.Major.Scale(math.Cos(t))).Add(minor.Scale(math.Sin(t)))
	}
	n := int(math.Ceil(ellipseSamples * span / (2 * math.Pi)))
	if n < 2 {
		n = 2
	}
	pts, exceeded := f.flatten(c, subdivide([]float64{e.StartParam, e.StartParam + span}, n))
	if full {
		pts[len(pts)-1] = pts[0]
	}
	return pts, exceeded
}

// Spline flattens a B-spline, or the curve through its fit points
// when it has no control points.
func (f Flattener) Spline(s Spline) ([]Vec2, bool) {
	if len(s.Control) == 0 {
		if len(s.Fit) < 2 {
			return append([]Vec2(nil), s.Fit...), false
		}
		breaks := make([]float64, len(s.Fit))
		for i := range breaks {
			breaks[i] = float64(i)
		}
		return f.flatten(catmullRom(s.Fit), subdivide(breaks, spanSamples))
	}
	if len(s.Control) < 2 {
		return append([]Vec2(nil), s.Control...), false
	}
	b := newBSpline(s)
	return f.flatten(b.eval, subdivide(b.breaks(), spanSamples))
}

type bspline struct {
	p int
	u []float64
	c []Vec2
	w []float64
}

func newBSpline(s Spline) *bspline {
	n := len(s.Control)
	p := s.Degree
	if p < 1 {
		p = 1
	}
	if p > n-1 {
		p = n - 1
	}
	u := s.Knots
	if len(u) != n+p+1 || !sort.Float64sAreSorted(u) || u[p] >= u[n] {
		u = clampedKnots(n, p)
	}
	w := s.Weights
	if len(w) != n {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}
	return &bspline{p: p, u: u, c: s.Control, w: w}
}

// clampedKnots returns a uniform knot vector with end knots repeated p+1 times.
func clampedKnots(n, p int) []float64 {
	u := make([]float64, n+p+1)
	for i := p + 1; i < n; i++ {
		u[i] = float64(i-p) / float64(n-p)
	}
	for i := n; i < len(u); i++ {
		u[i] = 1
	}
	return u
}

// breaks returns the distinct knot values of the curve's domain.
func (b *bspline) breaks() []float64 {
	n := len(b.c)
	ts := []float64{b.u[b.p]}
	for i := b.p + 1; i <= n; i++ {
		if b.u[i] > ts[len(ts)-1] {
			ts = append(ts, b.u[i])
		}
	}
	return ts
}

func (b *bspline) span(t float64) int {
	n := len(b.c)
	if t >= b.u[n] {
		for k := n - 1; k > b.p; k-- {
			if b.u[k] < b.u[k+1] {
				return k
			}
		}
		return b.p
	}
	k := sort.Search(len(b.u), func(i int) bool { return b.u[i] > t }) - 1
	if k < b.p {
		k = b.p
	}
	if k > n-1 {
		k = n - 1
	}
	return k
}

// eval evaluates the curve with de Boor's algorithm in homogeneous coordinates.
func (b *bspline) eval(t float64) Vec2 {
	k := b.span(t)
	d := make([][3]float64, b.p+1)
	for j := range d {
		i := j + k - b.p
		w := b.w[i]
		d[j] = [3]float64{b.c[i][0] * w, b.c[i][1] * w, w}
	}
	for r := 1; r <= b.p; r++ {
		for j := b.p; j >= r; j-- {
			i := j + k - b.p
			den := b.u[i+b.p-r+1] - b.u[i]
			alpha := 0.0
			if den != 0 {
				alpha = (t - b.u[i]) / den
			}
			for m := 0; m < 3; m++ {
				d[j][m] = (1-alpha)*d[j-1][m] + alpha*d[j][m]
			}
		}
	}
	h := d[b.p]
	if h[2] == 0 {
		return Vec2{h[0], h[1]}
	}
	return Vec2{h[0] / h[2], h[1] / h[2]}
}

// catmullRom returns a uniform Catmull-Rom curve through pts, with
// parameter i at pts[i]. The end tangents come from reflected phantom points.
func catmullRom(pts []Vec2) curveFunc {
	m := len(pts)
	e := make([]Vec2, 0, m+2)
	e = append(e, pts[0].Scale(2).Sub(pts[1]))
	e = append(e, pts...)
	e = append(e, pts[m-1].Scale(2).Sub(pts[m-2]))
	return func(u float64) Vec2 {
		seg := int(math.Floor(u))
		if seg < 0 {
			seg = 0
		}
		if seg > m-2 {
			seg = m - 2
		}
		t := u - float64(seg)
		p0, p1, p2, p3 := e[seg], e[seg+1], e[seg+2], e[seg+3]
		t2, t3 := t*t, t*t*t
		var r Vec2
		for i := 0; i < 2; i++ {
			r[i] = 0.5 * (2*p1[i] +
				(-p0[i]+p2[i])*t +
				(2*p0[i]-5*p1[i]+4*p2[i]-p3[i])*t2 +
				(-p0[i]+3*p1[i]-3*p2[i]+p3[i])*t3)
		}
		return r
	}
}
