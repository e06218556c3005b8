package paths

import (
	"math"
	"testing"
)

// maxDeviation samples the curve densely and returns the largest
// distance from a sample to the polyline.
func maxDeviation(c curveFunc, t0, t1 float64, pts []Vec2) float64 {
	const n = 4000
	worst := 0.0
	for i := 0; i <= n; i++ {
		p := c(t0 + (t1-t0)*float64(i)/n)
		best := math.Inf(1)
		for j := 0; j+1 < len(pts); j++ {
			best = math.Min(best, segmentDist(p, pts[j], pts[j+1]))
		}
		worst = math.Max(worst, best)
	}
	return worst
}

func TestFlattenEllipseTolerance(t *testing.T) {
	cases := []struct {
		desc string
		e    Ellipse
		tol  float64
	}{
		{"full circle-ish", Ellipse{Center: Vec2{1, 2}, Major: Vec2{10, 0}, Ratio: 1, EndParam: 2 * math.Pi}, 0.01},
		{"flat rotated ellipse", Ellipse{Major: Vec2{6, 8}, Ratio: 0.3, EndParam: 2 * math.Pi}, 0.01},
		{"half, coarse", Ellipse{Major: Vec2{0, 50}, Ratio: 0.5, StartParam: 0, EndParam: math.Pi}, 0.5},
		{"wrapped arc", Ellipse{Major: Vec2{3, 0}, Ratio: 0.5, StartParam: 3 * math.Pi / 2, EndParam: math.Pi / 2}, 0.001},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			f := Flattener{Tolerance: c.tol}
			pts, exceeded := f.Ellipse(c.e)
			if exceeded {
				t.Fatalf("Ellipse(%+v) reported depth exceeded", c.e)
			}
			minor := Vec2{-c.e.Major[1], c.e.Major[0]}.Scale(c.e.Ratio)
			curve := func(t float64) Vec2 {
				return c.e.Center.Add(c.e.Major.Scale(math.Cos(t))).Add(minor.Scale(math.Sin(t)))
			}
			span := normAngle(c.e.EndParam - c.e.StartParam)
			if span == 0 {
				span = 2 * math.Pi
			}
			if d := maxDeviation(curve, c.e.StartParam, c.e.StartParam+span, pts); d > c.tol*1.01 {
				t.Errorf("Ellipse(%+v) deviates by %g, want at most %g", c.e, d, c.tol)
			}
			if !pts[0].Near(curve(c.e.StartParam), 1e-9) {
				t.Errorf("Ellipse(%+v) starts at %v, want %v", c.e, pts[0], curve(c.e.StartParam))
			}
		})
	}
}

func TestFlattenEllipseClosesLoop(t *testing.T) {
	for _, end := range []float64{2 * math.Pi, 0, 2*math.Pi - 1e-12} {
		e := Ellipse{Center: Vec2{5, 5}, Major: Vec2{2, 0}, Ratio: 0.5, StartParam: 0, EndParam: end}
		pts, _ := Flattener{Tolerance: 0.01}.Ellipse(e)
		if pts[0] != pts[len(pts)-1] {
			t.Errorf("Ellipse with end param %g: first %v, last %v, want a closed loop", end, pts[0], pts[len(pts)-1])
		}
	}
	half := Ellipse{Major: Vec2{2, 0}, Ratio: 0.5, EndParam: math.Pi}
	pts, _ := Flattener{Tolerance: 0.01}.Ellipse(half)
	if last := pts[len(pts)-1]; !last.Near(Vec2{-2, 0}, 1e-9) {
		t.Errorf("half ellipse ends at %v, want (-2,0)", last)
	}
}

func TestFlattenDepthExceeded(t *testing.T) {
	f := Flattener{Tolerance: 1e-12, MaxDepth: 2}
	pts, exceeded := f.Ellipse(Ellipse{Major: Vec2{100, 0}, Ratio: 1, EndParam: 2 * math.Pi})
	if !exceeded {
		t.Errorf("want depth exceeded with tolerance %g and max depth %d", f.Tolerance, f.MaxDepth)
	}
	// 16 coarse intervals, each bisected twice
	if want := 16*4 + 1; len(pts) != want {
		t.Errorf("got %d points, want %d", len(pts), want)
	}
}

func TestFlattenSplineTolerance(t *testing.T) {
	s := Spline{
		Degree:  3,
		Control: []Vec2{{0, 0}, {1, 3}, {3, -2}, {5, 2}, {6, 0}},
	}
	const tol = 0.005
	pts, exceeded := Flattener{Tolerance: tol}.Spline(s)
	if exceeded {
		t.Fatalf("Spline reported depth exceeded")
	}
	if !pts[0].Near(Vec2{0, 0}, 1e-9) || !pts[len(pts)-1].Near(Vec2{6, 0}, 1e-9) {
		t.Errorf("clamped spline runs %v to %v, want (0,0) to (6,0)", pts[0], pts[len(pts)-1])
	}
	b := newBSpline(s)
	if d := maxDeviation(b.eval, 0, 1, pts); d > tol*1.01 {
		t.Errorf("Spline deviates by %g, want at most %g", d, tol)
	}
}

func TestFlattenRationalSpline(t *testing.T) {
	// A quadratic rational B-spline with these weights is an exact quarter circle.
	w := math.Sqrt2 / 2
	s := Spline{
		Degree:  2,
		Knots:   []float64{0, 0, 0, 1, 1, 1},
		Weights: []float64{1, w, 1},
		Control: []Vec2{{1, 0}, {1, 1}, {0, 1}},
	}
	pts, _ := Flattener{Tolerance: 0.001}.Spline(s)
	for _, p := range pts {
		if math.Abs(p.Len()-1) > 1e-9 {
			t.Errorf("rational quarter circle point %v has radius %g, want 1", p, p.Len())
		}
	}
}

func TestFlattenFitPoints(t *testing.T) {
	fit := []Vec2{{0, 0}, {2, 1}, {4, -1}, {6, 0}}
	pts, _ := Flattener{Tolerance: 0.01}.Spline(Spline{Fit: fit})
	for _, f := range fit {
		found := false
		for _, p := range pts {
			if p.Near(f, 1e-9) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("flattened fit spline misses fit point %v", f)
		}
	}
	if !pts[0].Near(fit[0], 1e-9) || !pts[len(pts)-1].Near(fit[len(fit)-1], 1e-9) {
		t.Errorf("fit spline runs %v to %v, want %v to %v", pts[0], pts[len(pts)-1], fit[0], fit[len(fit)-1])
	}
}
