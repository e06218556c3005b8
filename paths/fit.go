package paths

import "math"

// maxFitTurn bounds the angle a single fitted arc may sweep.
const maxFitTurn = 1.5 * math.Pi

// circumcenter returns the center of the circle through a, b and c.
func circumcenter(a, b, c Vec2) (Vec2, bool) {
	d := 2 * (a[0]*(b[1]-c[1]) + b[0]*(c[1]-a[1]) + c[0]*(a[1]-b[1]))
	if math.Abs(d) < 1e-12 {
		return Vec2{}, false
	}
	a2 := a[0]*a[0] + a[1]*a[1]
	b2 := b[0]*b[0] + b[1]*b[1]
	c2 := c[0]*c[0] + c[1]*c[1]
	return Vec2{
		(a2*(b[1]-c[1]) + b2*(c[1]-a[1]) + c2*(a[1]-b[1])) / d,
		(a2*(c[0]-b[0]) + b2*(a[0]-c[0]) + c2*(b[0]-a[0])) / d,
	}, true
}

func cross(o, a, b Vec2) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// fitsArc reports whether pts[i..j] lie within tol of one circular arc
// turning consistently in one direction, and returns that arc.
func fitsArc(pts []Vec2, i, j int, tol float64) (Element, bool) {
	center, ok := circumcenter(pts[i], pts[(i+j)/2], pts[j])
	if !ok {
		return Element{}, false
	}
	r := pts[i].Sub(center).Len()
	turn := cross(pts[i], pts[i+1], pts[i+2])
	if turn == 0 {
		return Element{}, false
	}
	swept := 0.0
	for k := i; k <= j; k++ {
		if math.Abs(pts[k].Sub(center).Len()-r) > tol {
			return Element{}, false
		}
		if k+2 <= j && cross(pts[k], pts[k+1], pts[k+2])*turn <= 0 {
			return Element{}, false
		}
		if k < j {
			a0 := pts[k].Sub(center)
			a1 := pts[k+1].Sub(center)
			swept += math.Abs(math.Atan2(a0[0]*a1[1]-a0[1]*a1[0], a0.mgl().Dot(a1.mgl())))
			// the chord itself must not stray from the arc
			mid := pts[k].Add(pts[k+1]).Scale(0.5)
			if r-mid.Sub(center).Len() > tol {
				return Element{}, false
			}
		}
	}
	if swept > maxFitTurn {
		return Element{}, false
	}
	dir := CCW
	if turn < 0 {
		dir = CW
	}
	return Element{Kind: ArcCut, To: pts[j], Center: center, Dir: dir}, true
}

// FitArcs converts a polyline into cuts, replacing runs of three or more
// points that lie within tol of a circle by a single arc. pts[0] is the
// start point and produces no element.
func FitArcs(pts []Vec2, tol float64) []Element {
	var out []Element
	i := 0
	for i < len(pts)-1 {
		best := -1
		var bestArc Element
		for j := i + 2; j < len(pts); j++ {
			e, ok := fitsArc(pts, i, j, tol)
			if !ok {
				break
			}
			best, bestArc = j, e
		}
		if best < 0 {
			out = append(out, Element{Kind: LinearCut, To: pts[i+1]})
			i++
			continue
		}
		if segmentDist(pts[(i+best)/2], pts[i], pts[best]) <= tol {
			// nearly straight: keep the original points
			for k := i + 1; k <= best; k++ {
				out = append(out, Element{Kind: LinearCut, To: pts[k]})
			}
		} else {
			out = append(out, bestArc)
		}
		i = best
	}
	return out
}
