// Package paths provides the 2d geometry used to turn drawings into
// toolpaths: primitives, arc resolution, curve flattening, the machine
// transform, and flat motion paths ready for G-code emission.
package paths

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2-dimensional vector.
type Vec2 [2]float64

func (v Vec2) mgl() mgl64.Vec2 { return mgl64.Vec2(v) }

func vec2(m mgl64.Vec2) Vec2 { return Vec2(m) }

// Add returns v+w.
func (v Vec2) Add(w Vec2) Vec2 { return vec2(v.mgl().Add(w.mgl())) }

// Sub returns v-w.
func (v Vec2) Sub(w Vec2) Vec2 { return vec2(v.mgl().Sub(w.mgl())) }

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 { return vec2(v.mgl().Mul(s)) }

// Len returns the length of v.
func (v Vec2) Len() float64 { return v.mgl().Len() }

// Near reports whether v and w are within eps of each other in both coordinates.
func (v Vec2) Near(w Vec2, eps float64) bool {
	return math.Abs(v[0]-w[0]) <= eps && math.Abs(v[1]-w[1]) <= eps
}

// A Path is a contiguous series of line segments, from the
// first point in the V slice to the last.
type Path struct {
	V []Vec2
}

// Bounds describes an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec2
}

// Paths is a set of paths, along with a view bounds.
type Paths struct {
	Bounds Bounds
	P      []Path
}

// TightenBounds adjusts the bounds to exactly contain the paths.
// If there are no paths, the bounds are set to zero.
func (ps *Paths) TightenBounds() {
	ps.Bounds = Bounds{}
	first := true
	for _, p := range ps.P {
		for _, v := range p.V {
			if first {
				ps.Bounds = Bounds{Min: v, Max: v}
				first = false
				continue
			}
			ps.Bounds.extend(v)
		}
	}
}

func (b *Bounds) extend(v Vec2) {
	b.Min[0] = math.Min(b.Min[0], v[0])
	b.Min[1] = math.Min(b.Min[1], v[1])
	b.Max[0] = math.Max(b.Max[0], v[0])
	b.Max[1] = math.Max(b.Max[1], v[1])
}

// Union returns the smallest bounds containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	b.extend(o.Min)
	b.extend(o.Max)
	return b
}

// Transform resizes all paths so that the rectangle forming the
// current bounds is the size of the new bounds. The bounds
// are also updated to the new bounds. Axes where the current
// bounds have no extent are only translated.
func (ps *Paths) Transform(nb Bounds) {
	ob := ps.Bounds
	mapAxis := func(x float64, axis int) float64 {
		ow := ob.Max[axis] - ob.Min[axis]
		if ow == 0 {
			return x - ob.Min[axis] + nb.Min[axis]
		}
		x -= ob.Min[axis]
		x /= ow
		x *= nb.Max[axis] - nb.Min[axis]
		return x + nb.Min[axis]
	}
	for _, p := range ps.P {
		for i, v := range p.V {
			p.V[i] = Vec2{mapAxis(v[0], 0), mapAxis(v[1], 1)}
		}
	}
	ps.Bounds = nb
}

// move adds a new (initially empty) path starting at x,
// unless the last path already ends at x.
func (ps *Paths) move(x Vec2) {
	if len(ps.P) == 0 {
		ps.P = append(ps.P, Path{V: []Vec2{x}})
		return
	}
	p := &ps.P[len(ps.P)-1]
	if len(p.V) > 0 && p.V[len(p.V)-1] == x {
		return
	}
	ps.P = append(ps.P, Path{V: []Vec2{x}})
}

// line extends the last path with an edge that goes to x.
func (ps *Paths) line(x Vec2) {
	p := &ps.P[len(ps.P)-1]
	p.V = append(p.V, x)
}
