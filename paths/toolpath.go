package paths

import (
	"fmt"
	"math"
)

// ElementKind says how the tool reaches an element's target.
type ElementKind int

const (
	Travel    ElementKind = iota // non-cutting repositioning
	LinearCut                    // straight cut
	ArcCut                       // circular cut around Center
)

func (k ElementKind) String() string {
	switch k {
	case Travel:
		return "travel"
	case LinearCut:
		return "line"
	case ArcCut:
		return "arc"
	}
	return fmt.Sprintf("ElementKind(%d)", int(k))
}

// Element is one motion of a FlatPath. Its start is the target of the
// element before it. Center and Dir are only meaningful for ArcCut.
type Element struct {
	Kind   ElementKind
	To     Vec2
	Center Vec2
	Dir    Direction
}

// FlatPath is an ordered sequence of motions in machine coordinates.
type FlatPath struct {
	Elements []Element
}

// Cuts returns the number of cutting elements.
func (fp *FlatPath) Cuts() int {
	n := 0
	for _, e := range fp.Elements {
		if e.Kind != Travel {
			n++
		}
	}
	return n
}

// Bounds returns the bounds of all element targets.
func (fp *FlatPath) Bounds() Bounds {
	ps := Paths{P: []Path{{}}}
	for _, e := range fp.Elements {
		ps.P[0].V = append(ps.P[0].V, e.To)
	}
	ps.TightenBounds()
	return ps.Bounds
}

// Contour is a run of cuts that the tool makes without lifting.
type Contour struct {
	Start Vec2
	Cuts  []Element
}

// End returns where the contour finishes.
func (c Contour) End() Vec2 {
	if len(c.Cuts) == 0 {
		return c.Start
	}
	return c.Cuts[len(c.Cuts)-1].To
}

// Reversed returns the same contour cut in the opposite direction.
func (c Contour) Reversed() Contour {
	r := Contour{Start: c.End(), Cuts: make([]Element, len(c.Cuts))}
	for i, e := range c.Cuts {
		from := c.Start
		if i > 0 {
			from = c.Cuts[i-1].To
		}
		e.To = from
		if e.Kind == ArcCut {
			e.Dir = e.Dir.Reverse()
		}
		r.Cuts[len(c.Cuts)-1-i] = e
	}
	return r
}

// joinEps is how close a contour must start to the previous end
// for the tool to stay down between them.
const joinEps = 1e-6

// Chain joins contours into a single path, inserting a travel move
// before each contour that doesn't start where the last one ended.
// Empty contours are skipped.
func Chain(cs []Contour) FlatPath {
	var fp FlatPath
	var pos Vec2
	started := false
	for _, c := range cs {
		if len(c.Cuts) == 0 {
			continue
		}
		if !started || !pos.Near(c.Start, joinEps) {
			fp.Elements = append(fp.Elements, Element{Kind: Travel, To: c.Start})
		}
		fp.Elements = append(fp.Elements, c.Cuts...)
		pos = c.End()
		started = true
	}
	return fp
}

// Builder turns primitives into contours in machine coordinates.
type Builder struct {
	Transform Transform
	Flattener Flattener

	// FitArcs replaces runs of flattened points that lie on a circle
	// with a single arc cut.
	FitArcs bool
}

type contourBuilder struct {
	t        Transform
	c        Contour
	pos      Vec2
	warnings []error
}

func (cb *contourBuilder) start(p Vec2) {
	cb.c.Start = cb.t.Apply(p)
	cb.pos = p
}

func (cb *contourBuilder) line(p Vec2) {
	cb.c.Cuts = append(cb.c.Cuts, Element{Kind: LinearCut, To: cb.t.Apply(p)})
	cb.pos = p
}

func (cb *contourBuilder) arc(a ResolvedArc) {
	cb.c.Cuts = append(cb.c.Cuts, Element{
		Kind:   ArcCut,
		To:     cb.t.Apply(a.End),
		Center: cb.t.Apply(a.Center),
		Dir:    cb.t.Dir(a.Dir),
	})
	cb.pos = a.End
}

func (cb *contourBuilder) warn(kind string, err error) {
	cb.warnings = append(cb.warnings, fmt.Errorf("%s: %w", kind, err))
}

// arcOrLine adds the arc, or a straight line to end if it could not be resolved.
func (cb *contourBuilder) arcOrLine(kind string, a ResolvedArc, err error, end Vec2) {
	if err != nil {
		cb.warn(kind, err)
		cb.line(end)
		return
	}
	cb.arc(a)
}

// points adds a flattened curve, starting the contour at its first point.
func (cb *contourBuilder) points(pts []Vec2, fit bool, tol float64) {
	if len(pts) == 0 {
		return
	}
	cb.start(pts[0])
	if !fit {
		for _, p := range pts[1:] {
			cb.line(p)
		}
		return
	}
	for _, e := range FitArcs(pts, tol) {
		e.To = cb.t.Apply(e.To)
		if e.Kind == ArcCut {
			e.Center = cb.t.Apply(e.Center)
			e.Dir = cb.t.Dir(e.Dir)
		}
		cb.c.Cuts = append(cb.c.Cuts, e)
	}
	cb.pos = pts[len(pts)-1]
}

func (cb *contourBuilder) close(first Vec2) {
	if !cb.pos.Near(first, joinEps) {
		cb.line(first)
	}
}

// Contour converts a primitive. Problems that were worked around, such
// as an arc drawn as a line or a curve flattened too coarsely, are
// returned as warnings alongside the contour.
func (b Builder) Contour(p Primitive) (Contour, []error) {
	cb := &contourBuilder{t: b.Transform}
	kind := KindOf(p)
	switch p := p.(type) {
	case Line:
		cb.start(p.Start)
		cb.line(p.End)
	case Arc:
		a, err := ResolveArc(p)
		cb.start(onCircle(p.Center, p.Radius, p.StartAngle))
		cb.arcOrLine(kind, a, err, onCircle(p.Center, p.Radius, p.EndAngle))
	case Circle:
		a, err := ResolveCircle(p)
		cb.start(onCircle(p.Center, p.Radius, 0))
		cb.arcOrLine(kind, a, err, onCircle(p.Center, p.Radius, math.Pi))
	case Polyline:
		if len(p.Segments) == 0 {
			break
		}
		cb.start(p.Segments[0].Start)
		for _, s := range p.Segments {
			if !cb.pos.Near(s.Start, joinEps) {
				cb.line(s.Start)
			}
			if math.Abs(s.Bulge) < bulgeEps {
				cb.line(s.End)
				continue
			}
			a, err := ResolveBulge(s.Start, s.End, s.Bulge)
			cb.arcOrLine(kind, a, err, s.End)
		}
	case Spline:
		pts, exceeded := b.Flattener.Spline(p)
		if exceeded {
			cb.warn(kind, ErrFlatteningDepthExceeded)
		}
		cb.points(pts, b.FitArcs, b.Flattener.tol())
		if p.Closed && len(pts) > 0 {
			cb.close(pts[0])
		}
	case Ellipse:
		pts, exceeded := b.Flattener.Ellipse(p)
		if exceeded {
			cb.warn(kind, ErrFlatteningDepthExceeded)
		}
		cb.points(pts, b.FitArcs, b.Flattener.tol())
	default:
		panic(fmt.Sprintf("paths: unknown primitive %T", p))
	}
	return cb.c, cb.warnings
}
