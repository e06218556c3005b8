package paths

import "fmt"

// Direction is the rotation direction of an arc.
type Direction int

const (
	CCW Direction = iota
	CW
)

func (d Direction) String() string {
	if d == CW {
		return "CW"
	}
	return "CCW"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == CW {
		return CCW
	}
	return CW
}

// A Primitive is one of Line, Arc, Circle, Polyline, Spline or Ellipse.
// The set is closed: only types in this package implement it.
type Primitive interface {
	primitive()
}

// Line is a straight segment.
type Line struct {
	Start, End Vec2
}

// Arc is a circular arc. Angles are in radians, measured
// counter-clockwise from the positive x axis. The arc runs from
// StartAngle to EndAngle in direction Dir.
type Arc struct {
	Center     Vec2
	Radius     float64
	StartAngle float64
	EndAngle   float64
	Dir        Direction
}

// Circle is a full circle.
type Circle struct {
	Center Vec2
	Radius float64
}

// PolySegment is one edge of a polyline. A non-zero Bulge makes the
// edge an arc: bulge = tan(θ/4) for included angle θ, positive is
// counter-clockwise.
type PolySegment struct {
	Start, End Vec2
	Bulge      float64
}

// Polyline is an ordered chain of segments.
type Polyline struct {
	Segments []PolySegment
	Closed   bool
}

// Spline is a (possibly rational) B-spline. If Control is empty
// the curve interpolates Fit instead.
type Spline struct {
	Degree  int
	Knots   []float64
	Weights []float64
	Control []Vec2
	Fit     []Vec2
	Closed  bool
}

// Ellipse is an elliptical arc: P(t) = Center + Major·cos t + Ratio·perp(Major)·sin t
// for t from StartParam to EndParam.
type Ellipse struct {
	Center     Vec2
	Major      Vec2
	Ratio      float64
	StartParam float64
	EndParam   float64
}

func (Line) primitive()     {}
func (Arc) primitive()      {}
func (Circle) primitive()   {}
func (Polyline) primitive() {}
func (Spline) primitive()   {}
func (Ellipse) primitive()  {}

// KindOf names the primitive variant, for logs and reports.
func KindOf(p Primitive) string {
	switch p.(type) {
	case Line:
		return "line"
	case Arc:
		return "arc"
	case Circle:
		return "circle"
	case Polyline:
		return "polyline"
	case Spline:
		return "spline"
	case Ellipse:
		return "ellipse"
	}
	panic(fmt.Sprintf("paths: unknown primitive %T", p))
}
