// Package entity defines the drawing records read from input files and
// normalizes them into geometric primitives.
package entity

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulhankin/dxfcam/paths"
)

var (
	// ErrUnsupportedEntity is returned for record kinds that have no
	// geometric primitive, such as text or block inserts.
	ErrUnsupportedEntity = errors.New("unsupported entity")

	// ErrDegenerateGeometry is returned for records whose geometry
	// has no extent, such as a zero-length line.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Record kinds, named as in DXF.
const (
	KindLine       = "LINE"
	KindArc        = "ARC"
	KindCircle     = "CIRCLE"
	KindLWPolyline = "LWPOLYLINE"
	KindPolyline   = "POLYLINE"
	KindSpline     = "SPLINE"
	KindEllipse    = "ELLIPSE"
)

// Vertex is a polyline vertex. Bulge describes the edge to the next vertex.
type Vertex struct {
	Point paths.Vec2
	Bulge float64
}

// Record is one drawing entity. Only the fields relevant to Kind are set.
type Record struct {
	Kind  string
	Layer string

	// LINE
	Start, End paths.Vec2

	// ARC and CIRCLE. Angles are in degrees; an arc runs counter-clockwise
	// from StartAngle to EndAngle unless Clockwise is set.
	Center     paths.Vec2
	Radius     float64
	StartAngle float64
	EndAngle   float64
	Clockwise  bool

	// LWPOLYLINE and POLYLINE
	Vertices []Vertex
	Closed   bool // also SPLINE

	// SPLINE
	Degree  int
	Knots   []float64
	Weights []float64
	Control []paths.Vec2
	Fit     []paths.Vec2

	// ELLIPSE: Center, plus the major axis relative to it, the minor to
	// major axis ratio and the parameter range in radians.
	MajorAxis  paths.Vec2
	Ratio      float64
	StartParam float64
	EndParam   float64
}

const eps = 1e-9

func finite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func finitePts(ps ...paths.Vec2) bool {
	for _, p := range ps {
		if !finite(p[0], p[1]) {
			return false
		}
	}
	return true
}

func degenerate(rec Record, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s on layer %q: %s", ErrDegenerateGeometry, rec.Kind, rec.Layer, fmt.Sprintf(format, args...))
}

// Normalize converts a record into primitives.
func Normalize(rec Record) ([]paths.Primitive, error) {
	switch rec.Kind {
	case KindLine:
		if !finitePts(rec.Start, rec.End) || rec.End.Sub(rec.Start).Len() < eps {
			return nil, degenerate(rec, "zero-length line at %v", rec.Start)
		}
		return []paths.Primitive{paths.Line{Start: rec.Start, End: rec.End}}, nil
	case KindCircle:
		if !finitePts(rec.Center) || !finite(rec.Radius) || rec.Radius < eps {
			return nil, degenerate(rec, "radius %g", rec.Radius)
		}
		return []paths.Primitive{paths.Circle{Center: rec.Center, Radius: rec.Radius}}, nil
	case KindArc:
		if !finitePts(rec.Center) || !finite(rec.Radius, rec.StartAngle, rec.EndAngle) || rec.Radius < eps {
			return nil, degenerate(rec, "radius %g", rec.Radius)
		}
		dir := paths.CCW
		if rec.Clockwise {
			dir = paths.CW
		}
		return []paths.Primitive{paths.Arc{
			Center:     rec.Center,
			Radius:     rec.Radius,
			StartAngle: rec.StartAngle * math.Pi / 180,
			EndAngle:   rec.EndAngle * math.Pi / 180,
			Dir:        dir,
		}}, nil
	case KindLWPolyline, KindPolyline:
		pl, err := polyline(rec)
		if err != nil {
			return nil, err
		}
		return []paths.Primitive{pl}, nil
	case KindSpline:
		if !finitePts(rec.Control...) || !finitePts(rec.Fit...) {
			return nil, degenerate(rec, "non-finite point")
		}
		s := paths.Spline{
			Degree:  rec.Degree,
			Knots:   rec.Knots,
			Weights: rec.Weights,
			Control: rec.Control,
			Closed:  rec.Closed,
		}
		if len(rec.Control) < 2 {
			if len(rec.Fit) < 2 {
				return nil, degenerate(rec, "%d control and %d fit points", len(rec.Control), len(rec.Fit))
			}
			s.Control, s.Knots, s.Weights = nil, nil, nil
			s.Fit = rec.Fit
		}
		return []paths.Primitive{s}, nil
	case KindEllipse:
		if !finitePts(rec.Center, rec.MajorAxis) || !finite(rec.Ratio, rec.StartParam, rec.EndParam) {
			return nil, degenerate(rec, "non-finite ellipse")
		}
		if rec.MajorAxis.Len() < eps || rec.Ratio < eps {
			return nil, degenerate(rec, "major axis %v ratio %g", rec.MajorAxis, rec.Ratio)
		}
		return []paths.Primitive{paths.Ellipse{
			Center:     rec.Center,
			Major:      rec.MajorAxis,
			Ratio:      rec.Ratio,
			StartParam: rec.StartParam,
			EndParam:   rec.EndParam,
		}}, nil
	}
	return nil, fmt.Errorf("%w: %q on layer %q", ErrUnsupportedEntity, rec.Kind, rec.Layer)
}

// polyline builds one segment per pair of consecutive vertices, plus the
// closing segment when rec.Closed is set. Zero-length segments are dropped.
func polyline(rec Record) (paths.Polyline, error) {
	vs := rec.Vertices
	for _, v := range vs {
		if !finitePts(v.Point) || !finite(v.Bulge) {
			return paths.Polyline{}, degenerate(rec, "non-finite vertex %v", v)
		}
	}
	n := len(vs) - 1
	if rec.Closed {
		n = len(vs)
	}
	pl := paths.Polyline{Closed: rec.Closed}
	for i := 0; i < n; i++ {
		a, b := vs[i], vs[(i+1)%len(vs)]
		if b.Point.Sub(a.Point).Len() < eps {
			continue
		}
		pl.Segments = append(pl.Segments, paths.PolySegment{Start: a.Point, End: b.Point, Bulge: a.Bulge})
	}
	if len(pl.Segments) == 0 {
		return paths.Polyline{}, degenerate(rec, "%d vertices without extent", len(vs))
	}
	return pl, nil
}

// FilterLayers returns the records on any of the given layers.
// An empty layer list keeps every record.
func FilterLayers(recs []Record, layers []string) []Record {
	if len(layers) == 0 {
		return recs
	}
	keep := map[string]bool{}
	for _, l := range layers {
		keep[l] = true
	}
	var out []Record
	for _, r := range recs {
		if keep[r.Layer] {
			out = append(out, r)
		}
	}
	return out
}
