package paths

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateArc is returned when an arc has no usable center or radius.
// Callers draw a straight line between the endpoints instead.
var ErrDegenerateArc = errors.New("degenerate arc")

const (
	arcEps   = 1e-9
	bulgeEps = 1e-12
)

// ResolvedArc is an arc described by its endpoints, center and
// direction. Sweep is the unsigned included angle in (0, 2π].
type ResolvedArc struct {
	Start, End Vec2
	Center     Vec2
	Radius     float64
	Dir        Direction
	Sweep      float64
}

func finite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// ResolveBulge computes the arc from p0 to p1 with the given bulge.
func ResolveBulge(p0, p1 Vec2, bulge float64) (ResolvedArc, error) {
	if !finite(p0[0], p0[1], p1[0], p1[1], bulge) {
		return ResolvedArc{}, fmt.Errorf("%w: non-finite bulge segment %v-%v b=%g", ErrDegenerateArc, p0, p1, bulge)
	}
	chord := p1.Sub(p0)
	c := chord.Len()
	if c < arcEps {
		return ResolvedArc{}, fmt.Errorf("%w: coincident endpoints %v", ErrDegenerateArc, p0)
	}
	if math.Abs(bulge) < bulgeEps {
		return ResolvedArc{}, fmt.Errorf("%w: zero bulge", ErrDegenerateArc)
	}
	// tan(θ/2) = 2b/(1-b²) and sin(θ/2) = 2b/(1+b²) for b = tan(θ/4).
	r := c * (1 + bulge*bulge) / (4 * math.Abs(bulge))
	h := c * (1 - bulge*bulge) / (4 * bulge)
	if r < arcEps || !finite(r, h) {
		return ResolvedArc{}, fmt.Errorf("%w: radius %g", ErrDegenerateArc, r)
	}
	u := chord.mgl().Normalize()
	left := mgl64.Vec2{-u.Y(), u.X()}
	mid := p0.mgl().Add(p1.mgl()).Mul(0.5)
	dir := CCW
	if bulge < 0 {
		dir = CW
	}
	return ResolvedArc{
		Start:  p0,
		End:    p1,
		Center: vec2(mid.Add(left.Mul(h))),
		Radius: r,
		Dir:    dir,
		Sweep:  4 * math.Atan(math.Abs(bulge)),
	}, nil
}

// normAngle maps a into [0, 2π).
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func onCircle(c Vec2, r, a float64) Vec2 {
	return Vec2{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)}
}

// ResolveArc computes endpoints and sweep of an explicit arc.
// Equal start and end angles describe a full circle in a.Dir.
func ResolveArc(a Arc) (ResolvedArc, error) {
	if !finite(a.Center[0], a.Center[1], a.Radius, a.StartAngle, a.EndAngle) {
		return ResolvedArc{}, fmt.Errorf("%w: non-finite arc", ErrDegenerateArc)
	}
	if a.Radius < arcEps {
		return ResolvedArc{}, fmt.Errorf("%w: radius %g", ErrDegenerateArc, a.Radius)
	}
	var sweep float64
	if a.Dir == CW {
		sweep = normAngle(a.StartAngle - a.EndAngle)
	} else {
		sweep = normAngle(a.EndAngle - a.StartAngle)
	}
	if sweep < arcEps || sweep > 2*math.Pi-arcEps {
		sweep = 2 * math.Pi
	}
	start := onCircle(a.Center, a.Radius, a.StartAngle)
	end := onCircle(a.Center, a.Radius, a.EndAngle)
	if sweep == 2*math.Pi {
		end = start
	}
	return ResolvedArc{
		Start:  start,
		End:    end,
		Center: a.Center,
		Radius: a.Radius,
		Dir:    a.Dir,
		Sweep:  sweep,
	}, nil
}

// ResolveCircle returns the circle as a full counter-clockwise arc
// starting and ending at angle zero.
func ResolveCircle(c Circle) (ResolvedArc, error) {
	return ResolveArc(Arc{Center: c.Center, Radius: c.Radius, Dir: CCW})
}

// ArcThrough builds the arc from start to end around center. The radius
// is taken from the start point; start == end gives a full circle.
func ArcThrough(start, end, center Vec2, dir Direction) (ResolvedArc, error) {
	r := start.Sub(center).Len()
	if r < arcEps || !finite(r) {
		return ResolvedArc{}, fmt.Errorf("%w: radius %g", ErrDegenerateArc, r)
	}
	a0 := math.Atan2(start[1]-center[1], start[0]-center[0])
	a1 := math.Atan2(end[1]-center[1], end[0]-center[0])
	sweep := normAngle(a1 - a0)
	if dir == CW {
		sweep = normAngle(a0 - a1)
	}
	if start.Near(end, arcEps) || sweep < arcEps {
		sweep = 2 * math.Pi
	}
	return ResolvedArc{Start: start, End: end, Center: center, Radius: r, Dir: dir, Sweep: sweep}, nil
}

// Sample returns points along the arc, at most step radians apart,
// including both endpoints.
func (a ResolvedArc) Sample(step float64) []Vec2 {
	n := int(math.Ceil(a.Sweep/step - 1e-9))
	if n < 1 {
		n = 1
	}
	da := a.Sweep / float64(n)
	if a.Dir == CW {
		da = -da
	}
	rot := mgl64.Rotate2D(da)
	r := a.Start.Sub(a.Center).mgl()
	pts := make([]Vec2, 0, n+1)
	pts = append(pts, a.Start)
	for i := 1; i < n; i++ {
		r = rot.Mul2x1(r)
		pts = append(pts, vec2(r.Add(a.Center.mgl())))
	}
	return append(pts, a.End)
}
