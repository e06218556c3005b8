package paths

// Transform maps drawing coordinates to machine coordinates:
// (x, y) -> (Scale·x + OffsetX, Scale·(±y) + OffsetY), negating y when FlipY is set.
type Transform struct {
	OffsetX, OffsetY float64
	Scale            float64
	FlipY            bool
}

// Identity is the transform that leaves points unchanged.
var Identity = Transform{Scale: 1}

// Apply maps a single point.
func (t Transform) Apply(v Vec2) Vec2 {
	y := v[1]
	if t.FlipY {
		y = -y
	}
	return Vec2{t.Scale*v[0] + t.OffsetX, t.Scale*y + t.OffsetY}
}

// Dir maps a rotation direction. Mirroring the y axis reverses it.
func (t Transform) Dir(d Direction) Direction {
	if t.FlipY {
		return d.Reverse()
	}
	return d
}
