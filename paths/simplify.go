package paths

// segmentDist is the distance from v to the segment s-e.
func segmentDist(v, s, e Vec2) float64 {
	d := e.Sub(s).mgl()
	l2 := d.LenSqr()
	if l2 == 0 {
		return v.Sub(s).Len()
	}
	t := v.Sub(s).mgl().Dot(d) / l2
	if t <= 0 {
		return v.Sub(s).Len()
	}
	if t >= 1 {
		return v.Sub(e).Len()
	}
	return v.Sub(s.Add(vec2(d.Mul(t)))).Len()
}

func simplifyPath(v []Vec2, tol float64) []Vec2 {
	if len(v) < 3 {
		return v
	}
	worst := 0
	worstD := 0.0
	for i := 1; i < len(v)-1; i++ {
		d := segmentDist(v[i], v[0], v[len(v)-1])
		if d > worstD {
			worst = i
			worstD = d
		}
	}
	if worstD <= tol {
		return []Vec2{v[0], v[len(v)-1]}
	}
	lefts := simplifyPath(v[:worst+1], tol)
	rights := simplifyPath(v[worst:], tol)
	return append(lefts[:len(lefts):len(lefts)], rights[1:]...)
}

// Simplify removes points from paths, with the guarantee that
// all removed points are within the given tolerance (distance)
// from the new path.
func (ps *Paths) Simplify(tol float64) {
	for i, p := range ps.P {
		ps.P[i].V = simplifyPath(p.V, tol)
	}
}
