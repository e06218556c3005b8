package paths

import (
	"math"
	"sort"
)

// An end is one end of a contour. Picking it means the contour is cut
// starting from that end, so a reversed end has the contour reversed.
type end struct {
	contour  int
	reversed bool
}

type endNode struct {
	x           Vec2
	e           end
	yaxis       bool
	left, right *endNode
	leaf        []endPoint
}

type endPoint struct {
	x Vec2
	e end
}

// endIndex is a kd-tree over contour ends supporting removal of a
// contour's ends once it has been picked.
type endIndex struct {
	minR float64
	live map[int]bool
	root *endNode
}

const leafThreshold = 20

func buildEnds(pts []endPoint, yaxis bool) *endNode {
	if len(pts) == 0 {
		return nil
	}
	if len(pts) < leafThreshold {
		return &endNode{leaf: pts}
	}
	axis := 0
	if yaxis {
		axis = 1
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x[axis] < pts[j].x[axis] })
	k := len(pts) / 2
	return &endNode{
		x:     pts[k].x,
		e:     pts[k].e,
		yaxis: yaxis,
		left:  buildEnds(pts[:k], !yaxis),
		right: buildEnds(pts[k+1:], !yaxis),
	}
}

type endCand struct {
	dist float64
	e    end
}

// boxDist is the distance from v to the nearest point of b.
func boxDist(v Vec2, b Bounds) float64 {
	c := Vec2{
		math.Min(math.Max(v[0], b.Min[0]), b.Max[0]),
		math.Min(math.Max(v[1], b.Min[1]), b.Max[1]),
	}
	return v.Sub(c).Len()
}

func (ix *endIndex) consider(cands []endCand, x, pos Vec2, e end, r float64) []endCand {
	if !ix.live[e.contour] {
		return cands
	}
	if d := x.Sub(pos).Len(); d <= r {
		cands = append(cands, endCand{dist: d, e: e})
	}
	return cands
}

// within collects the live ends within r of pos.
func (ix *endIndex) within(n *endNode, pos Vec2, r float64, box Bounds, cands []endCand) []endCand {
	if n == nil || boxDist(pos, box) > r {
		return cands
	}
	if n.leaf != nil {
		for _, p := range n.leaf {
			cands = ix.consider(cands, p.x, pos, p.e, r)
		}
		return cands
	}
	cands = ix.consider(cands, n.x, pos, n.e, r)
	axis := 0
	if n.yaxis {
		axis = 1
	}
	lb, rb := box, box
	lb.Max[axis] = n.x[axis]
	rb.Min[axis] = n.x[axis]
	if pos[axis] <= n.x[axis] {
		cands = ix.within(n.left, pos, r, lb, cands)
		return ix.within(n.right, pos, r, rb, cands)
	}
	cands = ix.within(n.right, pos, r, rb, cands)
	return ix.within(n.left, pos, r, lb, cands)
}

// popNearest removes and returns the contour end nearest to pos,
// searching in growing circles.
func (ix *endIndex) popNearest(pos Vec2) end {
	const far = 1e19
	box := Bounds{Min: Vec2{-far, -far}, Max: Vec2{far, far}}
	for r := ix.minR; ; r *= 2 {
		cands := ix.within(ix.root, pos, r, box, nil)
		if len(cands) == 0 {
			continue
		}
		best := cands[0]
		for _, c := range cands[1:] {
			if c.dist < best.dist || (c.dist == best.dist && c.e.contour < best.e.contour) {
				best = c
			}
		}
		delete(ix.live, best.e.contour)
		return best.e
	}
}

// Order sorts contours greedily so each one starts near where the
// previous one ended, beginning at the origin. If reverse is set
// contours may be cut backwards.
func Order(cs []Contour, reverse bool) []Contour {
	if len(cs) < 2 {
		return cs
	}
	var pts []endPoint
	var b Bounds
	for i, c := range cs {
		pts = append(pts, endPoint{x: c.Start, e: end{contour: i}})
		if reverse {
			pts = append(pts, endPoint{x: c.End(), e: end{contour: i, reversed: true}})
		}
		if i == 0 {
			b = Bounds{Min: c.Start, Max: c.Start}
		}
		b.extend(c.Start)
		b.extend(c.End())
	}
	minR := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]) / 100
	if minR <= 0 {
		minR = joinEps
	}
	ix := &endIndex{minR: minR, live: map[int]bool{}, root: buildEnds(pts, false)}
	for i := range cs {
		ix.live[i] = true
	}
	out := make([]Contour, 0, len(cs))
	var pos Vec2
	for len(out) < len(cs) {
		e := ix.popNearest(pos)
		c := cs[e.contour]
		if e.reversed {
			c = c.Reversed()
		}
		out = append(out, c)
		pos = c.End()
	}
	return out
}
