package paths

import (
	"bufio"
	"fmt"
	"io"
)

// Preview collects the strokes of a toolpath for drawing: where the
// tool cut and where it moved without cutting.
type Preview struct {
	Cut    Paths
	Travel Paths
}

// Segment adds a straight stroke from a to b.
func (pv *Preview) Segment(a, b Vec2, cut bool) {
	ps := &pv.Travel
	if cut {
		ps = &pv.Cut
	}
	ps.move(a)
	ps.line(b)
}

// Bounds returns the bounds of all strokes.
func (pv *Preview) Bounds() Bounds {
	pv.Cut.TightenBounds()
	pv.Travel.TightenBounds()
	switch {
	case len(pv.Cut.P) == 0:
		return pv.Travel.Bounds
	case len(pv.Travel.P) == 0:
		return pv.Cut.Bounds
	}
	return pv.Cut.Bounds.Union(pv.Travel.Bounds)
}

var (
	svgh = `<svg height="%.2f" width="%.2f" viewBox="%.2f %.2f %.2f %.2f" version="1.1" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`
)

// svgMargin is added around the drawing, in drawing units.
const svgMargin = 2

// SVG writes the preview as an SVG file: black strokes for cuts and
// dashed grey strokes for travel. Machine y points up, so the image is
// mirrored vertically to keep it the right way up on screen.
func (pv *Preview) SVG(w io.Writer) error {
	b := pv.Bounds()
	flip := func(ps Paths) Paths {
		out := Paths{Bounds: b}
		for _, p := range ps.P {
			out.P = append(out.P, Path{V: append([]Vec2(nil), p.V...)})
		}
		out.Transform(Bounds{Min: Vec2{b.Min[0], b.Max[1]}, Max: Vec2{b.Max[0], b.Min[1]}})
		return out
	}
	cut, travel := flip(pv.Cut), flip(pv.Travel)

	var werr error
	bi := bufio.NewWriter(w)
	wr := func(f string, args ...interface{}) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bi, f, args...)
	}
	width := b.Max[0] - b.Min[0] + 2*svgMargin
	height := b.Max[1] - b.Min[1] + 2*svgMargin
	wr(svgh, height, width, b.Min[0]-svgMargin, b.Min[1]-svgMargin, width, height)
	wr("\n")
	group := func(ps Paths, attrs string) {
		wr("<g fill=\"none\" %s>\n", attrs)
		for _, p := range ps.P {
			if len(p.V) == 0 {
				continue
			}
			wr(`<path d="`)
			for i, v := range p.V {
				if i == 0 {
					wr("M %.3f, %.3f", v[0], v[1])
				} else {
					wr(" %.3f, %.3f", v[0], v[1])
				}
			}
			wr("\"/>\n")
		}
		wr("</g>\n")
	}
	group(travel, `stroke="grey" stroke-width="0.1" stroke-dasharray="0.5,0.5"`)
	group(cut, `stroke="black" stroke-width="0.2"`)
	wr("</svg>\n")
	if werr == nil {
		werr = bi.Flush()
	}
	return werr
}
