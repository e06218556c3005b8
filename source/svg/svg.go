// Package svg reads drawing entities from SVG files.
//
// This provides only limited SVG support: shapes, paths made of straight
// lines and Bézier curves, and transforms on groups and elements. Styles,
// clipping, text and elliptical arc path commands are not understood.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/JoshVarga/svgparser"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/dxfcam/entity"
	"github.com/paulhankin/dxfcam/internal/logging"
	"github.com/paulhankin/dxfcam/paths"
	"golang.org/x/net/html/charset"
)

// DefaultLayer is the layer of elements outside any group with an id.
const DefaultLayer = "0"

type xform struct {
	M mgl64.Mat3
}

var identity = &xform{M: mgl64.Ident3()}

func (xf *xform) Compose(xf2 *xform) *xform {
	return &xform{M: xf.M.Mul3(xf2.M)}
}

func (xf *xform) Apply(v paths.Vec2) paths.Vec2 {
	r := xf.M.Mul3x1(mgl64.Vec3{v[0], v[1], 1})
	return paths.Vec2{r[0] / r[2], r[1] / r[2]}
}

// Linear applies the transform without its translation.
func (xf *xform) Linear(v paths.Vec2) paths.Vec2 {
	r := xf.M.Mat2().Mul2x1(mgl64.Vec2{v[0], v[1]})
	return paths.Vec2{r[0], r[1]}
}

type xformScannerState int

const (
	xfsName xformScannerState = 1 + iota
	xfsBra
	xfsMaybeComma
	xfsArg
)

func wantArgs(name string, args []float64, counts ...int) error {
	for _, c := range counts {
		if len(args) == c {
			return nil
		}
	}
	return fmt.Errorf("%s should have %v parameters: got %v", name, counts, args)
}

func parseSingleXform(name string, args []float64) (*xform, error) {
	switch name {
	case "translate":
		if err := wantArgs(name, args, 1, 2); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			args = append(args, 0)
		}
		return &xform{M: mgl64.Translate2D(args[0], args[1])}, nil
	case "scale":
		if err := wantArgs(name, args, 1, 2); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			args = append(args, args[0])
		}
		return &xform{M: mgl64.Scale2D(args[0], args[1])}, nil
	case "rotate":
		if err := wantArgs(name, args, 1, 3); err != nil {
			return nil, err
		}
		r := mgl64.HomogRotate2D(mgl64.DegToRad(args[0]))
		if len(args) == 3 {
			r = mgl64.Translate2D(args[1], args[2]).Mul3(r).Mul3(mgl64.Translate2D(-args[1], -args[2]))
		}
		return &xform{M: r}, nil
	case "skewX":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		return &xform{M: mgl64.ShearX2D(math.Tan(mgl64.DegToRad(args[0])))}, nil
	case "skewY":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		return &xform{M: mgl64.ShearY2D(math.Tan(mgl64.DegToRad(args[0])))}, nil
	case "matrix":
		if err := wantArgs(name, args, 6); err != nil {
			return nil, err
		}
		a := args
		return &xform{M: mgl64.Mat3{a[0], a[1], 0, a[2], a[3], 0, a[4], a[5], 1}}, nil
	default:
		return nil, fmt.Errorf("unknown transform function %q", name)
	}
}

// newScanner returns a scanner for transform lists and path data.
// Identifiers are letters only, so "L10" scans as "L" then "10". With
// single set they are one letter long, so "zm" scans as "z" then "m".
func newScanner(src string, single bool) *scanner.Scanner {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats
	s.IsIdentRune = func(ch rune, i int) bool {
		return isLetter(ch) && (i == 0 || !single)
	}
	s.Error = func(*scanner.Scanner, string) {}
	return &s
}

// scanNumber reads a number whose first token is tok, handling a sign.
func scanNumber(s *scanner.Scanner, tok rune) (float64, bool) {
	sign := 1.0
	if tok == '-' || tok == '+' {
		if tok == '-' {
			sign = -1
		}
		tok = s.Scan()
	}
	if tok != scanner.Float && tok != scanner.Int {
		return 0, false
	}
	f, err := strconv.ParseFloat(s.TokenText(), 64)
	if err != nil {
		return 0, false
	}
	return sign * f, true
}

func parseXform(x string) (*xform, error) {
	s := newScanner(x, false)
	xf := identity
	state := xfsName
	fname := ""
	var args []float64
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		switch state {
		case xfsName:
			if tok == ',' {
				continue
			}
			if tok != scanner.Ident {
				return nil, fmt.Errorf("failed to parse transform: expected transform name, but got %q", s.TokenText())
			}
			fname = s.TokenText()
			state = xfsBra
		case xfsBra:
			if tok != '(' {
				return nil, fmt.Errorf("failed to parse transform: expected (, but got %q", s.TokenText())
			}
			state = xfsArg
		case xfsMaybeComma:
			if tok == ',' {
				continue
			}
			fallthrough
		case xfsArg:
			if tok == ')' {
				newxform, err := parseSingleXform(fname, args)
				if err != nil {
					return nil, err
				}
				xf = xf.Compose(newxform)
				state = xfsName
				args = nil
			} else if f, ok := scanNumber(s, tok); ok {
				args = append(args, f)
				state = xfsMaybeComma
			} else {
				return nil, fmt.Errorf("unexpected token %q parsing transform %q", s.TokenText(), x)
			}
		}
	}
	if state != xfsName {
		return nil, fmt.Errorf("failed to parse transform: %q", x)
	}
	return xf, nil
}

func isLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// attrs reads numeric attributes of an element, keeping the first error.
type attrs struct {
	e   *svgparser.Element
	err error
}

func (a *attrs) float(name string, def float64) float64 {
	v, ok := a.e.Attributes[name]
	if !ok || a.err != nil {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		a.err = fmt.Errorf("%s attribute %s: %w", a.e.Name, name, err)
	}
	return f
}

// points parses a points attribute of polyline and polygon elements.
func (a *attrs) points(name string) []paths.Vec2 {
	if a.err != nil {
		return nil
	}
	s := newScanner(a.e.Attributes[name], false)
	var fs []float64
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		if tok == ',' {
			continue
		}
		f, ok := scanNumber(s, tok)
		if !ok {
			a.err = fmt.Errorf("%s attribute %s: unexpected %q", a.e.Name, name, s.TokenText())
			return nil
		}
		fs = append(fs, f)
	}
	if len(fs)%2 != 0 {
		a.err = fmt.Errorf("%s attribute %s: odd number of coordinates", a.e.Name, name)
		return nil
	}
	var vs []paths.Vec2
	for i := 0; i < len(fs); i += 2 {
		vs = append(vs, paths.Vec2{fs[i], fs[i+1]})
	}
	return vs
}

type reader struct {
	recs []entity.Record
}

func (r *reader) add(rec entity.Record) {
	r.recs = append(r.recs, rec)
}

func (r *reader) polyline(layer string, xf *xform, vs []paths.Vec2, closed bool) {
	rec := entity.Record{Kind: entity.KindLWPolyline, Layer: layer, Closed: closed}
	for _, v := range vs {
		rec.Vertices = append(rec.Vertices, entity.Vertex{Point: xf.Apply(v)})
	}
	r.add(rec)
}

// ellipse adds the image under xf of the axis-aligned ellipse with radii
// rx and ry. A similarity transform keeps it a circle.
func (r *reader) ellipse(layer string, xf *xform, c paths.Vec2, rx, ry float64) {
	center := xf.Apply(c)
	a := xf.Linear(paths.Vec2{rx, 0})
	b := xf.Linear(paths.Vec2{0, ry})
	la, lb := a.Len(), b.Len()
	dot := a[0]*b[0] + a[1]*b[1]
	if math.Abs(la-lb) <= 1e-9*(la+lb) && math.Abs(dot) <= 1e-9*la*lb {
		r.add(entity.Record{Kind: entity.KindCircle, Layer: layer, Center: center, Radius: la})
		return
	}
	// a and b are conjugate semi-diameters; the principal axes are at the
	// parameter where |a cos t + b sin t| is stationary.
	t := 0.5 * math.Atan2(2*dot, la*la-lb*lb)
	p := func(t float64) paths.Vec2 {
		return a.Scale(math.Cos(t)).Add(b.Scale(math.Sin(t)))
	}
	major, minor := p(t), p(t+math.Pi/2)
	if minor.Len() > major.Len() {
		major, minor = minor, major
	}
	r.add(entity.Record{
		Kind:      entity.KindEllipse,
		Layer:     layer,
		Center:    center,
		MajorAxis: major,
		Ratio:     minor.Len() / major.Len(),
		EndParam:  2 * math.Pi,
	})
}

func (r *reader) element(layer string, xf *xform, e *svgparser.Element) error {
	a := &attrs{e: e}
	switch e.Name {
	case "line":
		x1, y1 := a.float("x1", 0), a.float("y1", 0)
		x2, y2 := a.float("x2", 0), a.float("y2", 0)
		if a.err != nil {
			return a.err
		}
		r.add(entity.Record{Kind: entity.KindLine, Layer: layer, Start: xf.Apply(paths.Vec2{x1, y1}), End: xf.Apply(paths.Vec2{x2, y2})})
	case "rect":
		x, y := a.float("x", 0), a.float("y", 0)
		w, h := a.float("width", 0), a.float("height", 0)
		if a.err != nil {
			return a.err
		}
		r.polyline(layer, xf, []paths.Vec2{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, true)
	case "circle":
		c := paths.Vec2{a.float("cx", 0), a.float("cy", 0)}
		rad := a.float("r", 0)
		if a.err != nil {
			return a.err
		}
		r.ellipse(layer, xf, c, rad, rad)
	case "ellipse":
		c := paths.Vec2{a.float("cx", 0), a.float("cy", 0)}
		rx, ry := a.float("rx", 0), a.float("ry", 0)
		if a.err != nil {
			return a.err
		}
		r.ellipse(layer, xf, c, rx, ry)
	case "polyline", "polygon":
		vs := a.points("points")
		if a.err != nil {
			return a.err
		}
		r.polyline(layer, xf, vs, e.Name == "polygon")
	case "path":
		pb := &pathBuilder{r: r, layer: layer, xf: xf}
		return pb.parse(e.Attributes["d"])
	}
	return nil
}

func (r *reader) children(layer string, xf *xform, e *svgparser.Element) error {
	for _, c := range e.Children {
		cxf := xf
		if t, ok := c.Attributes["transform"]; ok {
			exf, err := parseXform(t)
			if err != nil {
				return err
			}
			cxf = xf.Compose(exf)
		}
		switch c.Name {
		case "g", "svg":
			clayer := layer
			if id := c.Attributes["id"]; id != "" {
				clayer = id
			}
			if err := r.children(clayer, cxf, c); err != nil {
				return err
			}
		case "line", "rect", "circle", "ellipse", "polyline", "polygon", "path":
			if err := r.element(layer, cxf, c); err != nil {
				return fmt.Errorf("%s element: %w", c.Name, err)
			}
		case "defs", "title", "desc", "metadata", "style":
			continue
		default:
			logging.Logger().Debug("ignoring svg element", "name", c.Name)
		}
	}
	return nil
}

// Read parses an SVG document and returns its shapes as drawing records
// in document order. Coordinates are SVG user units with y pointing down.
// Elements are on the layer named by the id of their closest enclosing
// group, or DefaultLayer.
func Read(r io.Reader) ([]entity.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel
	elt, err := svgparser.DecodeFirst(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	if elt == nil || elt.Name != "svg" {
		return nil, fmt.Errorf("failed to parse svg: document is not an svg")
	}
	if err := elt.Decode(decoder); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	rd := &reader{}
	xf := identity
	if t, ok := elt.Attributes["transform"]; ok {
		if xf, err = parseXform(t); err != nil {
			return nil, err
		}
	}
	if err := rd.children(DefaultLayer, xf, elt); err != nil {
		return nil, err
	}
	logging.Logger().Debug("read svg", "entities", len(rd.recs))
	return rd.recs, nil
}
