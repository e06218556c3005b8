package svg

import (
	"fmt"
	"text/scanner"
	"unicode"

	"github.com/paulhankin/dxfcam/entity"
	"github.com/paulhankin/dxfcam/paths"
)

// pathToken is either a command letter or a number.
type pathToken struct {
	cmd rune
	num float64
}

func tokenizePath(d string) ([]pathToken, error) {
	s := newScanner(d, true)
	var toks []pathToken
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		if tok == ',' {
			continue
		}
		if tok == scanner.Ident {
			toks = append(toks, pathToken{cmd: []rune(s.TokenText())[0]})
			continue
		}
		f, ok := scanNumber(s, tok)
		if !ok {
			return nil, fmt.Errorf("unexpected %q in path data", s.TokenText())
		}
		toks = append(toks, pathToken{num: f})
	}
	return toks, nil
}

// bezierKnots are the clamped knot vectors that make a B-spline of each
// degree with degree+1 control points a Bézier curve.
var bezierKnots = map[int][]float64{
	2: {0, 0, 0, 1, 1, 1},
	3: {0, 0, 0, 0, 1, 1, 1, 1},
}

// pathBuilder turns path data into records. Runs of straight segments
// become one polyline; each curve segment becomes a spline.
type pathBuilder struct {
	r     *reader
	layer string
	xf    *xform

	start, cur paths.Vec2
	run        []paths.Vec2
	// curved is set once the current subpath contains a curve.
	curved bool
	// ctrl is the last control point of the previous curve, for S and T.
	ctrl    paths.Vec2
	lastCmd rune
}

func (pb *pathBuilder) flush(closed bool) {
	if len(pb.run) >= 2 {
		pb.r.polyline(pb.layer, pb.xf, pb.run, closed)
	}
	pb.run = nil
}

func (pb *pathBuilder) moveTo(p paths.Vec2) {
	pb.flush(false)
	pb.start, pb.cur = p, p
	pb.curved = false
}

func (pb *pathBuilder) lineTo(p paths.Vec2) {
	if len(pb.run) == 0 {
		pb.run = []paths.Vec2{pb.cur}
	}
	pb.run = append(pb.run, p)
	pb.cur = p
}

func (pb *pathBuilder) curveTo(ctrl ...paths.Vec2) {
	pb.flush(false)
	pts := append([]paths.Vec2{pb.cur}, ctrl...)
	rec := entity.Record{
		Kind:   entity.KindSpline,
		Layer:  pb.layer,
		Degree: len(ctrl),
		Knots:  append([]float64(nil), bezierKnots[len(ctrl)]...),
	}
	for _, p := range pts {
		rec.Control = append(rec.Control, pb.xf.Apply(p))
	}
	pb.r.add(rec)
	pb.ctrl = pts[len(pts)-2]
	pb.cur = pts[len(pts)-1]
	pb.curved = true
}

func (pb *pathBuilder) close() {
	if !pb.curved && len(pb.run) >= 3 {
		pb.flush(true)
	} else {
		if pb.cur != pb.start {
			pb.lineTo(pb.start)
		}
		pb.flush(false)
	}
	pb.cur = pb.start
	pb.curved = false
}

// reflected is the control point implied by a smooth curve command.
func (pb *pathBuilder) reflected(curve rune) paths.Vec2 {
	if unicode.ToUpper(pb.lastCmd) != curve {
		return pb.cur
	}
	return pb.cur.Add(pb.cur.Sub(pb.ctrl))
}

// argCount is the number of parameters each command takes.
var argCount = map[rune]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'Z': 0,
}

func (pb *pathBuilder) parse(d string) error {
	toks, err := tokenizePath(d)
	if err != nil {
		return err
	}
	var cmd rune
	for i := 0; i < len(toks); {
		if toks[i].cmd != 0 {
			cmd = toks[i].cmd
			i++
		} else if cmd == 0 {
			return fmt.Errorf("number %v in path data has no command", toks[i].num)
		}
		upper := unicode.ToUpper(cmd)
		n, ok := argCount[upper]
		if !ok {
			return fmt.Errorf("unsupported path command %q", cmd)
		}
		if i+n > len(toks) {
			return fmt.Errorf("path command %q needs %d parameters", cmd, n)
		}
		var args []float64
		for _, t := range toks[i : i+n] {
			if t.cmd != 0 {
				return fmt.Errorf("path command %q needs %d parameters", cmd, n)
			}
			args = append(args, t.num)
		}
		i += n

		var base paths.Vec2
		if unicode.IsLower(cmd) {
			base = pb.cur
		}
		pt := func(j int) paths.Vec2 {
			return base.Add(paths.Vec2{args[j], args[j+1]})
		}
		switch upper {
		case 'M':
			pb.moveTo(pt(0))
			// Further coordinate pairs are implicit line commands.
			if cmd == 'M' {
				cmd = 'L'
			} else {
				cmd = 'l'
			}
		case 'L':
			pb.lineTo(pt(0))
		case 'H':
			pb.lineTo(paths.Vec2{base[0] + args[0], pb.cur[1]})
		case 'V':
			pb.lineTo(paths.Vec2{pb.cur[0], base[1] + args[0]})
		case 'C':
			pb.curveTo(pt(0), pt(2), pt(4))
		case 'S':
			pb.curveTo(pb.reflected('C'), pt(0), pt(2))
		case 'Q':
			pb.curveTo(pt(0), pt(2))
		case 'T':
			pb.curveTo(pb.reflected('Q'), pt(0))
		case 'Z':
			pb.close()
			// A number after Z has no command to belong to.
			cmd = 0
		}
		// S and T reflect only across a previous curve of the same kind.
		switch upper {
		case 'S':
			pb.lastCmd = 'C'
		case 'T':
			pb.lastCmd = 'Q'
		default:
			pb.lastCmd = upper
		}
	}
	pb.flush(false)
	return nil
}
