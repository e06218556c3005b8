package gcode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulhankin/dxfcam/internal/logging"
	"github.com/paulhankin/dxfcam/paths"
)

var (
	// ErrEmptyPath is returned when there is nothing to cut.
	ErrEmptyPath = errors.New("empty path")

	// ErrNoPosition is returned for a cut issued before the tool has
	// been moved anywhere.
	ErrNoPosition = errors.New("cut from unknown position")
)

// Mode is the active motion mode.
type Mode int

const (
	ModeNone Mode = iota
	Rapid         // G0
	Linear        // G1
	ArcCW         // G2
	ArcCCW        // G3
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case Rapid:
		return "rapid"
	case Linear:
		return "linear"
	case ArcCW:
		return "arc-cw"
	case ArcCCW:
		return "arc-ccw"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Word returns the G word that selects the mode.
func (m Mode) Word() string {
	switch m {
	case Rapid:
		return "G0"
	case Linear:
		return "G1"
	case ArcCW:
		return "G2"
	case ArcCCW:
		return "G3"
	}
	return ""
}

// ArcMode returns the motion mode of an arc in the given direction.
func ArcMode(d paths.Direction) Mode {
	if d == paths.CW {
		return ArcCW
	}
	return ArcCCW
}

// Config holds the machine settings used when emitting a program.
type Config struct {
	FeedRate   float64 // XY cutting feed
	PlungeRate float64 // Z plunge feed
	Tool       int
	CutZ       float64
	SafeZ      float64
	// Precision is the number of decimals written for coordinates.
	Precision int
	// Start, if set, is visited at the safe height before the first cut.
	Start *paths.Vec2
	// End, if set, is visited after the spindle stops. Otherwise
	// ReturnHome adds a rapid to X0 Y0 at the end of the program.
	End        *paths.Vec2
	ReturnHome bool
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		FeedRate:   300,
		PlungeRate: 100,
		Tool:       1,
		CutZ:       -0.3,
		SafeZ:      5,
		Precision:  3,
	}
}

// ToolState is the machine state as known from the lines emitted so far.
type ToolState struct {
	Pos  paths.Vec2
	Z    float64
	Feed float64
	Mode Mode
	Tool int

	hasXY, hasZ, hasFeed bool
}

// Emitter writes a toolpath as a G-code program. Each value is written
// only when it differs from the value already in effect.
type Emitter struct {
	cfg     Config
	st      ToolState
	prog    Program
	started bool
}

// NewEmitter returns an emitter for a single program.
func NewEmitter(cfg Config) *Emitter {
	return &Emitter{cfg: cfg}
}

// State returns the current machine state.
func (e *Emitter) State() ToolState {
	return e.st
}

// num formats a value, dropping trailing zeros.
func (e *Emitter) num(f float64) string {
	x := strconv.FormatFloat(f, 'f', e.cfg.Precision, 64)
	if strings.IndexByte(x, '.') != -1 {
		x = strings.TrimRight(x, "0")
		x = strings.TrimSuffix(x, ".")
	}
	if x == "-0" {
		x = "0"
	}
	return x
}

// motion is one line's worth of changes. Nil fields are left alone.
type motion struct {
	mode Mode
	to   *paths.Vec2
	z    *float64
	ij   *paths.Vec2
	feed *float64
}

func (e *Emitter) move(m motion) {
	var axes, words []string
	st := &e.st
	if m.to != nil {
		if !st.hasXY || e.num(m.to[0]) != e.num(st.Pos[0]) {
			axes = append(axes, "X"+e.num(m.to[0]))
		}
		if !st.hasXY || e.num(m.to[1]) != e.num(st.Pos[1]) {
			axes = append(axes, "Y"+e.num(m.to[1]))
		}
	}
	if m.z != nil && (!st.hasZ || e.num(*m.z) != e.num(st.Z)) {
		axes = append(axes, "Z"+e.num(*m.z))
	}
	if m.ij != nil {
		axes = append(axes, "I"+e.num(m.ij[0]), "J"+e.num(m.ij[1]))
	}
	if len(axes) == 0 {
		return
	}
	if m.mode != st.Mode {
		words = append(words, m.mode.Word())
		st.Mode = m.mode
	}
	words = append(words, axes...)
	if m.feed != nil && (!st.hasFeed || e.num(*m.feed) != e.num(st.Feed)) {
		words = append(words, "F"+e.num(*m.feed))
		st.Feed, st.hasFeed = *m.feed, true
	}
	if m.to != nil {
		st.Pos, st.hasXY = *m.to, true
	}
	if m.z != nil {
		st.Z, st.hasZ = *m.z, true
	}
	e.prog.put(strings.Join(words, " "))
}

// Preamble writes the program header: absolute coordinates, tool
// selection and spindle on, then the move to the start point if one is
// configured. It is written at most once.
func (e *Emitter) Preamble() {
	if e.started {
		return
	}
	e.started = true
	e.prog.put("(dxfcam)")
	e.prog.put("G90")
	e.prog.put(fmt.Sprintf("T%d", e.cfg.Tool))
	e.st.Tool = e.cfg.Tool
	e.prog.put("M3")
	if e.cfg.Start != nil {
		e.lift()
		e.move(motion{mode: Rapid, to: e.cfg.Start})
	}
}

func (e *Emitter) lift() {
	z := e.cfg.SafeZ
	e.move(motion{mode: Rapid, z: &z})
}

// Travel lifts the tool to the safe height and moves to p without cutting.
func (e *Emitter) Travel(p paths.Vec2) {
	e.Preamble()
	e.lift()
	e.move(motion{mode: Rapid, to: &p})
}

// plunge lowers the tool to cutting depth if it isn't there already.
func (e *Emitter) plunge() error {
	if !e.st.hasXY {
		return ErrNoPosition
	}
	if e.st.hasZ && e.num(e.st.Z) == e.num(e.cfg.CutZ) {
		return nil
	}
	z, f := e.cfg.CutZ, e.cfg.PlungeRate
	e.move(motion{mode: Linear, z: &z, feed: &f})
	return nil
}

// Line cuts a straight line to p.
func (e *Emitter) Line(p paths.Vec2) error {
	if err := e.plunge(); err != nil {
		return err
	}
	f := e.cfg.FeedRate
	e.move(motion{mode: Linear, to: &p, feed: &f})
	return nil
}

// Arc cuts an arc to p around center. An arc that ends where it starts
// is a full circle.
//
// An arc line without X and Y is read back as a full circle, so an arc
// whose end can't be told apart from its start at the output precision
// is written as a full circle only if it sweeps at least half a turn.
// Shorter ones, and arcs whose radius rounds to zero, are cut as lines.
func (e *Emitter) Arc(p, center paths.Vec2, dir paths.Direction) error {
	if err := e.plunge(); err != nil {
		return err
	}
	ij := center.Sub(e.st.Pos)
	if e.same(ij, paths.Vec2{}) {
		return e.Line(p)
	}
	if e.same(p, e.st.Pos) {
		a, err := paths.ArcThrough(e.st.Pos, p, center, dir)
		if err != nil || a.Sweep < math.Pi {
			return e.Line(p)
		}
	}
	f := e.cfg.FeedRate
	e.move(motion{mode: ArcMode(dir), to: &p, ij: &ij, feed: &f})
	return nil
}

// same reports whether a and b are written identically.
func (e *Emitter) same(a, b paths.Vec2) bool {
	return e.num(a[0]) == e.num(b[0]) && e.num(a[1]) == e.num(b[1])
}

// Postamble lifts the tool, stops the spindle and then moves to the end
// point or home if configured.
func (e *Emitter) Postamble() {
	e.Preamble()
	e.lift()
	e.prog.put("M5")
	switch {
	case e.cfg.End != nil:
		e.move(motion{mode: Rapid, to: e.cfg.End})
	case e.cfg.ReturnHome:
		e.move(motion{mode: Rapid, to: &paths.Vec2{}})
	}
}

// Program returns the program written so far.
func (e *Emitter) Program() *Program {
	return &Program{lines: e.prog.Lines()}
}

// Emit writes a whole toolpath as a complete program.
func (e *Emitter) Emit(fp paths.FlatPath) (*Program, error) {
	if fp.Cuts() == 0 {
		return nil, ErrEmptyPath
	}
	e.Preamble()
	for i, el := range fp.Elements {
		var err error
		switch el.Kind {
		case paths.Travel:
			e.Travel(el.To)
		case paths.LinearCut:
			err = e.Line(el.To)
		case paths.ArcCut:
			err = e.Arc(el.To, el.Center, el.Dir)
		default:
			err = fmt.Errorf("unknown element kind %v", el.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	e.Postamble()
	logging.Logger().Debug("emitted program", "lines", e.prog.Len(), "elements", len(fp.Elements))
	return e.Program(), nil
}
