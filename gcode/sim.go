package gcode

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/paulhankin/dxfcam/internal/logging"
	"github.com/paulhankin/dxfcam/paths"
)

// ErrNoActiveMotionMode is returned for coordinates given before any
// motion mode has been selected.
var ErrNoActiveMotionMode = errors.New("no active motion mode")

// DefaultArcStep is the default angle between samples along an arc.
const DefaultArcStep = 5 * math.Pi / 180

// SimConfig controls how motion is sampled.
type SimConfig struct {
	// ArcStep is the largest angle in radians between arc samples.
	// Zero means DefaultArcStep.
	ArcStep float64
}

func (c SimConfig) arcStep() float64 {
	if c.ArcStep <= 0 {
		return DefaultArcStep
	}
	return c.ArcStep
}

// Sample is a point the tool passes through. Cut is set for feed
// moves and clear for rapids.
type Sample struct {
	Point paths.Vec2
	Z     float64
	Mode  Mode
	Cut   bool
}

type machine struct {
	cfg      SimConfig
	mode     Mode
	relative bool
	pos      paths.Vec2
	z        float64
	samples  []Sample
}

func (m *machine) emit(p paths.Vec2, z float64) {
	m.samples = append(m.samples, Sample{Point: p, Z: z, Mode: m.mode, Cut: m.mode != Rapid})
}

func (m *machine) axis(b Block, letter rune, cur float64) (float64, bool) {
	v, ok := b.Get(letter)
	if !ok {
		return cur, false
	}
	if m.relative {
		return cur + v, true
	}
	return v, true
}

func (m *machine) block(b Block) error {
	for _, w := range b.Words {
		if w.Letter != 'G' {
			continue
		}
		switch w.Value {
		case 0:
			m.mode = Rapid
		case 1:
			m.mode = Linear
		case 2:
			m.mode = ArcCW
		case 3:
			m.mode = ArcCCW
		case 90:
			m.relative = false
		case 91:
			m.relative = true
		}
	}
	x, hasX := m.axis(b, 'X', m.pos[0])
	y, hasY := m.axis(b, 'Y', m.pos[1])
	z, hasZ := m.axis(b, 'Z', m.z)
	i, hasI := b.Get('I')
	j, hasJ := b.Get('J')
	if !hasX && !hasY && !hasZ && !hasI && !hasJ {
		return nil
	}
	if m.mode == ModeNone {
		return fmt.Errorf("line %d: %w", b.Line, ErrNoActiveMotionMode)
	}
	to := paths.Vec2{x, y}
	switch m.mode {
	case Rapid, Linear:
		if !hasX && !hasY && !hasZ {
			return nil
		}
		m.emit(to, z)
	case ArcCW, ArcCCW:
		if !hasX && !hasY && !hasI && !hasJ {
			// Only Z: a straight plunge or lift.
			m.emit(to, z)
			break
		}
		dir := paths.CCW
		if m.mode == ArcCW {
			dir = paths.CW
		}
		a, err := paths.ArcThrough(m.pos, to, m.pos.Add(paths.Vec2{i, j}), dir)
		if err != nil {
			logging.Logger().Warn("arc drawn as a line", "line", b.Line, "err", err)
			m.emit(to, z)
			break
		}
		pts := a.Sample(m.cfg.arcStep())
		z0 := m.z
		for k, p := range pts[1:] {
			m.emit(p, z0+(z-z0)*float64(k+1)/float64(len(pts)-1))
		}
	}
	m.pos, m.z = to, z
	return nil
}

// Simulate replays blocks and returns the points the tool moves through.
// The tool starts at the origin in absolute mode with no motion mode.
func Simulate(blocks []Block, cfg SimConfig) ([]Sample, error) {
	m := &machine{cfg: cfg}
	for _, b := range blocks {
		if err := m.block(b); err != nil {
			return nil, err
		}
	}
	return m.samples, nil
}

// ReadProgram parses and simulates a G-code program.
func ReadProgram(r io.Reader, cfg SimConfig) ([]Sample, error) {
	blocks, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Simulate(blocks, cfg)
}

// Preview draws the motion between consecutive samples. Moves that only
// change Z are left out.
func Preview(samples []Sample) *paths.Preview {
	pv := &paths.Preview{}
	for k := 1; k < len(samples); k++ {
		a, b := samples[k-1].Point, samples[k].Point
		if a == b {
			continue
		}
		pv.Segment(a, b, samples[k].Cut)
	}
	return pv
}
