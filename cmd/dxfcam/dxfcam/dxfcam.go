// Package dxfcam provides the functionality for the
// dxfcam binary as a library.
package dxfcam

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/paulhankin/dxfcam/config"
	"github.com/paulhankin/dxfcam/entity"
	"github.com/paulhankin/dxfcam/gcode"
	"github.com/paulhankin/dxfcam/internal/logging"
	"github.com/paulhankin/dxfcam/paths"
	"github.com/paulhankin/dxfcam/source/dxf"
	"github.com/paulhankin/dxfcam/source/svg"
	"gopkg.in/yaml.v2"
)

var (
	// ErrNoEntities is returned for a drawing without any entities.
	ErrNoEntities = errors.New("no entities in drawing")

	// ErrNoGeometry is returned when every entity was skipped.
	ErrNoGeometry = errors.New("no convertible geometry")

	// ErrUnknownFormat is returned for input files that are neither DXF nor SVG.
	ErrUnknownFormat = errors.New("unknown input format")
)

// ReadDrawing reads the entities of a drawing. The format is chosen by
// the extension of name.
func ReadDrawing(name string, r io.Reader) ([]entity.Record, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dxf":
		return dxf.Read(r)
	case ".svg":
		return svg.Read(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Warning is a problem with one entity that didn't stop the conversion.
// Index is the entity's position among those on the selected layers.
type Warning struct {
	Index int
	Kind  string
	Layer string
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("entity %d (%s on layer %q): %v", w.Index, w.Kind, w.Layer, w.Err)
}

// Stats counts what a conversion read and wrote.
type Stats struct {
	Entities   int            `yaml:"entities"`
	Kinds      map[string]int `yaml:"kinds"`
	Skipped    int            `yaml:"skipped"`
	Primitives int            `yaml:"primitives"`
	Contours   int            `yaml:"contours"`
	Cuts       int            `yaml:"cuts"`
	Travels    int            `yaml:"travels"`
	Lines      int            `yaml:"lines"`
	Bounds     paths.Bounds   `yaml:"bounds"`
}

// Result is the outcome of a conversion.
type Result struct {
	Program  *gcode.Program
	Path     paths.FlatPath
	Warnings []Warning
	Stats    Stats
}

// Convert turns drawing entities into a G-code program.
func Convert(recs []entity.Record, cfg config.Config) (*Result, error) {
	if len(recs) == 0 {
		return nil, ErrNoEntities
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.Logger()
	recs = entity.FilterLayers(recs, cfg.Layers)
	res := &Result{Stats: Stats{Entities: len(recs), Kinds: map[string]int{}}}
	warn := func(i int, rec entity.Record, err error) {
		w := Warning{Index: i, Kind: rec.Kind, Layer: rec.Layer, Err: err}
		res.Warnings = append(res.Warnings, w)
		log.Warn("entity", "index", i, "kind", rec.Kind, "layer", rec.Layer, "err", err)
	}

	b := paths.Builder{
		Transform: cfg.Transform(),
		Flattener: cfg.Flattener(),
		FitArcs:   cfg.ArcFitting,
	}
	var cs []paths.Contour
	for i, rec := range recs {
		res.Stats.Kinds[rec.Kind]++
		prims, err := entity.Normalize(rec)
		if err != nil {
			res.Stats.Skipped++
			warn(i, rec, err)
			continue
		}
		for _, p := range prims {
			c, ws := b.Contour(p)
			for _, w := range ws {
				warn(i, rec, w)
			}
			cs = append(cs, c)
		}
		res.Stats.Primitives += len(prims)
	}
	if res.Stats.Primitives == 0 {
		return nil, fmt.Errorf("%w: %d entities skipped", ErrNoGeometry, res.Stats.Skipped)
	}
	if cfg.OptimizeTravel {
		cs = paths.Order(cs, true)
	}
	res.Stats.Contours = len(cs)
	res.Path = paths.Chain(cs)

	prog, err := gcode.NewEmitter(cfg.Machine()).Emit(res.Path)
	if err != nil {
		return nil, err
	}
	res.Program = prog
	res.Stats.Cuts = res.Path.Cuts()
	res.Stats.Travels = len(res.Path.Elements) - res.Stats.Cuts
	res.Stats.Lines = prog.Len()
	res.Stats.Bounds = res.Path.Bounds()
	log.Info("converted", "entities", res.Stats.Entities, "contours", res.Stats.Contours, "warnings", len(res.Warnings))
	return res, nil
}

type warningReport struct {
	Index int    `yaml:"index"`
	Kind  string `yaml:"kind"`
	Layer string `yaml:"layer"`
	Error string `yaml:"error"`
}

type report struct {
	Stats    Stats           `yaml:"stats"`
	Warnings []warningReport `yaml:"warnings,omitempty"`
}

// WriteReport writes the statistics and warnings of a conversion as YAML.
func (r *Result) WriteReport(w io.Writer) error {
	rep := report{Stats: r.Stats}
	for _, wn := range r.Warnings {
		rep.Warnings = append(rep.Warnings, warningReport{wn.Index, wn.Kind, wn.Layer, wn.Err.Error()})
	}
	out, err := yaml.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Simulate reads a G-code program and returns the motion it describes.
func Simulate(r io.Reader, cfg config.Config) ([]gcode.Sample, error) {
	samples, err := gcode.ReadProgram(r, cfg.Sim())
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, gcode.ErrEmptyPath
	}
	return samples, nil
}

// WritePreview draws the motion as an SVG image.
func WritePreview(w io.Writer, samples []gcode.Sample, cfg config.Config) error {
	pv := gcode.Preview(samples)
	if cfg.PreviewSimplify > 0 {
		pv.Cut.Simplify(cfg.PreviewSimplify)
		pv.Travel.Simplify(cfg.PreviewSimplify)
	}
	if err := pv.SVG(w); err != nil {
		return fmt.Errorf("failed to write svg file: %w", err)
	}
	return nil
}
