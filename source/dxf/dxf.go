// Package dxf reads drawing entities from DXF files.
package dxf

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/paulhankin/dxfcam/entity"
	"github.com/paulhankin/dxfcam/internal/logging"
	"github.com/paulhankin/dxfcam/paths"
	"github.com/rpaloschi/dxf-go/core"
	dxf_document "github.com/rpaloschi/dxf-go/document"
	dxf_entities "github.com/rpaloschi/dxf-go/entities"
)

// dxf-go reports skipped entities and sections through a package logger.
var logMu sync.Mutex

func vec(p core.Point) paths.Vec2 {
	return paths.Vec2{p.X, p.Y}
}

func vecs(ps core.PointSlice) []paths.Vec2 {
	var out []paths.Vec2
	for _, p := range ps {
		out = append(out, vec(p))
	}
	return out
}

// Read parses a DXF stream and returns its model space entities in file
// order. Entities with no geometry of their own (POINT, TEXT, INSERT) are
// returned too, so callers can report them as unsupported.
func Read(r io.Reader) ([]entity.Record, error) {
	doc, err := parse(r)
	if err != nil {
		return nil, err
	}
	if doc.Entities == nil {
		return nil, nil
	}
	var recs []entity.Record
	for _, e := range doc.Entities.Entities {
		recs = append(recs, record(e))
	}
	logging.Logger().Debug("read dxf", "entities", len(recs))
	return recs, nil
}

// parse runs the dxf-go parser with its log redirected. dxf-go indexes
// into slices sized by counts read from the file, so a malformed file can
// panic; that is reported as an error.
func parse(r io.Reader) (doc *dxf_document.DxfDocument, err error) {
	logMu.Lock()
	saved := core.Log
	core.Log = slog.NewLogLogger(logging.Logger().Handler(), slog.LevelDebug)
	defer func() {
		core.Log = saved
		logMu.Unlock()
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("malformed dxf: %v", p)
		}
	}()
	doc, err = dxf_document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dxf: %w", err)
	}
	return doc, nil
}

// mirrored reports whether an entity's object coordinate system has its
// normal pointing down, which mirrors the x axis.
func mirrored(extrusion core.Point) bool {
	return extrusion.Z < 0
}

func record(e dxf_entities.Entity) entity.Record {
	switch e := e.(type) {
	case *dxf_entities.Line:
		return entity.Record{Kind: entity.KindLine, Layer: e.LayerName, Start: vec(e.Start), End: vec(e.End)}
	case *dxf_entities.Circle:
		c := vec(e.Center)
		if mirrored(e.ExtrusionDirection) {
			c[0] = -c[0]
		}
		return entity.Record{Kind: entity.KindCircle, Layer: e.LayerName, Center: c, Radius: e.Radius}
	case *dxf_entities.Arc:
		rec := entity.Record{
			Kind:       entity.KindArc,
			Layer:      e.LayerName,
			Center:     vec(e.Center),
			Radius:     e.Radius,
			StartAngle: e.StartAngle,
			EndAngle:   e.EndAngle,
		}
		if mirrored(e.ExtrusionDirection) {
			rec.Center[0] = -rec.Center[0]
			rec.StartAngle = 180 - e.StartAngle
			rec.EndAngle = 180 - e.EndAngle
			rec.Clockwise = true
		}
		return rec
	case *dxf_entities.LWPolyline:
		rec := entity.Record{Kind: entity.KindLWPolyline, Layer: e.LayerName, Closed: e.Closed}
		flip := mirrored(e.ExtrusionDirection)
		for _, p := range e.Points {
			v := entity.Vertex{Point: vec(p.Point), Bulge: p.Bulge}
			if flip {
				v.Point[0] = -v.Point[0]
				v.Bulge = -v.Bulge
			}
			rec.Vertices = append(rec.Vertices, v)
		}
		return rec
	case *dxf_entities.Polyline:
		rec := entity.Record{Kind: entity.KindPolyline, Layer: e.LayerName, Closed: e.Closed}
		flip := mirrored(e.ExtrusionDirection)
		for _, pv := range e.Vertices {
			v := entity.Vertex{Point: vec(pv.Location), Bulge: pv.Bulge}
			if flip {
				v.Point[0] = -v.Point[0]
				v.Bulge = -v.Bulge
			}
			rec.Vertices = append(rec.Vertices, v)
		}
		return rec
	case *dxf_entities.Spline:
		rec := entity.Record{
			Kind:    entity.KindSpline,
			Layer:   e.LayerName,
			Closed:  e.Closed || e.Periodic,
			Degree:  e.Degree,
			Knots:   e.KnotValues,
			Control: vecs(e.ControlPoints),
			Fit:     vecs(e.FitPoints),
		}
		if e.Rational {
			rec.Weights = e.Weights
		}
		return rec
	case *dxf_entities.Ellipse:
		return entity.Record{
			Kind:       entity.KindEllipse,
			Layer:      e.LayerName,
			Center:     vec(e.Center),
			MajorAxis:  vec(e.MajorAxisEnd),
			Ratio:      e.MinorToMajorAxisRatio,
			StartParam: e.StartParameter,
			EndParam:   e.EndParameter,
		}
	case *dxf_entities.Point:
		return entity.Record{Kind: "POINT", Layer: e.LayerName}
	case *dxf_entities.Text:
		return entity.Record{Kind: "TEXT", Layer: e.LayerName}
	case *dxf_entities.Insert:
		return entity.Record{Kind: "INSERT", Layer: e.LayerName}
	}
	return entity.Record{Kind: fmt.Sprintf("%T", e)}
}
