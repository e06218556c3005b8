package entity

import (
	"math"
	"testing"

	"github.com/paulhankin/dxfcam/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLine(t *testing.T) {
	got, err := Normalize(Record{Kind: KindLine, Start: paths.Vec2{1, 2}, End: paths.Vec2{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []paths.Primitive{paths.Line{Start: paths.Vec2{1, 2}, End: paths.Vec2{3, 4}}}, got)
}

func TestNormalizeArc(t *testing.T) {
	got, err := Normalize(Record{Kind: KindArc, Center: paths.Vec2{1, 1}, Radius: 2, StartAngle: 90, EndAngle: 180})
	require.NoError(t, err)
	require.Len(t, got, 1)
	arc, ok := got[0].(paths.Arc)
	require.True(t, ok, "got %T, want paths.Arc", got[0])
	assert.InDelta(t, math.Pi/2, arc.StartAngle, 1e-12)
	assert.InDelta(t, math.Pi, arc.EndAngle, 1e-12)
	assert.Equal(t, paths.CCW, arc.Dir)

	got, err = Normalize(Record{Kind: KindArc, Center: paths.Vec2{1, 1}, Radius: 2, StartAngle: 90, EndAngle: 180, Clockwise: true})
	require.NoError(t, err)
	assert.Equal(t, paths.CW, got[0].(paths.Arc).Dir)
}

func TestNormalizePolyline(t *testing.T) {
	square := []Vertex{
		{Point: paths.Vec2{0, 0}},
		{Point: paths.Vec2{10, 0}, Bulge: 0.5},
		{Point: paths.Vec2{10, 10}},
		{Point: paths.Vec2{0, 10}},
	}
	cases := []struct {
		desc     string
		rec      Record
		wantSegs int
	}{
		{"open", Record{Kind: KindLWPolyline, Vertices: square}, 3},
		{"closed", Record{Kind: KindLWPolyline, Vertices: square, Closed: true}, 4},
		{"closed with repeated first vertex", Record{Kind: KindPolyline, Vertices: append(append([]Vertex{}, square...), square[0]), Closed: true}, 4},
		{"duplicate vertex dropped", Record{Kind: KindPolyline, Vertices: []Vertex{square[0], square[1], square[1], square[2]}}, 2},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			got, err := Normalize(c.rec)
			require.NoError(t, err)
			pl := got[0].(paths.Polyline)
			assert.Len(t, pl.Segments, c.wantSegs)
			assert.Equal(t, c.rec.Closed, pl.Closed)
			for i := 1; i < len(pl.Segments); i++ {
				assert.Equal(t, pl.Segments[i-1].End, pl.Segments[i].Start, "segments %d and %d are not chained", i-1, i)
			}
		})
	}

	got, err := Normalize(Record{Kind: KindLWPolyline, Vertices: square, Closed: true})
	require.NoError(t, err)
	segs := got[0].(paths.Polyline).Segments
	assert.Equal(t, 0.5, segs[1].Bulge, "bulge belongs to the segment leaving its vertex")
	assert.Equal(t, paths.PolySegment{Start: paths.Vec2{0, 10}, End: paths.Vec2{0, 0}}, segs[3])
}

func TestNormalizeSpline(t *testing.T) {
	got, err := Normalize(Record{Kind: KindSpline, Degree: 3, Control: []paths.Vec2{{0, 0}, {1, 1}, {2, 0}, {3, 1}}})
	require.NoError(t, err)
	assert.Len(t, got[0].(paths.Spline).Control, 4)

	got, err = Normalize(Record{Kind: KindSpline, Fit: []paths.Vec2{{0, 0}, {1, 1}, {2, 0}}})
	require.NoError(t, err)
	s := got[0].(paths.Spline)
	assert.Empty(t, s.Control)
	assert.Len(t, s.Fit, 3)
}

func TestNormalizeEllipse(t *testing.T) {
	got, err := Normalize(Record{Kind: KindEllipse, Center: paths.Vec2{1, 1}, MajorAxis: paths.Vec2{4, 0}, Ratio: 0.5, EndParam: 2 * math.Pi})
	require.NoError(t, err)
	assert.Equal(t, paths.Ellipse{Center: paths.Vec2{1, 1}, Major: paths.Vec2{4, 0}, Ratio: 0.5, EndParam: 2 * math.Pi}, got[0])
}

func TestNormalizeUnsupported(t *testing.T) {
	for _, kind := range []string{"TEXT", "POINT", "INSERT", "HATCH", ""} {
		_, err := Normalize(Record{Kind: kind, Layer: "0"})
		assert.ErrorIs(t, err, ErrUnsupportedEntity, "kind %q", kind)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	cases := []struct {
		desc string
		rec  Record
	}{
		{"zero-length line", Record{Kind: KindLine, Start: paths.Vec2{1, 1}, End: paths.Vec2{1, 1}}},
		{"zero-radius circle", Record{Kind: KindCircle, Center: paths.Vec2{1, 1}}},
		{"negative-radius circle", Record{Kind: KindCircle, Radius: -1}},
		{"nan arc", Record{Kind: KindArc, Radius: 1, StartAngle: math.NaN()}},
		{"one-vertex polyline", Record{Kind: KindLWPolyline, Vertices: []Vertex{{Point: paths.Vec2{1, 1}}}}},
		{"polyline of one repeated point", Record{Kind: KindLWPolyline, Vertices: []Vertex{{Point: paths.Vec2{1, 1}}, {Point: paths.Vec2{1, 1}}}, Closed: true}},
		{"empty spline", Record{Kind: KindSpline, Degree: 3}},
		{"flat ellipse", Record{Kind: KindEllipse, MajorAxis: paths.Vec2{1, 0}}},
		{"pointless ellipse", Record{Kind: KindEllipse, Ratio: 1}},
	}
	for _, c := range cases {
		_, err := Normalize(c.rec)
		assert.ErrorIs(t, err, ErrDegenerateGeometry, c.desc)
	}
}

func TestFilterLayers(t *testing.T) {
	recs := []Record{{Kind: KindLine, Layer: "cut"}, {Kind: KindLine, Layer: "notes"}, {Kind: KindCircle, Layer: "cut"}}
	assert.Len(t, FilterLayers(recs, nil), 3)
	got := FilterLayers(recs, []string{"cut"})
	require.Len(t, got, 2)
	assert.Equal(t, KindCircle, got[1].Kind)
}
