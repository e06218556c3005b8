package dxf

import (
	"fmt"
	"strings"
	"testing"

	"github.com/paulhankin/dxfcam/entity"
	"github.com/paulhankin/dxfcam/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dxfText builds a DXF file whose ENTITIES section holds the given
// group code and value pairs.
func dxfText(pairs ...interface{}) string {
	var sb strings.Builder
	w := func(code int, v interface{}) { fmt.Fprintf(&sb, "%3d\n%v\n", code, v) }
	w(0, "SECTION")
	w(2, "ENTITIES")
	for i := 0; i+1 < len(pairs); i += 2 {
		w(pairs[i].(int), pairs[i+1])
	}
	w(0, "ENDSEC")
	w(0, "EOF")
	return sb.String()
}

func TestRead(t *testing.T) {
	src := dxfText(
		0, "LINE", 8, "cut", 10, 0.0, 20, 0.0, 11, 10.0, 21, 0.0,
		0, "LWPOLYLINE", 8, "0", 90, 3, 70, 1,
		10, 0.0, 20, 0.0, 42, 1.0,
		10, 10.0, 20, 0.0,
		10, 10.0, 20, 10.0,
		0, "CIRCLE", 8, "0", 10, 5.0, 20, 5.0, 40, 2.5,
		0, "TEXT", 8, "notes", 10, 0.0, 20, 0.0, 1, "hello",
	)
	recs, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, entity.Record{Kind: entity.KindLine, Layer: "cut", End: paths.Vec2{10, 0}}, recs[0])

	pl := recs[1]
	assert.Equal(t, entity.KindLWPolyline, pl.Kind)
	assert.True(t, pl.Closed)
	require.Len(t, pl.Vertices, 3)
	assert.Equal(t, 1.0, pl.Vertices[0].Bulge)
	assert.Equal(t, paths.Vec2{10, 10}, pl.Vertices[2].Point)

	assert.Equal(t, entity.KindCircle, recs[2].Kind)
	assert.Equal(t, paths.Vec2{5, 5}, recs[2].Center)
	assert.Equal(t, 2.5, recs[2].Radius)

	assert.Equal(t, "TEXT", recs[3].Kind)
	assert.Equal(t, "notes", recs[3].Layer)
	_, err = entity.Normalize(recs[3])
	assert.ErrorIs(t, err, entity.ErrUnsupportedEntity)
}

func TestReadMirroredArc(t *testing.T) {
	src := dxfText(
		0, "ARC", 8, "0", 10, 3.0, 20, 1.0, 40, 2.0, 50, 0.0, 51, 90.0, 210, 0.0, 220, 0.0, 230, -1.0,
		0, "LWPOLYLINE", 8, "0", 90, 2, 230, -1.0,
		10, 1.0, 20, 0.0, 42, 0.5,
		10, 2.0, 20, 0.0,
	)
	recs, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	arc := recs[0]
	assert.Equal(t, paths.Vec2{-3, 1}, arc.Center)
	assert.Equal(t, 180.0, arc.StartAngle)
	assert.Equal(t, 90.0, arc.EndAngle)
	assert.True(t, arc.Clockwise)

	pl := recs[1]
	assert.Equal(t, paths.Vec2{-1, 0}, pl.Vertices[0].Point)
	assert.Equal(t, -0.5, pl.Vertices[0].Bulge)
}

func TestReadEmpty(t *testing.T) {
	recs, err := Read(strings.NewReader(dxfText()))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReadMalformed(t *testing.T) {
	// More vertices than the declared count.
	src := dxfText(0, "LWPOLYLINE", 8, "0", 90, 1, 10, 0.0, 20, 0.0, 10, 1.0, 20, 1.0)
	_, err := Read(strings.NewReader(src))
	assert.Error(t, err)
}
