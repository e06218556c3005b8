package paths

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestBuilderLine(t *testing.T) {
	b := Builder{Transform: Transform{OffsetX: 5, Scale: 1}}
	c, warnings := b.Contour(Line{Start: Vec2{0, 0}, End: Vec2{10, 0}})
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %v", warnings)
	}
	want := Contour{Start: Vec2{5, 0}, Cuts: []Element{{Kind: LinearCut, To: Vec2{15, 0}}}}
	if !reflect.DeepEqual(c, want) {
		t.Errorf("Contour(line) = %+v, want %+v", c, want)
	}
}

func TestBuilderCircleIsOneArc(t *testing.T) {
	b := Builder{Transform: Identity}
	c, _ := b.Contour(Circle{Center: Vec2{0, 0}, Radius: 5})
	if len(c.Cuts) != 1 {
		t.Fatalf("Contour(circle) has %d cuts, want 1: %+v", len(c.Cuts), c)
	}
	e := c.Cuts[0]
	if e.Kind != ArcCut || e.To != c.Start || e.Center != (Vec2{0, 0}) || e.Dir != CCW {
		t.Errorf("Contour(circle) = %+v, want a full ccw arc around the origin", c)
	}
	if c.Start != (Vec2{5, 0}) {
		t.Errorf("circle starts at %v, want (5,0)", c.Start)
	}
}

func TestBuilderFlipReversesArcs(t *testing.T) {
	b := Builder{Transform: Transform{Scale: 2, FlipY: true}}
	c, _ := b.Contour(Arc{Center: Vec2{1, 1}, Radius: 1, StartAngle: 0, EndAngle: math.Pi / 2})
	e := c.Cuts[0]
	if e.Dir != CW {
		t.Errorf("flipped ccw arc has direction %v, want CW", e.Dir)
	}
	if !e.Center.Near(Vec2{2, -2}, 1e-9) || !c.Start.Near(Vec2{4, -2}, 1e-9) || !e.To.Near(Vec2{2, -4}, 1e-9) {
		t.Errorf("flipped arc = start %v %+v", c.Start, e)
	}
}

func TestBuilderPolylineBulge(t *testing.T) {
	pl := Polyline{
		Segments: []PolySegment{
			{Start: Vec2{0, 0}, End: Vec2{10, 0}},
			{Start: Vec2{10, 0}, End: Vec2{10, 10}, Bulge: 1},
			{Start: Vec2{10, 10}, End: Vec2{0, 0}},
		},
		Closed: true,
	}
	c, warnings := Builder{Transform: Identity}.Contour(pl)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %v", warnings)
	}
	kinds := []ElementKind{}
	for _, e := range c.Cuts {
		kinds = append(kinds, e.Kind)
	}
	if want := []ElementKind{LinearCut, ArcCut, LinearCut}; !reflect.DeepEqual(kinds, want) {
		t.Fatalf("polyline cut kinds = %v, want %v", kinds, want)
	}
	if arc := c.Cuts[1]; !arc.Center.Near(Vec2{10, 5}, 1e-9) || arc.Dir != CCW {
		t.Errorf("bulge cut = %+v, want ccw around (10,5)", arc)
	}
}

func TestBuilderDegenerateBulgeFallsBack(t *testing.T) {
	pl := Polyline{Segments: []PolySegment{
		{Start: Vec2{0, 0}, End: Vec2{1, 0}, Bulge: math.NaN()},
	}}
	c, warnings := Builder{Transform: Identity}.Contour(pl)
	if len(warnings) != 1 || !errors.Is(warnings[0], ErrDegenerateArc) {
		t.Fatalf("warnings = %v, want one ErrDegenerateArc", warnings)
	}
	want := []Element{{Kind: LinearCut, To: Vec2{1, 0}}}
	if !reflect.DeepEqual(c.Cuts, want) {
		t.Errorf("fallback cuts = %+v, want %+v", c.Cuts, want)
	}
}

func TestBuilderFlattenWarning(t *testing.T) {
	b := Builder{Transform: Identity, Flattener: Flattener{Tolerance: 1e-12, MaxDepth: 1}}
	_, warnings := b.Contour(Ellipse{Major: Vec2{5, 0}, Ratio: 0.5, EndParam: 2 * math.Pi})
	if len(warnings) != 1 || !errors.Is(warnings[0], ErrFlatteningDepthExceeded) {
		t.Errorf("warnings = %v, want one ErrFlatteningDepthExceeded", warnings)
	}
}

func TestContourReversed(t *testing.T) {
	c := Contour{
		Start: Vec2{0, 0},
		Cuts: []Element{
			{Kind: LinearCut, To: Vec2{1, 0}},
			{Kind: ArcCut, To: Vec2{1, 2}, Center: Vec2{1, 1}, Dir: CCW},
		},
	}
	want := Contour{
		Start: Vec2{1, 2},
		Cuts: []Element{
			{Kind: ArcCut, To: Vec2{1, 0}, Center: Vec2{1, 1}, Dir: CW},
			{Kind: LinearCut, To: Vec2{0, 0}},
		},
	}
	if got := c.Reversed(); !reflect.DeepEqual(got, want) {
		t.Errorf("%+v.Reversed() = %+v, want %+v", c, got, want)
	}
}

func TestChain(t *testing.T) {
	line := func(a, b Vec2) Contour {
		return Contour{Start: a, Cuts: []Element{{Kind: LinearCut, To: b}}}
	}
	cs := []Contour{
		line(Vec2{0, 0}, Vec2{1, 0}),
		line(Vec2{1, 0}, Vec2{1, 1}),
		{Start: Vec2{9, 9}},
		line(Vec2{5, 5}, Vec2{6, 6}),
	}
	fp := Chain(cs)
	want := []Element{
		{Kind: Travel, To: Vec2{0, 0}},
		{Kind: LinearCut, To: Vec2{1, 0}},
		{Kind: LinearCut, To: Vec2{1, 1}},
		{Kind: Travel, To: Vec2{5, 5}},
		{Kind: LinearCut, To: Vec2{6, 6}},
	}
	if !reflect.DeepEqual(fp.Elements, want) {
		t.Errorf("Chain() = %+v, want %+v", fp.Elements, want)
	}
	if got := fp.Cuts(); got != 3 {
		t.Errorf("Cuts() = %d, want 3", got)
	}
	if got, want := fp.Bounds(), (Bounds{Min: Vec2{0, 0}, Max: Vec2{6, 6}}); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestChainJoinTolerance(t *testing.T) {
	line := func(a, b Vec2) Contour {
		return Contour{Start: a, Cuts: []Element{{Kind: LinearCut, To: b}}}
	}
	// A gap of 3µm far from the origin needs a travel; a gap of 1e-8
	// at the origin doesn't.
	fp := Chain([]Contour{
		line(Vec2{1000, 0}, Vec2{2000, 0}),
		line(Vec2{2000.003, 0}, Vec2{2000.003, 10}),
		line(Vec2{2000.003, 10}, Vec2{0, 0}),
		line(Vec2{1e-8, 0}, Vec2{0, 5}),
	})
	want := []ElementKind{Travel, LinearCut, Travel, LinearCut, LinearCut, LinearCut}
	var got []ElementKind
	for _, e := range fp.Elements {
		got = append(got, e.Kind)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chain() kinds = %v, want %v", got, want)
	}
}
