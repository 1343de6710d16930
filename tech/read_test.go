package tech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoleSir/reda-lef/lef"
)

// sampleTech is a trimmed two-metal stack exercising every construct the
// reader models.
const sampleTech = `VERSION 5.7 ;
BUSBITCHARS "[]" ;
DIVIDERCHAR "/" ;

UNITS
  TIME NANOSECONDS 1 ;
  CAPACITANCE PICOFARADS 1 ;
  RESISTANCE OHMS 1 ;
  DATABASE MICRONS 2000 ;
END UNITS

MANUFACTURINGGRID 0.005 ;
CLEARANCEMEASURE MAXXY ;
USEMINSPACING OBS ON ;

LAYER poly
  TYPE MASTERSLICE ;
END poly

LAYER contact
  TYPE CUT ;
  WIDTH 0.08 ;
  SPACING 0.09 ;
  ENCLOSURE BELOW 0.01 0.01 ;
END contact

LAYER Metal1
  TYPE ROUTING ;
  DIRECTION HORIZONTAL ;
  PITCH 0.2 ;
  WIDTH 0.065 ;
  MINWIDTH 0.06 ;
  AREA 0.017 ;
  SPACING 0.065 ;
  SPACING 0.09 RANGE 0.1 9999.0 ;
  RESISTANCE RPERSQ 0.38 ;
  THICKNESS 0.13 ;
END Metal1

LAYER via12
  TYPE CUT ;
  WIDTH 0.07 ;
  SPACING 0.08 CENTERTOCENTER ;
  ENCLOSURE ABOVE 0.0 0.035 ;
END via12

LAYER Metal2
  TYPE ROUTING ;
  DIRECTION VERTICAL ;
  PITCH 0.2 0.21 ;
  OFFSET 0.1 ;
  WIDTH 0.07 ;
  SPACINGTABLE
    PARALLELRUNLENGTH 0.0 0.3 1.0
    WIDTH 0.0  0.07 0.07 0.07
    WIDTH 0.25 0.07 0.10 0.10
    WIDTH 0.75 0.07 0.10 0.20 ;
  MAXWIDTH 12.0 ;
END Metal2

MAXVIASTACK 4 RANGE Metal1 Metal2 ;

VIA M1_M2 DEFAULT
  RESISTANCE 4.5 ;
  LAYER Metal1 ;
    RECT -0.0675 -0.0675 0.0675 0.0675 ;
  LAYER via12 ;
    RECT -0.035 -0.035 0.035 0.035 ;
  LAYER Metal2 ;
    RECT -0.0675 -0.0675 0.0675 0.0675 ;
END M1_M2

VIARULE M1_M2_GEN GENERATE DEFAULT
  LAYER Metal1 ;
    ENCLOSURE 0.035 0.01 ;
    WIDTH 0.065 TO 12.0 ;
  LAYER Metal2 ;
    ENCLOSURE 0.035 0.01 ;
    WIDTH 0.07 TO 12.0 ;
  LAYER via12 ;
    RECT -0.035 -0.035 0.035 0.035 ;
    SPACING 0.15 BY 0.15 ;
    RESISTANCE 4.5 ;
END M1_M2_GEN

SITE CoreSite
  CLASS CORE ;
  SYMMETRY Y ;
  SIZE 0.2 BY 1.8 ;
END CoreSite

END LIBRARY
`

func readSample(t *testing.T, opts ...Option) *Result {
	t.Helper()
	res, err := Read(context.Background(), strings.NewReader(sampleTech), opts...)
	require.NoError(t, err)
	require.NotNil(t, res.Tech)
	return res
}

func TestReadSampleHeader(t *testing.T) {
	res := readSample(t)
	assert.Empty(t, res.Errors)
	// the MASTERSLICE layer is the only thing worth a warning
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, lef.RuleUnsupportedConstruct, res.Warnings[0].Rule)

	tech := res.Tech
	assert.Equal(t, 5.7, tech.Version())
	lb, rb := tech.BusBitChars()
	assert.Equal(t, '[', lb)
	assert.Equal(t, ']', rb)
	assert.Equal(t, '/', tech.DividerChar())
	assert.Equal(t, ClearanceMaxXY, tech.ClearanceMeasure())

	grid, ok := tech.ManufacturingGrid()
	require.True(t, ok)
	assert.Equal(t, 0.005, grid)

	stack := tech.MaxViaStack()
	require.NotNil(t, stack)
	assert.Equal(t, 4, stack.Count)
	assert.Equal(t, "Metal1", stack.Bottom)
	assert.Equal(t, "Metal2", stack.Top)

	units := tech.Units()
	require.NotNil(t, units)
	require.NotNil(t, units.Database)
	assert.Equal(t, 2000.0, *units.Database)
	require.NotNil(t, units.Time)
	assert.Equal(t, 1.0, *units.Time)
	assert.Nil(t, units.Frequency)
	assert.Nil(t, units.Voltage)
}

func TestReadSampleLayers(t *testing.T) {
	tech := readSample(t).Tech

	layers := tech.Layers()
	require.Len(t, layers, 5)
	var names []string
	for _, l := range layers {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"poly", "contact", "Metal1", "via12", "Metal2"}, names)
	assert.Equal(t, LayerMasterSlice, layers[0].Kind())

	l, err := tech.Layer("Metal1")
	require.NoError(t, err)
	m1, ok := l.(*RoutingLayer)
	require.True(t, ok)
	assert.Equal(t, LayerRouting, m1.Kind())
	assert.Equal(t, DirectionHorizontal, m1.Direction)
	require.NotNil(t, m1.Pitch)
	assert.Equal(t, XY{X: 0.2, Y: 0.2}, *m1.Pitch) // one value sets both axes
	require.NotNil(t, m1.Width)
	assert.Equal(t, 0.065, *m1.Width)
	require.NotNil(t, m1.MinWidth)
	assert.Equal(t, 0.06, *m1.MinWidth)
	require.NotNil(t, m1.Area)
	assert.Equal(t, 0.017, *m1.Area)
	require.NotNil(t, m1.Resistance)
	assert.Equal(t, 0.38, *m1.Resistance)
	require.NotNil(t, m1.Thickness)
	assert.Equal(t, 0.13, *m1.Thickness)
	assert.Nil(t, m1.SpacingTable)

	require.Len(t, m1.Spacings, 2)
	assert.Equal(t, SpacingMinimum, m1.Spacings[0].Qualifier)
	assert.Equal(t, 0.065, m1.Spacings[0].Value)
	assert.Equal(t, SpacingRange, m1.Spacings[1].Qualifier)
	assert.Equal(t, 0.09, m1.Spacings[1].Value)
	assert.Equal(t, 0.1, m1.Spacings[1].MinWidth)
	assert.Equal(t, 9999.0, m1.Spacings[1].MaxWidth)

	l, err = tech.Layer("Metal2")
	require.NoError(t, err)
	m2 := l.(*RoutingLayer)
	assert.Equal(t, DirectionVertical, m2.Direction)
	assert.Equal(t, XY{X: 0.2, Y: 0.21}, *m2.Pitch)
	assert.Equal(t, XY{X: 0.1, Y: 0.1}, *m2.Offset)
	require.NotNil(t, m2.SpacingTable)
	assert.Equal(t, []float64{0.0, 0.25, 0.75}, m2.SpacingTable.Widths())
	assert.Equal(t, []float64{0.0, 0.3, 1.0}, m2.SpacingTable.ParallelRunLengths())
	assert.Equal(t, 3, m2.SpacingTable.RowCount())
	// the layer body continues after the table terminator
	require.NotNil(t, m2.MaxWidth)
	assert.Equal(t, 12.0, *m2.MaxWidth)

	l, err = tech.Layer("via12")
	require.NoError(t, err)
	v12, ok := l.(*CutLayer)
	require.True(t, ok)
	assert.Equal(t, LayerCut, v12.Kind())
	require.NotNil(t, v12.Width)
	assert.Equal(t, 0.07, *v12.Width)
	require.Len(t, v12.Spacings, 1)
	assert.Equal(t, 0.08, v12.Spacings[0].Value)
	assert.True(t, v12.Spacings[0].CenterToCenter)
	assert.False(t, v12.Spacings[0].SameNet)
	require.Len(t, v12.Enclosures, 1)
	assert.True(t, v12.Enclosures[0].Above)
	assert.False(t, v12.Enclosures[0].Below)
	assert.Equal(t, 0.0, v12.Enclosures[0].Overhang1)
	assert.Equal(t, 0.035, v12.Enclosures[0].Overhang2)
}

func TestReadSampleViasAndSites(t *testing.T) {
	tech := readSample(t).Tech

	via, err := tech.Via("M1_M2")
	require.NoError(t, err)
	assert.True(t, via.Default)
	require.NotNil(t, via.Resistance)
	assert.Equal(t, 4.5, *via.Resistance)
	require.Len(t, via.Geometry, 3)
	assert.Equal(t, "Metal1", via.Geometry[0].LayerName)
	assert.Equal(t, "via12", via.Geometry[1].LayerName)
	assert.Equal(t, "Metal2", via.Geometry[2].LayerName)
	require.NotNil(t, via.Geometry[1].Rect)
	assert.Equal(t, Rect{Min: XY{X: -0.035, Y: -0.035}, Max: XY{X: 0.035, Y: 0.035}}, *via.Geometry[1].Rect)

	// references are resolved to the layer records themselves
	m1, err := tech.Layer("Metal1")
	require.NoError(t, err)
	assert.Same(t, m1, via.Geometry[0].Layer)

	rule, err := tech.ViaRule("M1_M2_GEN")
	require.NoError(t, err)
	assert.True(t, rule.Default)
	require.Len(t, rule.Routing, 2)
	assert.Equal(t, "Metal1", rule.Routing[0].LayerName)
	require.NotNil(t, rule.Routing[0].Enclosure)
	assert.Equal(t, XY{X: 0.035, Y: 0.01}, *rule.Routing[0].Enclosure)
	require.NotNil(t, rule.Routing[0].WidthRange)
	assert.Equal(t, MinMax{Min: 0.065, Max: 12.0}, *rule.Routing[0].WidthRange)
	require.NotNil(t, rule.Routing[1].WidthRange)
	assert.Equal(t, MinMax{Min: 0.07, Max: 12.0}, *rule.Routing[1].WidthRange)
	require.NotNil(t, rule.Cut)
	assert.Equal(t, "via12", rule.Cut.LayerName)
	require.NotNil(t, rule.Cut.Rect)
	require.NotNil(t, rule.Cut.Spacing)
	assert.Equal(t, XY{X: 0.15, Y: 0.15}, *rule.Cut.Spacing)
	require.NotNil(t, rule.Cut.Resistance)
	assert.Equal(t, 4.5, *rule.Cut.Resistance)
	require.NotNil(t, rule.Cut.Layer)
	assert.Equal(t, LayerCut, rule.Cut.Layer.Kind())

	site, err := tech.Site("CoreSite")
	require.NoError(t, err)
	assert.Equal(t, SiteCore, site.Class)
	assert.True(t, site.Symmetry.Y)
	assert.False(t, site.Symmetry.X)
	assert.False(t, site.Symmetry.R90)
	assert.Equal(t, 0.2, site.Width)
	assert.Equal(t, 1.8, site.Height)

	assert.Len(t, tech.Vias(), 1)
	assert.Len(t, tech.ViaRules(), 1)
	assert.Len(t, tech.Sites(), 1)
}

func TestReadSpacingLookup(t *testing.T) {
	tech := readSample(t).Tech

	got, err := tech.SpacingFor("Metal2", 0.3, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.10, got)

	// narrow wire, short run: the smallest table entry
	got, err = tech.SpacingFor("Metal2", 0.1, 0.0)
	require.NoError(t, err)
	assert.Equal(t, 0.07, got)

	// wide and long clamps to the table corner
	got, err = tech.SpacingFor("Metal2", 50.0, 50.0)
	require.NoError(t, err)
	assert.Equal(t, 0.20, got)

	_, err = tech.SpacingFor("Metal1", 0.1, 0.0)
	assert.ErrorIs(t, err, ErrNotApplicable)

	_, err = tech.SpacingFor("contact", 0.1, 0.0)
	assert.ErrorIs(t, err, ErrNotApplicable)

	_, err = tech.SpacingFor("Metal9", 0.1, 0.0)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "layer", nf.Kind)
	assert.Equal(t, "Metal9", nf.Name)
}

func TestReadDuplicateLayerKeepsFirst(t *testing.T) {
	src := `LAYER m1
  TYPE ROUTING ;
  WIDTH 0.1 ;
END m1
LAYER m1
  TYPE ROUTING ;
  WIDTH 0.5 ;
END m1
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src), Lenient())
	require.NoError(t, err)
	require.NotNil(t, res.Tech)

	require.Len(t, res.Errors, 1)
	var se *lef.SemanticError
	require.ErrorAs(t, res.Errors[0], &se)
	assert.Equal(t, lef.DuplicateName, se.Kind)
	assert.Equal(t, "layer", se.Construct)
	assert.Equal(t, "m1", se.Name)
	assert.Equal(t, 5, se.Pos.Line)

	assert.Len(t, res.Tech.Layers(), 1)
	l, err := res.Tech.Layer("m1")
	require.NoError(t, err)
	assert.Equal(t, 0.1, *l.(*RoutingLayer).Width)
}

func TestReadDanglingViaRuleReference(t *testing.T) {
	src := `LAYER m1
  TYPE ROUTING ;
  WIDTH 0.1 ;
END m1
LAYER v1
  TYPE CUT ;
END v1
VIARULE vr GENERATE
  LAYER m1 ;
    ENCLOSURE 0.01 0.01 ;
  LAYER m9 ;
    ENCLOSURE 0.01 0.01 ;
  LAYER v1 ;
    RECT -0.1 -0.1 0.1 0.1 ;
END vr
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src), Lenient())
	require.NoError(t, err)
	require.NotNil(t, res.Tech)

	require.Len(t, res.Errors, 1)
	var se *lef.SemanticError
	require.ErrorAs(t, res.Errors[0], &se)
	assert.Equal(t, lef.DanglingReference, se.Kind)
	assert.Equal(t, "viarule", se.Construct)
	assert.Equal(t, "m9", se.Name)

	// the rule is kept; only the broken reference stays unresolved
	rule, err := res.Tech.ViaRule("vr")
	require.NoError(t, err)
	require.Len(t, rule.Routing, 2)
	assert.NotNil(t, rule.Routing[0].Layer)
	assert.Nil(t, rule.Routing[1].Layer)
	assert.Equal(t, "m9", rule.Routing[1].LayerName)

	// by default a model with dangling references is never handed out
	res, err = Read(context.Background(), strings.NewReader(src))
	require.Error(t, err)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, lef.DanglingReference, se.Kind)
	assert.Nil(t, res.Tech)
}

func TestReadDefaultStopsOnDuplicate(t *testing.T) {
	src := `LAYER m1
  TYPE ROUTING ;
END m1
LAYER m1
  TYPE ROUTING ;
END m1
END LIBRARY
`
	// no options: the first error of any class must fail the read
	res, err := Read(context.Background(), strings.NewReader(src))
	require.Error(t, err)
	var se *lef.SemanticError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, lef.DuplicateName, se.Kind)
	assert.Nil(t, res.Tech)
}

func TestReadUnterminatedLayerIsFatal(t *testing.T) {
	src := "VERSION 5.7 ;\nLAYER m1\n  TYPE ROUTING ;\n  WIDTH 0.1 ;\n"
	res, err := Read(context.Background(), strings.NewReader(src))
	require.Error(t, err)
	var syn *lef.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 5, syn.Pos.Line)
	assert.Nil(t, res.Tech)
}

func TestReadNumberFormats(t *testing.T) {
	src := `LAYER m1
  TYPE ROUTING ;
  WIDTH 0.140000 ;
  OFFSET -0.05 ;
END m1
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	l, err := res.Tech.Layer("m1")
	require.NoError(t, err)
	m1 := l.(*RoutingLayer)
	assert.Equal(t, 0.14, *m1.Width)
	assert.Equal(t, XY{X: -0.05, Y: -0.05}, *m1.Offset)
}

func TestReadViaRuleArity(t *testing.T) {
	src := `LAYER m1
  TYPE ROUTING ;
END m1
LAYER v1
  TYPE CUT ;
END v1
VIARULE vr GENERATE
  LAYER m1 ;
    ENCLOSURE 0.01 0.01 ;
  LAYER v1 ;
    RECT -0.1 -0.1 0.1 0.1 ;
END vr
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src), Lenient())
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	var ve *lef.ValueError
	require.ErrorAs(t, res.Errors[0], &ve)
	assert.Contains(t, ve.Error(), "vr")

	// the malformed rule is still recorded with what it declares
	rule, err := res.Tech.ViaRule("vr")
	require.NoError(t, err)
	assert.Len(t, rule.Routing, 1)
	assert.NotNil(t, rule.Cut)
}

func TestReadLayerWithoutType(t *testing.T) {
	src := "LAYER m1\nEND m1\nEND LIBRARY\n"
	res, err := Read(context.Background(), strings.NewReader(src), Lenient())
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	var ve *lef.ValueError
	require.ErrorAs(t, res.Errors[0], &ve)
	assert.Empty(t, res.Tech.Layers())
}

func TestReadUnknownLayerTypeDiscards(t *testing.T) {
	src := `LAYER m1
  TYPE WAVEGUIDE ;
  WIDTH 0.1 ;
END m1
LAYER m2
  TYPE ROUTING ;
END m2
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src), Lenient())
	require.NoError(t, err)

	// one error for the TYPE; the rest of the block is skipped quietly
	require.Len(t, res.Errors, 1)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.Tech.Layers(), 1)
	_, err = res.Tech.Layer("m1")
	assert.Error(t, err)
}

func TestReadMasterSliceLayerRecordsNameOnly(t *testing.T) {
	src := `LAYER base
  TYPE MASTERSLICE ;
  WIDTH 0.2 ;
END base
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, lef.RuleUnsupportedConstruct, res.Warnings[0].Rule)

	l, err := res.Tech.Layer("base")
	require.NoError(t, err)
	assert.Equal(t, LayerMasterSlice, l.Kind())
}

func TestReadStatementValueErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{
			name: "busbitchars length",
			src:  "BUSBITCHARS \"[\" ;\nEND LIBRARY\n",
		},
		{
			name: "unknown clearance measure",
			src:  "CLEARANCEMEASURE DIAGONAL ;\nEND LIBRARY\n",
		},
		{
			name: "unknown direction",
			src:  "LAYER m1\n  TYPE ROUTING ;\n  DIRECTION SIDEWAYS ;\nEND m1\nEND LIBRARY\n",
		},
		{
			name: "statement before type",
			src:  "LAYER m1\n  WIDTH 0.1 ;\n  TYPE ROUTING ;\nEND m1\nEND LIBRARY\n",
		},
		{
			name: "size missing BY",
			src:  "SITE s\n  SIZE 0.2 1.8 ;\nEND s\nEND LIBRARY\n",
		},
		{
			name: "routing statement on cut layer",
			src:  "LAYER v1\n  TYPE CUT ;\n  PITCH 0.2 ;\nEND v1\nEND LIBRARY\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Read(context.Background(), strings.NewReader(tc.src), Lenient())
			require.NoError(t, err)
			require.Len(t, res.Errors, 1)
			var ve *lef.ValueError
			assert.ErrorAs(t, res.Errors[0], &ve)
			require.NotNil(t, res.Tech)
		})
	}
}

func TestReadSelectiveMaterialization(t *testing.T) {
	res, err := Read(context.Background(), strings.NewReader(sampleTech),
		WithConstructs(lef.KindLayer, lef.KindHeader))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 5.7, res.Tech.Version())
	assert.Len(t, res.Tech.Layers(), 5)
	assert.Empty(t, res.Tech.Vias())
	assert.Empty(t, res.Tech.ViaRules())
	assert.Empty(t, res.Tech.Sites())

	// vias only: references stay by name, and nothing dangles because
	// layers were never built
	res, err = Read(context.Background(), strings.NewReader(sampleTech),
		WithConstructs(lef.KindVia))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Tech.Layers())
	vias := res.Tech.Vias()
	require.Len(t, vias, 1)
	require.Len(t, vias[0].Geometry, 3)
	assert.Equal(t, "Metal1", vias[0].Geometry[0].LayerName)
	assert.Nil(t, vias[0].Geometry[0].Layer)
}

func TestReadCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Read(ctx, strings.NewReader(sampleTech))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res.Tech)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.lef")
	require.NoError(t, os.WriteFile(path, []byte(sampleTech), 0o644))

	res, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, res.Tech)
	assert.Len(t, res.Tech.Layers(), 5)

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.lef"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
