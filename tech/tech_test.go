package tech

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTechnologyDefaults(t *testing.T) {
	src := "VERSION 5.5 ;\nEND LIBRARY\n"
	res, err := Read(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	tech := res.Tech

	assert.Equal(t, 5.5, tech.Version())
	lb, rb := tech.BusBitChars()
	assert.Equal(t, '[', lb)
	assert.Equal(t, ']', rb)
	assert.Equal(t, '/', tech.DividerChar())
	assert.Equal(t, ClearanceEuclidean, tech.ClearanceMeasure())
	_, ok := tech.ManufacturingGrid()
	assert.False(t, ok)
	assert.Nil(t, tech.MaxViaStack())
	assert.Nil(t, tech.Units())
	assert.Empty(t, tech.Layers())
}

func TestTechnologyQueriesNotFound(t *testing.T) {
	tech := newTechnology()

	_, err := tech.Layer("m1")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "layer", nf.Kind)
	assert.Equal(t, "m1", nf.Name)
	assert.EqualError(t, err, `layer "m1" not found`)

	_, err = tech.Via("v")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "via", nf.Kind)

	_, err = tech.ViaRule("r")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "viarule", nf.Kind)

	_, err = tech.Site("s")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "site", nf.Kind)
}

func TestTechnologyCollectionsAreCopies(t *testing.T) {
	src := `LAYER m1
  TYPE ROUTING ;
END m1
LAYER m2
  TYPE ROUTING ;
END m2
END LIBRARY
`
	res, err := Read(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	tech := res.Tech

	layers := tech.Layers()
	require.Len(t, layers, 2)
	layers[0] = nil
	assert.NotNil(t, tech.Layers()[0])
	assert.Equal(t, "m1", tech.Layers()[0].Name())
}

func TestLayerKindStrings(t *testing.T) {
	assert.Equal(t, "ROUTING", LayerRouting.String())
	assert.Equal(t, "CUT", LayerCut.String())
	assert.Equal(t, "MASTERSLICE", LayerMasterSlice.String())
	assert.Equal(t, "IMPLANT", LayerImplant.String())
	assert.Equal(t, "OVERLAP", LayerOverlap.String())
}

func TestDirectionParsing(t *testing.T) {
	d, ok := parseDirection("HORIZONTAL")
	assert.True(t, ok)
	assert.Equal(t, DirectionHorizontal, d)

	d, ok = parseDirection("DIAG45")
	assert.True(t, ok)
	assert.Equal(t, DirectionDiag45, d)

	_, ok = parseDirection("horizontal")
	assert.False(t, ok)

	// the zero value is vertical, matching the format's default
	var zero Direction
	assert.Equal(t, DirectionVertical, zero)
	assert.Equal(t, "VERTICAL", zero.String())
}

func TestOrientParsing(t *testing.T) {
	for _, name := range []string{"N", "S", "E", "W", "FN", "FS", "FE", "FW"} {
		o, ok := parseOrient(name)
		require.True(t, ok, name)
		assert.Equal(t, name, o.String())
	}
	_, ok := parseOrient("NE")
	assert.False(t, ok)
}

func TestClearanceMeasureStrings(t *testing.T) {
	assert.Equal(t, "EUCLIDEAN", ClearanceEuclidean.String())
	assert.Equal(t, "MAXXY", ClearanceMaxXY.String())
}

func TestSiteClassStrings(t *testing.T) {
	assert.Equal(t, "CORE", SiteCore.String())
	assert.Equal(t, "PAD", SitePad.String())

	// sites without a CLASS statement are core sites
	var s Site
	assert.Equal(t, SiteCore, s.Class)
}
