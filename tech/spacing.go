package tech

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MoleSir/reda-lef/lef"
)

// ErrNotApplicable reports that a layer carries no spacing table. Callers
// should fall back to the layer's scalar spacing rules.
var ErrNotApplicable = errors.New("no spacing table")

// SpacingTable is the PARALLELRUNLENGTH spacing table of a routing layer:
// a spacing value per (width threshold, parallel-run-length threshold)
// pair. Both threshold axes are strictly increasing.
type SpacingTable struct {
	widths   []float64
	prls     []float64
	spacings [][]float64 // indexed [width][prl]
}

// NewSpacingTable builds a table from its width thresholds, parallel-run-
// length thresholds, and one spacing row per width. It fails with a
// *lef.ValueError when an axis is empty or not strictly increasing, or
// when a row does not carry exactly one spacing per parallel-run-length.
func NewSpacingTable(widths, prls []float64, spacings [][]float64) (*SpacingTable, error) {
	if len(widths) == 0 || len(prls) == 0 {
		return nil, valueErr("spacing table needs at least one width row and one parallel run length")
	}
	if !strictlyIncreasing(widths) {
		return nil, valueErr("spacing table width thresholds must be strictly increasing")
	}
	if !strictlyIncreasing(prls) {
		return nil, valueErr("spacing table parallel run lengths must be strictly increasing")
	}
	if len(spacings) != len(widths) {
		return nil, valueErr(fmt.Sprintf("spacing table has %d rows for %d width thresholds", len(spacings), len(widths)))
	}
	t := &SpacingTable{
		widths:   append([]float64(nil), widths...),
		prls:     append([]float64(nil), prls...),
		spacings: make([][]float64, len(spacings)),
	}
	for i, row := range spacings {
		if len(row) != len(prls) {
			return nil, valueErr(fmt.Sprintf("spacing table row %d has %d values for %d parallel run lengths", i, len(row), len(prls)))
		}
		t.spacings[i] = append([]float64(nil), row...)
	}
	return t, nil
}

func valueErr(msg string) *lef.ValueError {
	return &lef.ValueError{ParseError: lef.ParseError{Message: msg}}
}

func strictlyIncreasing(vals []float64) bool {
	for i := 1; i < len(vals); i++ {
		if vals[i] <= vals[i-1] {
			return false
		}
	}
	return true
}

// Widths returns the width thresholds in increasing order.
func (t *SpacingTable) Widths() []float64 {
	return append([]float64(nil), t.widths...)
}

// ParallelRunLengths returns the parallel-run-length thresholds in
// increasing order.
func (t *SpacingTable) ParallelRunLengths() []float64 {
	return append([]float64(nil), t.prls...)
}

// At returns the spacing for the given width and parallel-run-length
// threshold indexes.
func (t *SpacingTable) At(widthIdx, prlIdx int) float64 {
	return t.spacings[widthIdx][prlIdx]
}

// RowCount returns the number of parallel-run-length rows.
func (t *SpacingTable) RowCount() int { return len(t.prls) }

// Row returns the i-th parallel-run-length threshold together with its
// spacing values across the width thresholds.
func (t *SpacingTable) Row(i int) (float64, []float64) {
	row := make([]float64, len(t.widths))
	for w := range t.widths {
		row[w] = t.spacings[w][i]
	}
	return t.prls[i], row
}

// SpacingFor returns the required spacing for a wire of the given width
// running in parallel for the given length. Each axis independently picks
// the largest threshold not exceeding the query, clamped to the table
// bounds; queries outside the declared range never extrapolate.
func (t *SpacingTable) SpacingFor(width, prl float64) float64 {
	return t.spacings[thresholdIndex(t.widths, width)][thresholdIndex(t.prls, prl)]
}

// thresholdIndex finds the largest threshold not exceeding v, clamped to
// the first entry when v lies below the whole axis.
func thresholdIndex(thresholds []float64, v float64) int {
	i := sort.SearchFloat64s(thresholds, v)
	if i < len(thresholds) && thresholds[i] == v {
		return i
	}
	if i == 0 {
		return 0
	}
	return i - 1
}
