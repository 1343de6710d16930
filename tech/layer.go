package tech

// LayerKind discriminates the Layer variants.
type LayerKind int

const (
	LayerRouting LayerKind = iota
	LayerCut
	LayerMasterSlice
	LayerImplant
	LayerOverlap
)

var layerKindNames = map[LayerKind]string{
	LayerRouting:     "ROUTING",
	LayerCut:         "CUT",
	LayerMasterSlice: "MASTERSLICE",
	LayerImplant:     "IMPLANT",
	LayerOverlap:     "OVERLAP",
}

func (k LayerKind) String() string {
	if name, ok := layerKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Layer is one entry of the technology's layer stack. The concrete type
// is *RoutingLayer, *CutLayer, *MasterSliceLayer, *ImplantLayer, or
// *OverlapLayer depending on the declared TYPE; no other implementations
// exist.
type Layer interface {
	Name() string
	Kind() LayerKind
	layer()
}

// layerName provides the shared name accessor and seals the Layer
// interface to this package.
type layerName struct {
	name string
}

func (l layerName) Name() string { return l.name }
func (layerName) layer()         {}

// Direction is the preferred routing direction of a routing layer. The
// zero value is vertical, the format default.
type Direction int

const (
	DirectionVertical Direction = iota
	DirectionHorizontal
	DirectionDiag45
	DirectionDiag135
)

var directionNames = map[Direction]string{
	DirectionVertical:   "VERTICAL",
	DirectionHorizontal: "HORIZONTAL",
	DirectionDiag45:     "DIAG45",
	DirectionDiag135:    "DIAG135",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

func parseDirection(s string) (Direction, bool) {
	for d, name := range directionNames {
		if name == s {
			return d, true
		}
	}
	return DirectionVertical, false
}

// SpacingQualifier discriminates the SpacingRule union.
type SpacingQualifier int

const (
	// SpacingMinimum is a plain minimum spacing with no qualifier.
	SpacingMinimum SpacingQualifier = iota
	// SpacingRange applies only to wires whose width lies in [MinWidth,
	// MaxWidth].
	SpacingRange
	// SpacingLengthThreshold applies only to wires no longer than
	// MaxLength.
	SpacingLengthThreshold
	// SpacingEndOfLine applies at wire ends narrower than EOLWidth,
	// within EOLWithin of the end.
	SpacingEndOfLine
	// SpacingSameNet applies between shapes of the same net only.
	SpacingSameNet
	// SpacingNotchLength applies to notches longer than NotchLength.
	SpacingNotchLength
	// SpacingEndOfNotchWidth applies to notches bounded by an end-of-notch
	// width, with its own notch spacing and length.
	SpacingEndOfNotchWidth
)

// SpacingRule is one scalar SPACING statement of a routing layer.
// Qualifier selects which of the qualifier fields are populated; the
// remaining ones are zero.
type SpacingRule struct {
	Value     float64 // minimum spacing in microns
	Qualifier SpacingQualifier

	MinWidth float64 // SpacingRange
	MaxWidth float64 // SpacingRange

	MaxLength float64 // SpacingLengthThreshold

	EOLWidth  float64 // SpacingEndOfLine
	EOLWithin float64 // SpacingEndOfLine

	PGOnly bool // SpacingSameNet, rule restricted to power/ground nets

	NotchLength     float64 // SpacingNotchLength, SpacingEndOfNotchWidth
	EndOfNotchWidth float64 // SpacingEndOfNotchWidth
	NotchSpacing    float64 // SpacingEndOfNotchWidth
}

// RoutingLayer carries the design rules of a TYPE ROUTING layer. Optional
// scalar rules are pointers; nil means the file does not state them.
type RoutingLayer struct {
	layerName

	MaskNum   *int
	Direction Direction
	Pitch     *XY // PITCH p sets both axes, PITCH x y sets them separately
	Offset    *XY

	Width         *float64
	MinWidth      *float64
	MaxWidth      *float64
	Area          *float64 // minimum shape area
	WireExtension *float64

	Resistance      *float64 // sheet resistance, RPERSQ
	Capacitance     *float64 // wire-to-ground capacitance, CPERSQDIST
	EdgeCapacitance *float64
	Height          *float64
	Thickness       *float64
	Shrinkage       *float64
	CapMultiplier   *float64

	MinimumDensity     *float64
	MaximumDensity     *float64
	DensityCheckWindow *XY
	DensityCheckStep   *float64

	Spacings     []SpacingRule
	SpacingTable *SpacingTable
}

func (l *RoutingLayer) Kind() LayerKind { return LayerRouting }

// CutSpacing is one SPACING statement of a cut layer.
type CutSpacing struct {
	Value          float64
	CenterToCenter bool // measured center to center instead of edge to edge
	SameNet        bool // applies to same-net cuts only
}

// Enclosure is an ENCLOSURE or PREFERENCLOSURE rule of a cut layer: the
// adjacent routing layer must overhang the cut by Overhang1 on two
// opposite sides and Overhang2 on the other two. Above and Below restrict
// the rule to one adjacent routing layer; both false means it applies to
// both. MinWidth and MinLength gate the rule on the adjacent wire's width
// or overhang length.
type Enclosure struct {
	Above     bool
	Below     bool
	Overhang1 float64
	Overhang2 float64

	MinWidth             *float64 // WIDTH qualifier
	ExceptExtraCutWithin *float64 // EXCEPTEXTRACUT distance on the WIDTH qualifier
	MinLength            *float64 // LENGTH qualifier
}

// CutLayer carries the design rules of a TYPE CUT (via) layer.
type CutLayer struct {
	layerName

	MaskNum    *int
	Width      *float64
	Resistance *float64 // resistance per cut

	Spacings         []CutSpacing
	Enclosures       []Enclosure
	PreferEnclosures []Enclosure
}

func (l *CutLayer) Kind() LayerKind { return LayerCut }

// MasterSliceLayer is a TYPE MASTERSLICE (poly) layer. Only the name is
// modeled so that vias touching it still resolve; its property statements
// are reported as unsupported.
type MasterSliceLayer struct {
	layerName
}

func (l *MasterSliceLayer) Kind() LayerKind { return LayerMasterSlice }

// ImplantLayer is a TYPE IMPLANT layer, modeled by name only.
type ImplantLayer struct {
	layerName
}

func (l *ImplantLayer) Kind() LayerKind { return LayerImplant }

// OverlapLayer is a TYPE OVERLAP layer, modeled by name only.
type OverlapLayer struct {
	layerName
}

func (l *OverlapLayer) Kind() LayerKind { return LayerOverlap }
