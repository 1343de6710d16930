package tech

import "fmt"

// XY is a point or a per-axis pair in micron coordinates.
type XY struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle spanning Min to Max.
type Rect struct {
	Min XY
	Max XY
}

// MinMax is an inclusive numeric range.
type MinMax struct {
	Min float64
	Max float64
}

// Orient is a placement orientation: a rotation with an optional flip.
type Orient int

const (
	OrientN Orient = iota
	OrientS
	OrientE
	OrientW
	OrientFN // flipped north
	OrientFS // flipped south
	OrientFE // flipped east
	OrientFW // flipped west
)

var orientNames = map[Orient]string{
	OrientN:  "N",
	OrientS:  "S",
	OrientE:  "E",
	OrientW:  "W",
	OrientFN: "FN",
	OrientFS: "FS",
	OrientFE: "FE",
	OrientFW: "FW",
}

func (o Orient) String() string {
	if name, ok := orientNames[o]; ok {
		return name
	}
	return "unknown"
}

func parseOrient(s string) (Orient, bool) {
	for o, name := range orientNames {
		if name == s {
			return o, true
		}
	}
	return OrientN, false
}

// ClearanceMeasure selects how clearance distances between shapes are
// measured. The zero value is Euclidean.
type ClearanceMeasure int

const (
	// ClearanceEuclidean measures sqrt(dx^2 + dy^2).
	ClearanceEuclidean ClearanceMeasure = iota
	// ClearanceMaxXY measures max(dx, dy).
	ClearanceMaxXY
)

func (m ClearanceMeasure) String() string {
	switch m {
	case ClearanceEuclidean:
		return "EUCLIDEAN"
	case ClearanceMaxXY:
		return "MAXXY"
	default:
		return fmt.Sprintf("ClearanceMeasure(%d)", int(m))
	}
}

// Units holds the convert factors declared in the UNITS block. A nil field
// means the corresponding unit statement was not present.
type Units struct {
	Time        *float64 // TIME NANOSECONDS
	Capacitance *float64 // CAPACITANCE PICOFARADS
	Resistance  *float64 // RESISTANCE OHMS
	Power       *float64 // POWER MILLIWATTS
	Current     *float64 // CURRENT MILLIAMPS
	Voltage     *float64 // VOLTAGE VOLTS
	Database    *float64 // DATABASE MICRONS
	Frequency   *float64 // FREQUENCY MEGAHERTZ
}

// MaxViaStack limits how many single-cut vias may be stacked on top of
// each other. Bottom and Top restrict the rule to a layer range when the
// statement carries RANGE; empty strings mean the rule applies to the
// whole layer stack.
type MaxViaStack struct {
	Count  int
	Bottom string
	Top    string
}

// NotFoundError reports a query for a name absent from its collection.
type NotFoundError struct {
	Kind string // "layer", "via", "viarule", or "site"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Technology is the parsed content of a LEF technology file: the header
// fields plus four uniquely named collections in declaration order. A
// Technology is built by Read and must not be modified afterwards; all
// methods are safe for concurrent use once Read has returned.
type Technology struct {
	version           float64
	busBitChars       [2]rune
	dividerChar       rune
	clearanceMeasure  ClearanceMeasure
	manufacturingGrid *float64
	maxViaStack       *MaxViaStack
	units             *Units

	layers       []Layer
	layersByName map[string]Layer

	vias       []*Via
	viasByName map[string]*Via

	viaRules       []*ViaRule
	viaRulesByName map[string]*ViaRule

	sites       []*Site
	sitesByName map[string]*Site
}

func newTechnology() *Technology {
	return &Technology{
		busBitChars:    [2]rune{'[', ']'},
		dividerChar:    '/',
		layersByName:   make(map[string]Layer),
		viasByName:     make(map[string]*Via),
		viaRulesByName: make(map[string]*ViaRule),
		sitesByName:    make(map[string]*Site),
	}
}

// Version returns the declared LEF version, or 0 when the file has none.
func (t *Technology) Version() float64 { return t.version }

// BusBitChars returns the characters delimiting bus bits in names.
// Defaults to '[' and ']'.
func (t *Technology) BusBitChars() (rune, rune) {
	return t.busBitChars[0], t.busBitChars[1]
}

// DividerChar returns the hierarchy divider character. Defaults to '/'.
func (t *Technology) DividerChar() rune { return t.dividerChar }

// ClearanceMeasure returns the declared clearance measure, Euclidean when
// the file has none.
func (t *Technology) ClearanceMeasure() ClearanceMeasure { return t.clearanceMeasure }

// ManufacturingGrid returns the manufacturing grid and whether the file
// declares one.
func (t *Technology) ManufacturingGrid() (float64, bool) {
	if t.manufacturingGrid == nil {
		return 0, false
	}
	return *t.manufacturingGrid, true
}

// MaxViaStack returns the via stacking limit, or nil when the file has
// none.
func (t *Technology) MaxViaStack() *MaxViaStack { return t.maxViaStack }

// Units returns the declared unit convert factors, or nil when the file
// has no UNITS block.
func (t *Technology) Units() *Units { return t.units }

// Layer returns the layer with the given name.
func (t *Technology) Layer(name string) (Layer, error) {
	l, ok := t.layersByName[name]
	if !ok {
		return nil, &NotFoundError{Kind: "layer", Name: name}
	}
	return l, nil
}

// Layers returns all layers in declaration order, which for technology
// files is the process order from bottom to top.
func (t *Technology) Layers() []Layer {
	out := make([]Layer, len(t.layers))
	copy(out, t.layers)
	return out
}

// Via returns the via with the given name.
func (t *Technology) Via(name string) (*Via, error) {
	v, ok := t.viasByName[name]
	if !ok {
		return nil, &NotFoundError{Kind: "via", Name: name}
	}
	return v, nil
}

// Vias returns all via definitions in declaration order.
func (t *Technology) Vias() []*Via {
	out := make([]*Via, len(t.vias))
	copy(out, t.vias)
	return out
}

// ViaRule returns the generated via rule with the given name.
func (t *Technology) ViaRule(name string) (*ViaRule, error) {
	r, ok := t.viaRulesByName[name]
	if !ok {
		return nil, &NotFoundError{Kind: "viarule", Name: name}
	}
	return r, nil
}

// ViaRules returns all generated via rules in declaration order.
func (t *Technology) ViaRules() []*ViaRule {
	out := make([]*ViaRule, len(t.viaRules))
	copy(out, t.viaRules)
	return out
}

// Site returns the site definition with the given name.
func (t *Technology) Site(name string) (*Site, error) {
	s, ok := t.sitesByName[name]
	if !ok {
		return nil, &NotFoundError{Kind: "site", Name: name}
	}
	return s, nil
}

// Sites returns all site definitions in declaration order.
func (t *Technology) Sites() []*Site {
	out := make([]*Site, len(t.sites))
	copy(out, t.sites)
	return out
}

// SpacingFor looks up the required wire spacing on a routing layer for
// the given wire width and parallel run length. It fails with a
// *NotFoundError for an unknown layer and with ErrNotApplicable when the
// layer carries no spacing table; callers should then fall back to the
// layer's scalar spacing rules.
func (t *Technology) SpacingFor(layerName string, width, prl float64) (float64, error) {
	l, err := t.Layer(layerName)
	if err != nil {
		return 0, err
	}
	routing, ok := l.(*RoutingLayer)
	if !ok || routing.SpacingTable == nil {
		return 0, fmt.Errorf("layer %q: %w", layerName, ErrNotApplicable)
	}
	return routing.SpacingTable.SpacingFor(width, prl), nil
}
