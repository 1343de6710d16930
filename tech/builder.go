package tech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MoleSir/reda-lef/lef"
)

// builder accumulates parse events into Technology records. One handler
// per construct kind decodes statements as they arrive; cross-references
// are kept as names plus an assignment thunk and resolved after the
// parse. Errors returned from handlers are recoverable value or semantic
// errors; the parser aborts on them unless it is lenient.
type builder struct {
	logger *slog.Logger
	tech   *Technology
	diags  []lef.Diagnostic
	refs   []layerRef

	layer *layerDraft
	via   *viaDraft
	rule  *viaRuleDraft
	site  *siteDraft
}

// layerRef is one layer reference recorded during the event pass.
type layerRef struct {
	construct string // construct holding the reference ("via", "viarule")
	owner     string // name of that construct
	name      string // referenced layer name
	pos       lef.Position
	assign    func(Layer)
}

type layerDraft struct {
	name    string
	pos     lef.Position
	discard bool
	routing *RoutingLayer
	cut     *CutLayer
	simple  Layer // name-only variants
	table   *tableDraft
}

type tableDraft struct {
	pos     lef.Position
	discard bool
	prls    []float64
	widths  []float64
	values  [][]float64
}

type viaDraft struct {
	pos     lef.Position
	discard bool
	via     *Via
	cur     string // layer scope set by the last LAYER statement
}

type viaRuleDraft struct {
	pos      lef.Position
	discard  bool
	rule     *ViaRule
	sections []*ruleSection
}

// ruleSection collects the statements following one LAYER statement of a
// via rule; endViaRule classifies it as a routing or cut section.
type ruleSection struct {
	layerName     string
	pos           lef.Position
	enclosure     *XY
	overhang      *float64
	metalOverhang *float64
	widthRange    *MinMax
	rect          *Rect
	spacing       *XY
	resistance    *float64
}

type siteDraft struct {
	pos     lef.Position
	discard bool
	site    *Site
}

func newBuilder(logger *slog.Logger) *builder {
	return &builder{logger: logger, tech: newTechnology()}
}

// register installs the builder's handlers for the requested construct
// kinds, or for every kind when kinds is nil. Spacing table events reach
// the layer handler through the enclosing layer's registration.
func (b *builder) register(d *lef.Dispatcher, kinds []lef.ConstructKind) {
	handlers := map[lef.ConstructKind]lef.HandlerFunc{
		lef.KindHeader:  b.handleHeader,
		lef.KindUnits:   b.handleUnits,
		lef.KindLayer:   b.handleLayer,
		lef.KindVia:     b.handleVia,
		lef.KindViaRule: b.handleViaRule,
		lef.KindSite:    b.handleSite,
	}
	if kinds == nil {
		for k, h := range handlers {
			d.Register(k, h)
		}
		return
	}
	for _, k := range kinds {
		if h, ok := handlers[k]; ok {
			d.Register(k, h)
		}
	}
}

func (b *builder) ref(construct, owner, name string, pos lef.Position, assign func(Layer)) {
	b.refs = append(b.refs, layerRef{
		construct: construct,
		owner:     owner,
		name:      name,
		pos:       pos,
		assign:    assign,
	})
}

func (b *builder) diag(rule string, pos lef.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.diags = append(b.diags, lef.Diagnostic{Rule: rule, Severity: lef.Warning, Message: msg, Pos: pos})
	if b.logger != nil {
		b.logger.Warn(msg, "rule", rule, "line", pos.Line)
	}
}

func duplicateName(construct, name string, pos lef.Position) *lef.SemanticError {
	return &lef.SemanticError{
		ParseError: lef.ParseError{
			Message: fmt.Sprintf("duplicate %s %q, first definition wins", construct, name),
			Pos:     pos,
		},
		Kind:      lef.DuplicateName,
		Construct: construct,
		Name:      name,
	}
}

// header statements

func (b *builder) handleHeader(_ context.Context, ev lef.Event) error {
	switch ev.Keyword {
	case "VERSION":
		v, err := oneNum(ev)
		if err != nil {
			return err
		}
		b.tech.version = v
	case "BUSBITCHARS":
		s, err := oneString(ev)
		if err != nil {
			return err
		}
		r := []rune(s)
		if len(r) != 2 {
			return statementErr(ev, "BUSBITCHARS wants a two character string")
		}
		b.tech.busBitChars = [2]rune{r[0], r[1]}
	case "DIVIDERCHAR":
		s, err := oneString(ev)
		if err != nil {
			return err
		}
		r := []rune(s)
		if len(r) != 1 {
			return statementErr(ev, "DIVIDERCHAR wants a one character string")
		}
		b.tech.dividerChar = r[0]
	case "MANUFACTURINGGRID":
		v, err := oneNum(ev)
		if err != nil {
			return err
		}
		b.tech.manufacturingGrid = &v
	case "CLEARANCEMEASURE":
		w, err := oneWord(ev)
		if err != nil {
			return err
		}
		switch w {
		case "MAXXY":
			b.tech.clearanceMeasure = ClearanceMaxXY
		case "EUCLIDEAN":
			b.tech.clearanceMeasure = ClearanceEuclidean
		default:
			return statementErr(ev, "CLEARANCEMEASURE wants MAXXY or EUCLIDEAN")
		}
	case "MAXVIASTACK":
		return b.readMaxViaStack(ev)
	case "NAMESCASESENSITIVE", "USEMINSPACING", "NOWIREEXTENSIONATPIN", "FIXEDMASK":
		// accepted for compatibility, not modeled
	}
	return nil
}

func (b *builder) readMaxViaStack(ev lef.Event) error {
	n, err := num(ev, 0)
	if err != nil {
		return err
	}
	count := int(n)
	if float64(count) != n {
		return statementErr(ev, "MAXVIASTACK wants an integer count")
	}
	stack := &MaxViaStack{Count: count}
	switch len(ev.Args) {
	case 1:
	case 4:
		if ev.Args[1].Text != "RANGE" || !ev.Args[2].IsWord() || !ev.Args[3].IsWord() {
			return statementErr(ev, "MAXVIASTACK wants RANGE bottomLayer topLayer")
		}
		stack.Bottom = ev.Args[2].Text
		stack.Top = ev.Args[3].Text
	default:
		return statementErr(ev, "MAXVIASTACK wants a count and an optional RANGE")
	}
	b.tech.maxViaStack = stack
	return nil
}

// units

var unitWords = map[string]string{
	"TIME":        "NANOSECONDS",
	"CAPACITANCE": "PICOFARADS",
	"RESISTANCE":  "OHMS",
	"POWER":       "MILLIWATTS",
	"CURRENT":     "MILLIAMPS",
	"VOLTAGE":     "VOLTS",
	"DATABASE":    "MICRONS",
	"FREQUENCY":   "MEGAHERTZ",
}

func (b *builder) handleUnits(_ context.Context, ev lef.Event) error {
	switch ev.Kind {
	case lef.EventBegin:
		if b.tech.units == nil {
			b.tech.units = &Units{}
		}
		return nil
	case lef.EventEnd:
		return nil
	}
	unit, ok := unitWords[ev.Keyword]
	if !ok {
		return nil
	}
	if len(ev.Args) != 2 || !ev.Args[0].IsWord() || ev.Args[0].Text != unit || !isNum(ev.Args[1]) {
		return statementErr(ev, "%s wants %s and a convert factor", ev.Keyword, unit)
	}
	v := ev.Args[1].Num
	u := b.tech.units
	switch ev.Keyword {
	case "TIME":
		u.Time = &v
	case "CAPACITANCE":
		u.Capacitance = &v
	case "RESISTANCE":
		u.Resistance = &v
	case "POWER":
		u.Power = &v
	case "CURRENT":
		u.Current = &v
	case "VOLTAGE":
		u.Voltage = &v
	case "DATABASE":
		u.Database = &v
	case "FREQUENCY":
		u.Frequency = &v
	}
	return nil
}

// layers

func (b *builder) handleLayer(_ context.Context, ev lef.Event) error {
	if ev.Construct == lef.KindSpacingTable {
		return b.handleSpacingTable(ev)
	}
	switch ev.Kind {
	case lef.EventBegin:
		b.layer = &layerDraft{name: ev.Name, pos: ev.Pos}
		if _, exists := b.tech.layersByName[ev.Name]; exists {
			b.layer.discard = true
			return duplicateName("layer", ev.Name, ev.Pos)
		}
		return nil
	case lef.EventEnd:
		return b.endLayer()
	}
	d := b.layer
	if d == nil || d.discard {
		return nil
	}
	if ev.Keyword == "TYPE" {
		return b.layerType(d, ev)
	}
	switch {
	case d.routing != nil:
		return routingStatement(d.routing, ev)
	case d.cut != nil:
		return cutStatement(d.cut, ev)
	case d.simple != nil:
		// properties of name-only layer kinds are dropped; the TYPE
		// statement already reported them as unsupported
		return nil
	default:
		return statementErr(ev, "layer %q: TYPE must precede %s", d.name, ev.Keyword)
	}
}

func (b *builder) layerType(d *layerDraft, ev lef.Event) error {
	w, err := oneWord(ev)
	if err != nil {
		return err
	}
	if d.routing != nil || d.cut != nil || d.simple != nil {
		return statementErr(ev, "layer %q: duplicate TYPE", d.name)
	}
	base := layerName{name: d.name}
	switch w {
	case "ROUTING":
		d.routing = &RoutingLayer{layerName: base}
	case "CUT":
		d.cut = &CutLayer{layerName: base}
	case "MASTERSLICE":
		d.simple = &MasterSliceLayer{layerName: base}
	case "IMPLANT":
		d.simple = &ImplantLayer{layerName: base}
	case "OVERLAP":
		d.simple = &OverlapLayer{layerName: base}
	default:
		d.discard = true
		return statementErr(ev, "layer %q: unknown TYPE %q", d.name, w)
	}
	if d.simple != nil {
		b.diag(lef.RuleUnsupportedConstruct, ev.Pos,
			"%s layer %q is recorded by name only", w, d.name)
	}
	return nil
}

func (b *builder) endLayer() error {
	d := b.layer
	b.layer = nil
	if d == nil || d.discard {
		return nil
	}
	var l Layer
	switch {
	case d.routing != nil:
		l = d.routing
	case d.cut != nil:
		l = d.cut
	case d.simple != nil:
		l = d.simple
	default:
		return posErr(d.pos, "layer %q has no TYPE statement", d.name)
	}
	b.tech.layers = append(b.tech.layers, l)
	b.tech.layersByName[d.name] = l
	if b.logger != nil {
		b.logger.Debug("layer", "name", d.name, "kind", l.Kind().String())
	}
	return nil
}

func routingStatement(l *RoutingLayer, ev lef.Event) error {
	switch ev.Keyword {
	case "DIRECTION":
		w, err := oneWord(ev)
		if err != nil {
			return err
		}
		dir, ok := parseDirection(w)
		if !ok {
			return statementErr(ev, "unknown DIRECTION %q", w)
		}
		l.Direction = dir
	case "PITCH":
		return setXYOrBoth(&l.Pitch, ev)
	case "OFFSET":
		return setXYOrBoth(&l.Offset, ev)
	case "WIDTH":
		return setScalar(&l.Width, ev)
	case "MINWIDTH":
		return setScalar(&l.MinWidth, ev)
	case "MAXWIDTH":
		return setScalar(&l.MaxWidth, ev)
	case "AREA":
		return setScalar(&l.Area, ev)
	case "WIREEXTENSION":
		return setScalar(&l.WireExtension, ev)
	case "HEIGHT":
		return setScalar(&l.Height, ev)
	case "THICKNESS":
		return setScalar(&l.Thickness, ev)
	case "SHRINKAGE":
		return setScalar(&l.Shrinkage, ev)
	case "CAPMULTIPLIER":
		return setScalar(&l.CapMultiplier, ev)
	case "EDGECAPACITANCE":
		return setScalar(&l.EdgeCapacitance, ev)
	case "MINIMUMDENSITY":
		return setScalar(&l.MinimumDensity, ev)
	case "MAXIMUMDENSITY":
		return setScalar(&l.MaximumDensity, ev)
	case "DENSITYCHECKSTEP":
		return setScalar(&l.DensityCheckStep, ev)
	case "DENSITYCHECKWINDOW":
		return setXY(&l.DensityCheckWindow, ev)
	case "MASK":
		return setInt(&l.MaskNum, ev)
	case "RESISTANCE":
		return setPerSquare(&l.Resistance, ev, "RPERSQ")
	case "CAPACITANCE":
		return setPerSquare(&l.Capacitance, ev, "CPERSQDIST")
	case "SPACING":
		rule, err := parseSpacingRule(ev)
		if err != nil {
			return err
		}
		l.Spacings = append(l.Spacings, rule)
	case "ENCLOSURE", "PREFERENCLOSURE":
		return statementErr(ev, "%s applies to cut layers only", ev.Keyword)
	}
	return nil
}

func parseSpacingRule(ev lef.Event) (SpacingRule, error) {
	var rule SpacingRule
	v, err := num(ev, 0)
	if err != nil {
		return rule, err
	}
	rule.Value = v
	if len(ev.Args) == 1 {
		return rule, nil
	}
	q := ev.Args[1]
	if !q.IsWord() {
		return rule, statementErr(ev, "SPACING: unexpected %s after the spacing value", q.Kind)
	}
	switch q.Text {
	case "RANGE":
		// the USELENGTHTHRESHOLD and INFLUENCE range refinements are
		// accepted and dropped
		ok := len(ev.Args) == 4 ||
			(len(ev.Args) == 5 && ev.Args[4].Text == "USELENGTHTHRESHOLD") ||
			(len(ev.Args) == 6 && ev.Args[4].Text == "INFLUENCE" && isNum(ev.Args[5]))
		if !ok {
			return rule, statementErr(ev, "SPACING RANGE wants a minimum and maximum width")
		}
		lo, err := num(ev, 2)
		if err != nil {
			return rule, err
		}
		hi, err := num(ev, 3)
		if err != nil {
			return rule, err
		}
		rule.Qualifier = SpacingRange
		rule.MinWidth, rule.MaxWidth = lo, hi
	case "LENGTHTHRESHOLD":
		if len(ev.Args) != 3 {
			return rule, statementErr(ev, "SPACING LENGTHTHRESHOLD wants a maximum length")
		}
		v, err := num(ev, 2)
		if err != nil {
			return rule, err
		}
		rule.Qualifier = SpacingLengthThreshold
		rule.MaxLength = v
	case "ENDOFLINE":
		if len(ev.Args) != 5 || !ev.Args[3].IsWord() || ev.Args[3].Text != "WITHIN" {
			return rule, statementErr(ev, "SPACING ENDOFLINE wants a width, WITHIN, and a distance")
		}
		w, err := num(ev, 2)
		if err != nil {
			return rule, err
		}
		within, err := num(ev, 4)
		if err != nil {
			return rule, err
		}
		rule.Qualifier = SpacingEndOfLine
		rule.EOLWidth, rule.EOLWithin = w, within
	case "SAMENET":
		rule.Qualifier = SpacingSameNet
		switch {
		case len(ev.Args) == 2:
		case len(ev.Args) == 3 && ev.Args[2].Text == "PGONLY":
			rule.PGOnly = true
		default:
			return rule, statementErr(ev, "SPACING SAMENET allows only the PGONLY qualifier")
		}
	case "NOTCHLENGTH":
		if len(ev.Args) != 3 {
			return rule, statementErr(ev, "SPACING NOTCHLENGTH wants a minimum notch length")
		}
		v, err := num(ev, 2)
		if err != nil {
			return rule, err
		}
		rule.Qualifier = SpacingNotchLength
		rule.NotchLength = v
	case "ENDOFNOTCHWIDTH":
		if len(ev.Args) != 7 || ev.Args[3].Text != "NOTCHSPACING" || ev.Args[5].Text != "NOTCHLENGTH" {
			return rule, statementErr(ev, "SPACING ENDOFNOTCHWIDTH wants NOTCHSPACING and NOTCHLENGTH values")
		}
		w, err := num(ev, 2)
		if err != nil {
			return rule, err
		}
		sp, err := num(ev, 4)
		if err != nil {
			return rule, err
		}
		length, err := num(ev, 6)
		if err != nil {
			return rule, err
		}
		rule.Qualifier = SpacingEndOfNotchWidth
		rule.EndOfNotchWidth, rule.NotchSpacing, rule.NotchLength = w, sp, length
	default:
		return rule, statementErr(ev, "SPACING: unknown qualifier %q", q.Text)
	}
	return rule, nil
}

func cutStatement(l *CutLayer, ev lef.Event) error {
	switch ev.Keyword {
	case "MASK":
		return setInt(&l.MaskNum, ev)
	case "WIDTH":
		return setScalar(&l.Width, ev)
	case "RESISTANCE":
		return setScalar(&l.Resistance, ev)
	case "SPACING":
		sp, err := parseCutSpacing(ev)
		if err != nil {
			return err
		}
		l.Spacings = append(l.Spacings, sp)
	case "ENCLOSURE":
		enc, err := parseEnclosure(ev)
		if err != nil {
			return err
		}
		l.Enclosures = append(l.Enclosures, enc)
	case "PREFERENCLOSURE":
		enc, err := parseEnclosure(ev)
		if err != nil {
			return err
		}
		l.PreferEnclosures = append(l.PreferEnclosures, enc)
	default:
		return statementErr(ev, "%s does not apply to a cut layer", ev.Keyword)
	}
	return nil
}

func parseCutSpacing(ev lef.Event) (CutSpacing, error) {
	var sp CutSpacing
	v, err := num(ev, 0)
	if err != nil {
		return sp, err
	}
	sp.Value = v
	for _, arg := range ev.Args[1:] {
		switch {
		case arg.IsWord() && arg.Text == "CENTERTOCENTER":
			sp.CenterToCenter = true
		case arg.IsWord() && arg.Text == "SAMENET":
			sp.SameNet = true
		default:
			return sp, statementErr(ev, "SPACING: unknown cut qualifier %q", arg.Text)
		}
	}
	return sp, nil
}

func parseEnclosure(ev lef.Event) (Enclosure, error) {
	var enc Enclosure
	i := 0
	if i < len(ev.Args) && ev.Args[i].IsWord() {
		switch ev.Args[i].Text {
		case "ABOVE":
			enc.Above = true
			i++
		case "BELOW":
			enc.Below = true
			i++
		}
	}
	if len(ev.Args) < i+2 || !isNum(ev.Args[i]) || !isNum(ev.Args[i+1]) {
		return enc, statementErr(ev, "%s wants two overhang values", ev.Keyword)
	}
	enc.Overhang1 = ev.Args[i].Num
	enc.Overhang2 = ev.Args[i+1].Num
	i += 2
	for i < len(ev.Args) {
		switch {
		case ev.Args[i].Text == "WIDTH" && i+1 < len(ev.Args) && isNum(ev.Args[i+1]):
			v := ev.Args[i+1].Num
			enc.MinWidth = &v
			i += 2
			if i+1 < len(ev.Args) && ev.Args[i].Text == "EXCEPTEXTRACUT" && isNum(ev.Args[i+1]) {
				w := ev.Args[i+1].Num
				enc.ExceptExtraCutWithin = &w
				i += 2
			}
		case ev.Args[i].Text == "LENGTH" && i+1 < len(ev.Args) && isNum(ev.Args[i+1]):
			v := ev.Args[i+1].Num
			enc.MinLength = &v
			i += 2
		default:
			return enc, statementErr(ev, "%s: unknown qualifier %q", ev.Keyword, ev.Args[i].Text)
		}
	}
	return enc, nil
}

// spacing tables

func (b *builder) handleSpacingTable(ev lef.Event) error {
	d := b.layer
	if d == nil || d.discard {
		return nil
	}
	switch ev.Kind {
	case lef.EventBegin:
		d.table = &tableDraft{pos: ev.Pos}
		if d.routing == nil {
			d.table.discard = true
			return statementErr(ev, "SPACINGTABLE applies to routing layers only")
		}
		if d.routing.SpacingTable != nil {
			d.table.discard = true
			return statementErr(ev, "layer %q: duplicate SPACINGTABLE, first table wins", d.name)
		}
		return nil
	case lef.EventEnd:
		return b.endSpacingTable(d)
	}
	t := d.table
	if t == nil || t.discard {
		return nil
	}
	switch ev.Keyword {
	case "PARALLELRUNLENGTH":
		if t.prls != nil {
			return statementErr(ev, "SPACINGTABLE: duplicate PARALLELRUNLENGTH row")
		}
		if len(ev.Args) == 0 {
			return statementErr(ev, "PARALLELRUNLENGTH wants at least one length")
		}
		t.prls = tokenNums(ev.Args)
	case "WIDTH":
		if len(ev.Args) < 2 {
			return statementErr(ev, "SPACINGTABLE WIDTH wants a threshold and spacing values")
		}
		vals := tokenNums(ev.Args)
		t.widths = append(t.widths, vals[0])
		t.values = append(t.values, vals[1:])
	}
	return nil
}

func (b *builder) endSpacingTable(d *layerDraft) error {
	t := d.table
	d.table = nil
	if t == nil || t.discard {
		return nil
	}
	table, err := NewSpacingTable(t.widths, t.prls, t.values)
	if err != nil {
		var ve *lef.ValueError
		if errors.As(err, &ve) {
			ve.Pos = t.pos
		}
		return err
	}
	d.routing.SpacingTable = table
	return nil
}

// vias

func (b *builder) handleVia(_ context.Context, ev lef.Event) error {
	switch ev.Kind {
	case lef.EventBegin:
		b.via = &viaDraft{pos: ev.Pos, via: &Via{Name: ev.Name, Default: hasWord(ev.Args, "DEFAULT")}}
		if _, exists := b.tech.viasByName[ev.Name]; exists {
			b.via.discard = true
			return duplicateName("via", ev.Name, ev.Pos)
		}
		return nil
	case lef.EventEnd:
		d := b.via
		b.via = nil
		if d == nil || d.discard {
			return nil
		}
		b.tech.vias = append(b.tech.vias, d.via)
		b.tech.viasByName[d.via.Name] = d.via
		return nil
	}
	d := b.via
	if d == nil || d.discard {
		return nil
	}
	return b.viaStatement(d, ev)
}

func (b *builder) viaStatement(d *viaDraft, ev lef.Event) error {
	v := d.via
	switch ev.Keyword {
	case "LAYER":
		name, err := oneWord(ev)
		if err != nil {
			return err
		}
		d.cur = name
		b.ref("via", v.Name, name, ev.Pos, func(l Layer) {
			for i := range v.Geometry {
				if v.Geometry[i].LayerName == name {
					v.Geometry[i].Layer = l
				}
			}
		})
	case "RESISTANCE":
		return setScalar(&v.Resistance, ev)
	case "FOREIGN":
		f, err := parseForeign(ev)
		if err != nil {
			return err
		}
		v.Foreign = f
	case "RECT":
		if d.cur == "" {
			return statementErr(ev, "via %q: RECT before any LAYER", v.Name)
		}
		r, err := parseRect(ev)
		if err != nil {
			return err
		}
		v.Geometry = append(v.Geometry, ViaGeometry{LayerName: d.cur, Rect: r})
	case "POLYGON":
		if d.cur == "" {
			return statementErr(ev, "via %q: POLYGON before any LAYER", v.Name)
		}
		pts, err := parsePoints(ev)
		if err != nil {
			return err
		}
		v.Geometry = append(v.Geometry, ViaGeometry{LayerName: d.cur, Polygon: pts})
	}
	return nil
}

func parseForeign(ev lef.Event) (*Foreign, error) {
	if len(ev.Args) == 0 || !ev.Args[0].IsWord() {
		return nil, statementErr(ev, "FOREIGN wants a cell name")
	}
	f := &Foreign{Cell: ev.Args[0].Text}
	switch len(ev.Args) {
	case 1:
		return f, nil
	case 3, 4:
		x, err := num(ev, 1)
		if err != nil {
			return nil, err
		}
		y, err := num(ev, 2)
		if err != nil {
			return nil, err
		}
		f.Point = &XY{X: x, Y: y}
		if len(ev.Args) == 4 {
			o, ok := parseOrient(ev.Args[3].Text)
			if !ok {
				return nil, statementErr(ev, "FOREIGN: unknown orientation %q", ev.Args[3].Text)
			}
			f.Orient = o
		}
		return f, nil
	default:
		return nil, statementErr(ev, "FOREIGN wants a cell with an optional point and orientation")
	}
}

// via rules

func (b *builder) handleViaRule(_ context.Context, ev lef.Event) error {
	switch ev.Kind {
	case lef.EventBegin:
		b.rule = &viaRuleDraft{pos: ev.Pos, rule: &ViaRule{Name: ev.Name, Default: hasWord(ev.Args, "DEFAULT")}}
		if _, exists := b.tech.viaRulesByName[ev.Name]; exists {
			b.rule.discard = true
			return duplicateName("viarule", ev.Name, ev.Pos)
		}
		return nil
	case lef.EventEnd:
		return b.endViaRule()
	}
	d := b.rule
	if d == nil || d.discard {
		return nil
	}
	return viaRuleStatement(d, ev)
}

func viaRuleStatement(d *viaRuleDraft, ev lef.Event) error {
	if ev.Keyword == "LAYER" {
		name, err := oneWord(ev)
		if err != nil {
			return err
		}
		d.sections = append(d.sections, &ruleSection{layerName: name, pos: ev.Pos})
		return nil
	}
	if len(d.sections) == 0 {
		return statementErr(ev, "viarule %q: %s before any LAYER", d.rule.Name, ev.Keyword)
	}
	s := d.sections[len(d.sections)-1]
	switch ev.Keyword {
	case "ENCLOSURE":
		if len(ev.Args) != 2 {
			return statementErr(ev, "ENCLOSURE wants two overhang values")
		}
		o1, err := num(ev, 0)
		if err != nil {
			return err
		}
		o2, err := num(ev, 1)
		if err != nil {
			return err
		}
		s.enclosure = &XY{X: o1, Y: o2}
	case "OVERHANG":
		return setScalar(&s.overhang, ev)
	case "METALOVERHANG":
		return setScalar(&s.metalOverhang, ev)
	case "WIDTH":
		if len(ev.Args) != 3 || !ev.Args[1].IsWord() || ev.Args[1].Text != "TO" {
			return statementErr(ev, "WIDTH wants min TO max")
		}
		lo, err := num(ev, 0)
		if err != nil {
			return err
		}
		hi, err := num(ev, 2)
		if err != nil {
			return err
		}
		s.widthRange = &MinMax{Min: lo, Max: hi}
	case "RECT":
		r, err := parseRect(ev)
		if err != nil {
			return err
		}
		s.rect = r
	case "SPACING":
		if len(ev.Args) != 3 || !ev.Args[1].IsWord() || ev.Args[1].Text != "BY" {
			return statementErr(ev, "SPACING wants x BY y")
		}
		x, err := num(ev, 0)
		if err != nil {
			return err
		}
		y, err := num(ev, 2)
		if err != nil {
			return err
		}
		s.spacing = &XY{X: x, Y: y}
	case "RESISTANCE":
		return setScalar(&s.resistance, ev)
	}
	return nil
}

// endViaRule classifies the collected sections into the two routing
// entries and the cut entry and records their layer references.
func (b *builder) endViaRule() error {
	d := b.rule
	b.rule = nil
	if d == nil || d.discard {
		return nil
	}
	r := d.rule
	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range d.sections {
		isCut := s.rect != nil || s.spacing != nil || s.resistance != nil
		isRouting := s.enclosure != nil || s.overhang != nil || s.metalOverhang != nil || s.widthRange != nil
		if isCut && isRouting {
			fail(posErr(s.pos, "viarule %q: layer %q mixes routing and cut parameters", r.Name, s.layerName))
		}
		if isCut {
			if r.Cut != nil {
				fail(posErr(s.pos, "viarule %q has more than one cut layer section", r.Name))
				continue
			}
			cut := &ViaRuleCut{LayerName: s.layerName, Rect: s.rect, Spacing: s.spacing, Resistance: s.resistance}
			r.Cut = cut
			b.ref("viarule", r.Name, s.layerName, s.pos, func(l Layer) { cut.Layer = l })
			continue
		}
		entry := &ViaRuleLayer{
			LayerName:     s.layerName,
			Enclosure:     s.enclosure,
			Overhang:      s.overhang,
			MetalOverhang: s.metalOverhang,
			WidthRange:    s.widthRange,
		}
		r.Routing = append(r.Routing, entry)
		b.ref("viarule", r.Name, s.layerName, s.pos, func(l Layer) { entry.Layer = l })
	}
	if len(r.Routing) != 2 || r.Cut == nil {
		fail(posErr(d.pos, "viarule %q wants two routing layer sections and one cut section", r.Name))
	}
	b.tech.viaRules = append(b.tech.viaRules, r)
	b.tech.viaRulesByName[r.Name] = r
	return firstErr
}

// sites

func (b *builder) handleSite(_ context.Context, ev lef.Event) error {
	switch ev.Kind {
	case lef.EventBegin:
		b.site = &siteDraft{pos: ev.Pos, site: &Site{Name: ev.Name}}
		if _, exists := b.tech.sitesByName[ev.Name]; exists {
			b.site.discard = true
			return duplicateName("site", ev.Name, ev.Pos)
		}
		return nil
	case lef.EventEnd:
		d := b.site
		b.site = nil
		if d == nil || d.discard {
			return nil
		}
		b.tech.sites = append(b.tech.sites, d.site)
		b.tech.sitesByName[d.site.Name] = d.site
		return nil
	}
	d := b.site
	if d == nil || d.discard {
		return nil
	}
	return siteStatement(d.site, ev)
}

func siteStatement(s *Site, ev lef.Event) error {
	switch ev.Keyword {
	case "CLASS":
		w, err := oneWord(ev)
		if err != nil {
			return err
		}
		switch w {
		case "CORE":
			s.Class = SiteCore
		case "PAD":
			s.Class = SitePad
		default:
			return statementErr(ev, "unknown site CLASS %q", w)
		}
	case "SYMMETRY":
		for _, arg := range ev.Args {
			switch arg.Text {
			case "X":
				s.Symmetry.X = true
			case "Y":
				s.Symmetry.Y = true
			case "R90":
				s.Symmetry.R90 = true
			default:
				return statementErr(ev, "SYMMETRY wants X, Y, or R90")
			}
		}
	case "SIZE":
		if len(ev.Args) != 3 || !ev.Args[1].IsWord() || ev.Args[1].Text != "BY" {
			return statementErr(ev, "SIZE wants width BY height")
		}
		w, err := num(ev, 0)
		if err != nil {
			return err
		}
		h, err := num(ev, 2)
		if err != nil {
			return err
		}
		s.Width, s.Height = w, h
	case "ROWPATTERN":
		if len(ev.Args) == 0 || len(ev.Args)%2 != 0 {
			return statementErr(ev, "ROWPATTERN wants site and orientation pairs")
		}
		for i := 0; i < len(ev.Args); i += 2 {
			if !ev.Args[i].IsWord() || !ev.Args[i+1].IsWord() {
				return statementErr(ev, "ROWPATTERN wants site and orientation pairs")
			}
			o, ok := parseOrient(ev.Args[i+1].Text)
			if !ok {
				return statementErr(ev, "ROWPATTERN: unknown orientation %q", ev.Args[i+1].Text)
			}
			s.RowPattern = append(s.RowPattern, SitePattern{Site: ev.Args[i].Text, Orient: o})
		}
	}
	return nil
}

// statement decoding helpers

func isNum(t lef.Token) bool {
	return t.Kind == lef.TokenNumber || t.Kind == lef.TokenUnitNumber
}

func hasWord(args []lef.Token, word string) bool {
	for _, a := range args {
		if a.Text == word {
			return true
		}
	}
	return false
}

func tokenNums(args []lef.Token) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = a.Num
	}
	return out
}

func posErr(pos lef.Position, format string, args ...any) *lef.ValueError {
	return &lef.ValueError{ParseError: lef.ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}}
}

func statementErr(ev lef.Event, format string, args ...any) *lef.ValueError {
	return posErr(ev.Pos, format, args...)
}

// num reads argument i as a number.
func num(ev lef.Event, i int) (float64, error) {
	if i >= len(ev.Args) || !isNum(ev.Args[i]) {
		return 0, statementErr(ev, "%s: argument %d must be numeric", ev.Keyword, i+1)
	}
	return ev.Args[i].Num, nil
}

func oneNum(ev lef.Event) (float64, error) {
	if len(ev.Args) != 1 || !isNum(ev.Args[0]) {
		return 0, statementErr(ev, "%s wants one numeric value", ev.Keyword)
	}
	return ev.Args[0].Num, nil
}

func oneWord(ev lef.Event) (string, error) {
	if len(ev.Args) != 1 || !ev.Args[0].IsWord() {
		return "", statementErr(ev, "%s wants one word", ev.Keyword)
	}
	return ev.Args[0].Text, nil
}

func oneString(ev lef.Event) (string, error) {
	if len(ev.Args) != 1 || ev.Args[0].Kind != lef.TokenString {
		return "", statementErr(ev, "%s wants one quoted string", ev.Keyword)
	}
	return ev.Args[0].Text, nil
}

func setScalar(dst **float64, ev lef.Event) error {
	v, err := oneNum(ev)
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}

func setInt(dst **int, ev lef.Event) error {
	v, err := oneNum(ev)
	if err != nil {
		return err
	}
	n := int(v)
	if float64(n) != v {
		return statementErr(ev, "%s wants an integer", ev.Keyword)
	}
	*dst = &n
	return nil
}

// setXYOrBoth decodes a single value applied to both axes or an explicit
// x y pair.
func setXYOrBoth(dst **XY, ev lef.Event) error {
	switch len(ev.Args) {
	case 1:
		v, err := num(ev, 0)
		if err != nil {
			return err
		}
		*dst = &XY{X: v, Y: v}
	case 2:
		x, err := num(ev, 0)
		if err != nil {
			return err
		}
		y, err := num(ev, 1)
		if err != nil {
			return err
		}
		*dst = &XY{X: x, Y: y}
	default:
		return statementErr(ev, "%s wants one or two values", ev.Keyword)
	}
	return nil
}

func setXY(dst **XY, ev lef.Event) error {
	if len(ev.Args) != 2 {
		return statementErr(ev, "%s wants two values", ev.Keyword)
	}
	x, err := num(ev, 0)
	if err != nil {
		return err
	}
	y, err := num(ev, 1)
	if err != nil {
		return err
	}
	*dst = &XY{X: x, Y: y}
	return nil
}

// setPerSquare decodes "KEYWORD UNITWORD value", tolerating the bare
// "KEYWORD value" form some files use.
func setPerSquare(dst **float64, ev lef.Event, unitWord string) error {
	args := ev.Args
	if len(args) == 2 && args[0].IsWord() && args[0].Text == unitWord {
		args = args[1:]
	}
	if len(args) != 1 || !isNum(args[0]) {
		return statementErr(ev, "%s wants %s and a value", ev.Keyword, unitWord)
	}
	v := args[0].Num
	*dst = &v
	return nil
}

func parseRect(ev lef.Event) (*Rect, error) {
	if len(ev.Args) != 4 {
		return nil, statementErr(ev, "RECT wants four coordinates")
	}
	var c [4]float64
	for i := range c {
		v, err := num(ev, i)
		if err != nil {
			return nil, err
		}
		c[i] = v
	}
	return &Rect{Min: XY{X: c[0], Y: c[1]}, Max: XY{X: c[2], Y: c[3]}}, nil
}

func parsePoints(ev lef.Event) ([]XY, error) {
	if len(ev.Args) < 6 || len(ev.Args)%2 != 0 {
		return nil, statementErr(ev, "POLYGON wants at least three coordinate pairs")
	}
	pts := make([]XY, 0, len(ev.Args)/2)
	for i := 0; i < len(ev.Args); i += 2 {
		x, err := num(ev, i)
		if err != nil {
			return nil, err
		}
		y, err := num(ev, i+1)
		if err != nil {
			return nil, err
		}
		pts = append(pts, XY{X: x, Y: y})
	}
	return pts, nil
}
