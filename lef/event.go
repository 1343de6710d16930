package lef

// ConstructKind identifies which LEF construct an event belongs to.
type ConstructKind int

const (
	// KindHeader covers top-level simple statements (VERSION, BUSBITCHARS,
	// DIVIDERCHAR, MANUFACTURINGGRID, CLEARANCEMEASURE, MAXVIASTACK, ...).
	KindHeader ConstructKind = iota
	// KindUnits covers the UNITS ... END UNITS block.
	KindUnits
	// KindLayer covers LAYER name ... END name blocks of every layer type.
	KindLayer
	// KindVia covers VIA name ... END name blocks.
	KindVia
	// KindViaRule covers VIARULE name GENERATE ... END name blocks.
	KindViaRule
	// KindSite covers SITE name ... END name blocks.
	KindSite
	// KindSpacingTable covers the SPACINGTABLE sub-block nested inside a
	// routing layer. Its events are routed to the enclosing layer handler.
	KindSpacingTable
)

var constructNames = map[ConstructKind]string{
	KindHeader:       "header",
	KindUnits:        "units",
	KindLayer:        "layer",
	KindVia:          "via",
	KindViaRule:      "viarule",
	KindSite:         "site",
	KindSpacingTable: "spacingtable",
}

func (k ConstructKind) String() string {
	if name, ok := constructNames[k]; ok {
		return name
	}
	return "unknown"
}

// EventKind discriminates parse event types.
type EventKind int

const (
	// EventBegin opens a construct. Name holds the construct name and Args
	// any opener flag words (DEFAULT, GENERATE).
	EventBegin EventKind = iota
	// EventStatement carries one property statement: Keyword plus its
	// argument tokens.
	EventStatement
	// EventEnd closes a construct.
	EventEnd
)

var eventNames = map[EventKind]string{
	EventBegin:     "begin",
	EventStatement: "statement",
	EventEnd:       "end",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one structured parse event. The parser emits a Begin/End pair
// per construct and one Statement event per recognized property statement,
// strictly in file order.
type Event struct {
	Kind      EventKind
	Construct ConstructKind // innermost construct kind
	Name      string        // construct name on Begin/End
	Keyword   string        // statement keyword on Statement
	Args      []Token       // statement arguments, or opener flags on Begin
	Pos       Position
}

// ArgText returns the text of argument i, or "" when absent.
func (ev Event) ArgText(i int) string {
	if i < 0 || i >= len(ev.Args) {
		return ""
	}
	return ev.Args[i].Text
}
