package lef

// Position tracks a source location for error messages.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset into source
}

// TokenKind identifies the type of a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenKeyword    // word present in the LEF keyword table
	TokenIdent      // any other bare word (layer, via, site names)
	TokenNumber     // -?[0-9]*.[0-9]+ with optional exponent
	TokenUnitNumber // number with a glued alphabetic unit suffix
	TokenString     // "..." without escape processing
	TokenSemi       // ;
)

var tokenNames = map[TokenKind]string{
	TokenEOF:        "EOF",
	TokenKeyword:    "keyword",
	TokenIdent:      "identifier",
	TokenNumber:     "number",
	TokenUnitNumber: "unit number",
	TokenString:     "string",
	TokenSemi:       "';'",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind TokenKind
	Text string  // raw word text, or decoded content for strings
	Num  float64 // parsed value for TokenNumber and TokenUnitNumber
	Unit string  // alphabetic suffix for TokenUnitNumber
	Pos  Position
}

// IsWord reports whether the token is a keyword or identifier.
// LEF names may collide with keywords, so name positions accept both.
func (t Token) IsWord() bool {
	return t.Kind == TokenKeyword || t.Kind == TokenIdent
}

// keywords lists the LEF words the grammar recognizes. Matching is exact;
// technology files write keywords in upper case.
var keywords = map[string]bool{
	// file header
	"VERSION": true, "NAMESCASESENSITIVE": true, "BUSBITCHARS": true,
	"DIVIDERCHAR": true, "UNITS": true, "MANUFACTURINGGRID": true,
	"CLEARANCEMEASURE": true, "USEMINSPACING": true,
	"NOWIREEXTENSIONATPIN": true, "FIXEDMASK": true, "MAXVIASTACK": true,
	"PROPERTYDEFINITIONS": true, "NONDEFAULTRULE": true, "BEGINEXT": true,
	"ENDEXT": true, "MACRO": true, "LIBRARY": true, "END": true,
	// units
	"TIME": true, "CAPACITANCE": true, "RESISTANCE": true, "POWER": true,
	"CURRENT": true, "VOLTAGE": true, "DATABASE": true, "FREQUENCY": true,
	"NANOSECONDS": true, "PICOFARADS": true, "OHMS": true, "MILLIWATTS": true,
	"MILLIAMPS": true, "VOLTS": true, "MICRONS": true, "MEGAHERTZ": true,
	// layers
	"LAYER": true, "TYPE": true, "ROUTING": true, "CUT": true,
	"MASTERSLICE": true, "OVERLAP": true, "IMPLANT": true,
	"DIRECTION": true, "HORIZONTAL": true, "VERTICAL": true,
	"DIAG45": true, "DIAG135": true,
	"PITCH": true, "OFFSET": true, "WIDTH": true, "MINWIDTH": true,
	"MAXWIDTH": true, "AREA": true, "WIREEXTENSION": true,
	"SPACING": true, "SPACINGTABLE": true, "PARALLELRUNLENGTH": true,
	"RANGE": true, "LENGTHTHRESHOLD": true, "USELENGTHTHRESHOLD": true,
	"INFLUENCE": true, "ENDOFLINE": true,
	"WITHIN": true, "SAMENET": true, "PGONLY": true, "NOTCHLENGTH": true,
	"ENDOFNOTCHWIDTH": true, "NOTCHSPACING": true,
	"RPERSQ": true, "CPERSQDIST": true, "EDGECAPACITANCE": true,
	"HEIGHT": true, "THICKNESS": true, "SHRINKAGE": true,
	"CAPMULTIPLIER": true, "MINIMUMDENSITY": true, "MAXIMUMDENSITY": true,
	"DENSITYCHECKWINDOW": true, "DENSITYCHECKSTEP": true,
	"MASK": true, "ENCLOSURE": true, "PREFERENCLOSURE": true,
	"CENTERTOCENTER": true, "ABOVE": true, "BELOW": true, "LENGTH": true,
	"EXCEPTEXTRACUT": true, "PROPERTY": true,
	// vias and via rules
	"VIA": true, "DEFAULT": true, "FOREIGN": true, "RECT": true,
	"POLYGON": true, "VIARULE": true, "GENERATE": true, "TO": true,
	"BY": true, "OVERHANG": true, "METALOVERHANG": true,
	// sites
	"SITE": true, "CLASS": true, "CORE": true, "PAD": true,
	"SYMMETRY": true, "SIZE": true, "ROWPATTERN": true,
	// clearance measures
	"MAXXY": true, "EUCLIDEAN": true,
}
