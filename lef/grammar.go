package lef

import "strings"

// headerStatements are the top-level simple statements routed to KindHeader.
var headerStatements = map[string]bool{
	"VERSION":              true,
	"NAMESCASESENSITIVE":   true,
	"BUSBITCHARS":          true,
	"DIVIDERCHAR":          true,
	"MANUFACTURINGGRID":    true,
	"CLEARANCEMEASURE":     true,
	"USEMINSPACING":        true,
	"NOWIREEXTENSIONATPIN": true,
	"FIXEDMASK":            true,
	"MAXVIASTACK":          true,
}

// unitsStatements are the statements accepted inside UNITS ... END UNITS.
var unitsStatements = map[string]bool{
	"TIME":        true,
	"CAPACITANCE": true,
	"RESISTANCE":  true,
	"POWER":       true,
	"CURRENT":     true,
	"VOLTAGE":     true,
	"DATABASE":    true,
	"FREQUENCY":   true,
}

// layerStatements are the property keywords accepted inside a LAYER block,
// across all layer types. Which of them are meaningful is decided by the
// builder once TYPE is known.
var layerStatements = map[string]bool{
	"TYPE":               true,
	"DIRECTION":          true,
	"PITCH":              true,
	"OFFSET":             true,
	"WIDTH":              true,
	"MINWIDTH":           true,
	"MAXWIDTH":           true,
	"AREA":               true,
	"WIREEXTENSION":      true,
	"SPACING":            true,
	"RESISTANCE":         true,
	"CAPACITANCE":        true,
	"EDGECAPACITANCE":    true,
	"HEIGHT":             true,
	"THICKNESS":          true,
	"SHRINKAGE":          true,
	"CAPMULTIPLIER":      true,
	"MINIMUMDENSITY":     true,
	"MAXIMUMDENSITY":     true,
	"DENSITYCHECKWINDOW": true,
	"DENSITYCHECKSTEP":   true,
	"MASK":               true,
	"ENCLOSURE":          true,
	"PREFERENCLOSURE":    true,
}

// viaStatements are the property keywords accepted inside a VIA block.
// LAYER statements scope the following geometry to that layer.
var viaStatements = map[string]bool{
	"LAYER":      true,
	"RESISTANCE": true,
	"FOREIGN":    true,
	"RECT":       true,
	"POLYGON":    true,
}

// viaRuleStatements are the property keywords accepted inside a
// VIARULE ... GENERATE block. LAYER statements scope the following
// parameters to that layer.
var viaRuleStatements = map[string]bool{
	"LAYER":         true,
	"ENCLOSURE":     true,
	"WIDTH":         true,
	"OVERHANG":      true,
	"METALOVERHANG": true,
	"RECT":          true,
	"SPACING":       true,
	"RESISTANCE":    true,
}

// siteStatements are the property keywords accepted inside a SITE block.
var siteStatements = map[string]bool{
	"CLASS":      true,
	"SYMMETRY":   true,
	"SIZE":       true,
	"ROWPATTERN": true,
}

var constructStatements = map[ConstructKind]map[string]bool{
	KindUnits:   unitsStatements,
	KindLayer:   layerStatements,
	KindVia:     viaStatements,
	KindViaRule: viaRuleStatements,
	KindSite:    siteStatements,
}

// unsupportedStatement reports whether a keyword inside a known construct
// is recognized by the format but deliberately not modeled. These are
// flagged as unsupported constructs, distinct from unknown keywords.
func unsupportedStatement(kind ConstructKind, keyword string) bool {
	switch kind {
	case KindLayer:
		if strings.HasPrefix(keyword, "ANTENNA") {
			return true
		}
		return keyword == "PROPERTY" || keyword == "ACCURRENTDENSITY" || keyword == "DCCURRENTDENSITY"
	case KindVia, KindViaRule, KindSite:
		return keyword == "PROPERTY"
	}
	return false
}

// openerFlags lists the words a block opener may carry after its name.
var openerFlags = map[ConstructKind]map[string]bool{
	KindVia:     {"DEFAULT": true},
	KindViaRule: {"GENERATE": true, "DEFAULT": true},
}
