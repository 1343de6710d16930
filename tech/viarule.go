package tech

// ViaRuleLayer is one routing-layer section of a generated via rule.
// Enclosure carries the ENCLOSURE overhang pair; Overhang and
// MetalOverhang carry the pre-5.6 legacy forms. WidthRange restricts the
// rule to wires inside the range.
type ViaRuleLayer struct {
	LayerName string
	Layer     Layer // resolved after reference resolution

	Enclosure     *XY // ENCLOSURE overhang1 overhang2
	Overhang      *float64
	MetalOverhang *float64
	WidthRange    *MinMax // WIDTH min TO max
}

// ViaRuleCut is the cut-layer section of a generated via rule: the cut
// shape plus the center-to-center step for building cut arrays.
type ViaRuleCut struct {
	LayerName string
	Layer     Layer

	Rect       *Rect
	Spacing    *XY // SPACING x BY y
	Resistance *float64
}

// ViaRule is a VIARULE GENERATE definition, used to derive via instances
// between two routing layers. Fixed (non-generated) via rules are not
// modeled. Routing holds the two adjacent routing-layer sections in
// declaration order.
type ViaRule struct {
	Name    string
	Default bool
	Routing []*ViaRuleLayer
	Cut     *ViaRuleCut
}
