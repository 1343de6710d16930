package tech

import "fmt"

// SiteClass tells whether a site hosts core cells or IO pads.
type SiteClass int

const (
	SiteCore SiteClass = iota
	SitePad
)

func (c SiteClass) String() string {
	switch c {
	case SiteCore:
		return "CORE"
	case SitePad:
		return "PAD"
	default:
		return fmt.Sprintf("SiteClass(%d)", int(c))
	}
}

// Symmetry lists the orientations of a site considered equivalent for
// placement, e.g. whether cells may be flipped inside a row.
type Symmetry struct {
	X   bool
	Y   bool
	R90 bool
}

// SitePattern is one element of a composite site's row pattern: a
// previously defined site placed with an orientation.
type SitePattern struct {
	Site   string
	Orient Orient
}

// Site is a SITE definition, the placement grid unit for rows of cells.
type Site struct {
	Name       string
	Class      SiteClass
	Symmetry   Symmetry
	Width      float64 // SIZE width BY height, in microns
	Height     float64
	RowPattern []SitePattern
}
