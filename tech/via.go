package tech

// Foreign names the foreign cell holding a via's layout geometry.
type Foreign struct {
	Cell   string
	Point  *XY // placement offset, nil when unstated
	Orient Orient
}

// ViaGeometry is one shape of a via, on the layer named by the preceding
// LAYER statement. Exactly one of Rect and Polygon is set. Layer holds
// the resolved layer after reference resolution; it is nil when the name
// dangles under a lenient read.
type ViaGeometry struct {
	LayerName string
	Layer     Layer
	Rect      *Rect
	Polygon   []XY
}

// Via is a fixed via definition: a stack of shapes connecting two routing
// layers through a cut layer.
type Via struct {
	Name       string
	Default    bool // default via for routing between its layer pair
	Resistance *float64
	Foreign    *Foreign
	Geometry   []ViaGeometry // in declaration order
}
