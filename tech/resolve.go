package tech

import (
	"fmt"

	"github.com/MoleSir/reda-lef/lef"
)

// resolveRefs replaces every recorded layer reference with its handle.
// Each reference naming a layer the collection does not hold yields one
// DanglingReference error; the reference keeps its name and a nil handle.
func (b *builder) resolveRefs() []error {
	var errs []error
	for _, ref := range b.refs {
		l, ok := b.tech.layersByName[ref.name]
		if !ok {
			errs = append(errs, danglingReference(ref.construct, ref.owner, ref.name, ref.pos))
			continue
		}
		ref.assign(l)
	}
	return errs
}

func danglingReference(construct, owner, name string, pos lef.Position) *lef.SemanticError {
	return &lef.SemanticError{
		ParseError: lef.ParseError{
			Message: fmt.Sprintf("%s %q references unknown layer %q", construct, owner, name),
			Pos:     pos,
		},
		Kind:      lef.DanglingReference,
		Construct: construct,
		Field:     "LAYER",
		Name:      name,
	}
}
