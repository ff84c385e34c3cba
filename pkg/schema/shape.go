package schema

import "github.com/llehouerou/gqlnodes/types"

// Shape is a type reference classified once: NON_NULL wrappers are
// transparent, any LIST wrapper sets List, and Kind/Name come from the
// innermost named type.
type Shape struct {
	List bool
	Kind types.Kind
	Name string
}

// Shape classifies the reference. An unresolvable reference (no named type
// at the bottom of the wrapper chain) yields a Shape with an empty Name.
func (t TypeRef) Shape() Shape {
	var s Shape
	for ref := &t; ref != nil; ref = ref.OfType {
		switch ref.Kind {
		case types.KindNonNull:
		case types.KindList:
			s.List = true
		default:
			s.Kind = ref.Kind
			s.Name = ref.Name
			return s
		}
	}
	return s
}

// NamedType returns the innermost type name, or "".
func (t TypeRef) NamedType() string {
	return t.Shape().Name
}

// String renders the reference in SDL notation, e.g. "[Post!]!".
func (t TypeRef) String() string {
	switch t.Kind {
	case types.KindNonNull:
		if t.OfType != nil {
			return t.OfType.String() + "!"
		}
	case types.KindList:
		if t.OfType != nil {
			return "[" + t.OfType.String() + "]"
		}
	default:
		if t.Name != "" {
			return t.Name
		}
	}
	return "Unknown"
}

// Resolved reports whether the reference names a type.
func (s Shape) Resolved() bool {
	return s.Name != ""
}

// IsLeaf reports whether values of the shape are selected without a
// sub-selection.
func (s Shape) IsLeaf() bool {
	return s.Kind == types.KindScalar || s.Kind == types.KindEnum
}

// HasRequiredArgs reports whether f declares a NON_NULL argument without a
// default value. Selecting such a field without supplying the argument
// makes the whole document invalid.
func (f Field) HasRequiredArgs() bool {
	for _, arg := range f.Args {
		if arg.Type.Kind == types.KindNonNull && arg.DefaultValue == nil {
			return true
		}
	}
	return false
}
