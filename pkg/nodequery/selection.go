package nodequery

import (
	"io"
	"strings"

	"github.com/llehouerou/gqlnodes/types"
)

// Selection is one entry of a transformed field tree: either a Leaf or a
// Composite.
type Selection interface {
	// FieldName returns the rendered field name, including any alias.
	FieldName() string

	// isSelection() is a no-op used to tag the known values of Selection.
	isSelection()
}

// Leaf is a scalar-like field selected without a sub-selection.
type Leaf struct {
	Name string
}

func (Leaf) isSelection() {}

// FieldName implements Selection.
func (l Leaf) FieldName() string {
	return l.Name
}

// Composite is a field with a sub-selection. At least one of Fields and
// Fragments is non-empty in every tree the transformers produce.
type Composite struct {
	Name string
	// Arguments is rendered verbatim between parentheses when not empty.
	Arguments string
	Fields    []Selection
	Fragments []Fragment
}

func (Composite) isSelection() {}

// FieldName implements Selection.
func (c Composite) FieldName() string {
	return c.Name
}

// Fragment is an inline fragment on one concrete type of a polymorphic
// field.
type Fragment struct {
	TypeName string
	Fields   []Selection
}

// RenderSelectionSet renders fields as selection-set text. Empty input
// renders to empty text. The tree is rendered as is: all filtering happened
// while it was built.
func RenderSelectionSet(fields []Selection) string {
	var b strings.Builder
	writeSelectionSet(&b, fields)
	return b.String()
}

// writeSelectionSet writes fields separated by single spaces to w.
func writeSelectionSet(w io.Writer, fields []Selection) {
	for i, f := range fields {
		if i != 0 {
			_, _ = io.WriteString(w, " ")
		}
		writeSelection(w, f)
	}
}

func writeSelection(w io.Writer, s Selection) {
	switch s := s.(type) {
	case Leaf:
		_, _ = io.WriteString(w, s.Name)
	case Composite:
		_, _ = io.WriteString(w, s.Name)
		if s.Arguments != "" {
			_, _ = io.WriteString(w, "(")
			_, _ = io.WriteString(w, s.Arguments)
			_, _ = io.WriteString(w, ")")
		}
		_, _ = io.WriteString(w, " { ")
		writeSelectionSet(w, s.Fields)
		if len(s.Fragments) > 0 {
			if len(s.Fields) > 0 {
				_, _ = io.WriteString(w, " ")
			}
			writeFragments(w, s.Fragments)
		}
		_, _ = io.WriteString(w, " }")
	}
}

// writeFragments writes the type discriminator followed by one inline
// fragment per concrete type.
func writeFragments(w io.Writer, fragments []Fragment) {
	_, _ = io.WriteString(w, types.TypenameField)
	for _, f := range fragments {
		_, _ = io.WriteString(w, " ")
		_, _ = io.WriteString(w, types.FragmentOnPrefix)
		_, _ = io.WriteString(w, f.TypeName)
		_, _ = io.WriteString(w, " { ")
		writeSelectionSet(w, f.Fields)
		_, _ = io.WriteString(w, " }")
	}
}
