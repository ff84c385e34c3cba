// Package nodequery derives, from a schema type graph, the GraphQL documents
// that list and fetch every node type exposed by a remote API.
//
// The type graph may be cyclic. Recursion is bounded by the query depth
// alone: a field evaluated at depth d is dropped when d >= QueryDepth, and
// the sub-selection of a composite field at depth d is evaluated at d+1.
package nodequery

import (
	"sort"

	"github.com/llehouerou/gqlnodes/pkg/schema"
	"github.com/llehouerou/gqlnodes/types"
)

// Options tune a generation pass.
type Options struct {
	// QueryDepth bounds composite nesting. Zero selects nothing.
	QueryDepth int
	// FieldBlacklist lists field names never selected. An entry matches
	// either the bare name or the aliased form "alias: name".
	FieldBlacklist []string
	// FieldAliases renames fields whose names collide with names the node
	// store reserves, e.g. parent -> wpParent.
	FieldAliases map[string]string
}

// Transformer turns schema fields into Selection trees. It holds the
// options of one pass plus the fetched-types accumulator, so a Transformer
// must not be shared between concurrent passes.
type Transformer struct {
	graph      *schema.Graph
	classifier *Classifier
	maxDepth   int
	blacklist  map[string]struct{}
	aliases    map[string]string
	fetched    map[string]struct{}
}

// NewTransformer creates a Transformer for one pass over graph.
func NewTransformer(graph *schema.Graph, classifier *Classifier, opts Options) *Transformer {
	t := &Transformer{
		graph:      graph,
		classifier: classifier,
		maxDepth:   opts.QueryDepth,
		blacklist:  make(map[string]struct{}, len(opts.FieldBlacklist)),
		aliases:    opts.FieldAliases,
		fetched:    make(map[string]struct{}),
	}
	for _, name := range opts.FieldBlacklist {
		t.blacklist[name] = struct{}{}
	}
	return t
}

// TransformFields transforms every field at depth and returns the ones that
// survive, in declaration order.
func (t *Transformer) TransformFields(fields []schema.Field, depth int) []Selection {
	if depth >= t.maxDepth {
		return nil
	}
	var out []Selection
	for _, f := range fields {
		sel, ok := t.TransformField(f, depth)
		if !ok {
			continue
		}
		t.markFetched(f.Type.NamedType())
		out = append(out, sel)
	}
	return out
}

// TransformField decides whether f is selected at depth and, if so, what
// its selection looks like. The boolean is false when the field is dropped.
func (t *Transformer) TransformField(f schema.Field, depth int) (Selection, bool) {
	if depth >= t.maxDepth {
		return nil, false
	}

	shape := f.Type.Shape()
	if !shape.Resolved() {
		return nil, false
	}

	if t.classifier.Settings(shape.Name).Suppressed() {
		return nil, false
	}

	name := t.fieldName(f.Name)
	if t.blacklisted(f.Name) || t.blacklisted(name) {
		return nil, false
	}

	if f.HasRequiredArgs() {
		return nil, false
	}

	if shape.IsLeaf() {
		return Leaf{Name: name}, true
	}

	isNode := t.classifier.IsNode(shape.Name)

	if shape.List {
		if isNode {
			return Composite{Name: name, Fields: idSelection()}, true
		}
		return t.transformPolymorphic(name, shape.Name, depth)
	}

	if isNode {
		return nodeReference(name, shape.Name), true
	}

	switch shape.Kind {
	case types.KindObject, types.KindInterface:
		typ, ok := t.graph.Type(shape.Name)
		if !ok {
			return nil, false
		}
		fields := t.TransformFields(typ.Fields, depth+1)
		if len(fields) == 0 {
			return nil, false
		}
		return Composite{Name: name, Fields: fields}, true
	case types.KindUnion:
		return t.transformPolymorphic(name, shape.Name, depth)
	}

	return nil, false
}

// transformPolymorphic selects the own fields of typeName and expands its
// possible types as fragments. It serves lists of non-node types and union
// references. The field is dropped only when both come back empty.
func (t *Transformer) transformPolymorphic(name, typeName string, depth int) (Selection, bool) {
	typ, ok := t.graph.Type(typeName)
	if !ok {
		return nil, false
	}

	fields := t.TransformFields(typ.Fields, depth+1)
	fragments := t.TransformFragments(typ.PossibleTypes, depth+1)
	if len(fields) == 0 && len(fragments) == 0 {
		return nil, false
	}

	return Composite{
		Name:      name,
		Fields:    fields,
		Fragments: fragments,
	}, true
}

// TransformFragments produces one fragment per viable possible type. The
// fragment's fields are evaluated at depth itself: expanding fragments does
// not consume a depth level. Node types get an id-only fragment. Excluded
// types, node interfaces and types whose fields all drop are omitted.
func (t *Transformer) TransformFragments(possibleTypes []schema.TypeRef, depth int) []Fragment {
	if len(possibleTypes) == 0 || depth > t.maxDepth {
		return nil
	}

	var out []Fragment
	for _, ref := range possibleTypes {
		typ, ok := t.graph.Type(ref.Name)
		if !ok || t.classifier.Settings(typ.Name).Suppressed() {
			continue
		}

		if t.classifier.IsNode(typ.Name) {
			t.markFetched(typ.Name)
			out = append(out, Fragment{TypeName: typ.Name, Fields: idSelection()})
			continue
		}

		fields := t.TransformFields(typ.Fields, depth)
		if len(fields) == 0 {
			continue
		}
		t.markFetched(typ.Name)
		out = append(out, Fragment{TypeName: typ.Name, Fields: fields})
	}
	return out
}

// FetchedTypes returns the sorted names of every type that survived
// inclusion so far, including the scalars and enums of selected leaves.
func (t *Transformer) FetchedTypes() []string {
	out := make([]string, 0, len(t.fetched))
	for name := range t.fetched {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *Transformer) markFetched(typeName string) {
	if typeName != "" {
		t.fetched[typeName] = struct{}{}
	}
}

// fieldName returns "alias: name" when name has a configured alias.
func (t *Transformer) fieldName(name string) string {
	if alias, ok := t.aliases[name]; ok && alias != "" {
		return alias + ": " + name
	}
	return name
}

func (t *Transformer) blacklisted(name string) bool {
	_, ok := t.blacklist[name]
	return ok
}

func idSelection() []Selection {
	return []Selection{Leaf{Name: types.IDField}}
}

// nodeReference selects a node by identifier only. Media items also carry
// their source URL.
func nodeReference(name, typeName string) Composite {
	if typeName == types.MediaItemType {
		return Composite{
			Name:   name,
			Fields: []Selection{Leaf{Name: types.IDField}, Leaf{Name: types.SourceURLField}},
		}
	}
	return Composite{Name: name, Fields: idSelection()}
}
