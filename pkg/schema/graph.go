package schema

import (
	"strings"

	"github.com/llehouerou/gqlnodes/types"
)

// Graph is a read-only lookup from type name to type descriptor. References
// to names missing from the graph are treated as absent, never as errors.
//
// A Graph is never modified after NewGraph returns, so it can be shared by
// concurrent generation passes.
type Graph struct {
	queryType string
	types     map[string]*FullType
	names     []string
}

// NewGraph indexes the non-introspection types of s by name.
func NewGraph(s Schema) *Graph {
	g := &Graph{
		types: make(map[string]*FullType, len(s.Types)),
		names: make([]string, 0, len(s.Types)),
	}
	if s.QueryType != nil {
		g.queryType = s.QueryType.Name
	}
	for i := range s.Types {
		t := &s.Types[i]
		if t.Name == "" || strings.HasPrefix(t.Name, types.IntrospectionPrefix) {
			continue
		}
		if _, dup := g.types[t.Name]; dup {
			continue
		}
		g.types[t.Name] = t
		g.names = append(g.names, t.Name)
	}
	return g
}

// Type returns the descriptor for name.
func (g *Graph) Type(name string) (*FullType, bool) {
	if g == nil || name == "" {
		return nil, false
	}
	t, ok := g.types[name]
	return t, ok
}

// QueryType returns the name of the schema's root query type, or "" when
// the schema did not declare one.
func (g *Graph) QueryType() string {
	return g.queryType
}

// Names returns the type names in declaration order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len returns the number of types in the graph.
func (g *Graph) Len() int {
	return len(g.names)
}

// FieldByName returns the field of t called name.
func (t *FullType) FieldByName(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}
