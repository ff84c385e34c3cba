package nodequery

import (
	"fmt"

	"github.com/llehouerou/gqlnodes/pkg/schema"
	"github.com/llehouerou/gqlnodes/types"
)

// DefaultNodesField is the connection field holding the list of items.
const DefaultNodesField = "nodes"

// FieldPredicate picks, from a connection type's fields, the one holding
// the list of actual items.
type FieldPredicate func(schema.Field) bool

// NodesFieldNamed returns a predicate matching fields called name.
func NodesFieldNamed(name string) FieldPredicate {
	return func(f schema.Field) bool {
		return f.Name == name
	}
}

// Ingestibles are the root fields that list nodes and the node types they
// list.
type Ingestibles struct {
	NodeListRootFields []schema.Field
	NodeTypeNames      []string
}

// Discover scans the fields of rootType. A root field lists nodes when its
// type is an object whose field matching isNodesField is a list of objects;
// that object type is then a node type.
func Discover(graph *schema.Graph, rootType string, isNodesField FieldPredicate) (Ingestibles, error) {
	var ing Ingestibles

	root, ok := graph.Type(rootType)
	if !ok {
		return ing, fmt.Errorf("root type %q: %w", rootType, ErrTypeNotFound)
	}

	seen := make(map[string]struct{})
	for _, f := range root.Fields {
		shape := f.Type.Shape()
		if shape.List || shape.Kind != types.KindObject {
			continue
		}
		conn, ok := graph.Type(shape.Name)
		if !ok {
			continue
		}
		item, ok := nodesFieldOf(conn, isNodesField)
		if !ok {
			continue
		}
		itemShape := item.Type.Shape()
		if !itemShape.List || itemShape.Kind != types.KindObject {
			continue
		}

		ing.NodeListRootFields = append(ing.NodeListRootFields, f)
		if _, dup := seen[itemShape.Name]; !dup {
			seen[itemShape.Name] = struct{}{}
			ing.NodeTypeNames = append(ing.NodeTypeNames, itemShape.Name)
		}
	}
	return ing, nil
}

func nodesFieldOf(conn *schema.FullType, isNodesField FieldPredicate) (*schema.Field, bool) {
	for i := range conn.Fields {
		if isNodesField(conn.Fields[i]) {
			return &conn.Fields[i], true
		}
	}
	return nil, false
}
