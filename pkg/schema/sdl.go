package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/llehouerou/gqlnodes/types"
)

// LoadSDL parses a schema definition document and builds the same graph an
// introspection of a server exposing it would produce.
func LoadSDL(name, sdl string) (*Graph, error) {
	parsed, err := gqlparser.LoadSchema(&ast.Source{
		Name:  name,
		Input: sdl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema: %w", err)
	}
	return NewGraph(fromAST(parsed)), nil
}

func fromAST(s *ast.Schema) Schema {
	var out Schema
	if s.Query != nil {
		out.QueryType = &TypeRef{Kind: types.KindObject, Name: s.Query.Name}
	}

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := s.Types[name]
		if strings.HasPrefix(name, types.IntrospectionPrefix) {
			continue
		}
		t := FullType{
			Kind:        types.Kind(def.Kind),
			Name:        def.Name,
			Description: def.Description,
		}
		if def.Kind == ast.Object || def.Kind == ast.Interface {
			t.Fields = fieldsFromAST(s, def.Fields)
		}
		for _, iface := range def.Interfaces {
			t.Interfaces = append(t.Interfaces, namedRef(s, iface))
		}
		switch def.Kind {
		case ast.Union:
			for _, member := range def.Types {
				t.PossibleTypes = append(t.PossibleTypes, namedRef(s, member))
			}
		case ast.Interface:
			impls := s.GetPossibleTypes(def)
			implNames := make([]string, 0, len(impls))
			for _, impl := range impls {
				implNames = append(implNames, impl.Name)
			}
			sort.Strings(implNames)
			for _, impl := range implNames {
				t.PossibleTypes = append(t.PossibleTypes, namedRef(s, impl))
			}
		}
		out.Types = append(out.Types, t)
	}
	return out
}

func fieldsFromAST(s *ast.Schema, defs ast.FieldList) []Field {
	fields := make([]Field, 0, len(defs))
	for _, def := range defs {
		if strings.HasPrefix(def.Name, types.IntrospectionPrefix) {
			continue
		}
		f := Field{
			Name: def.Name,
			Type: refFromAST(s, def.Type),
		}
		for _, arg := range def.Arguments {
			in := InputValue{
				Name: arg.Name,
				Type: refFromAST(s, arg.Type),
			}
			if arg.DefaultValue != nil {
				v := arg.DefaultValue.String()
				in.DefaultValue = &v
			}
			f.Args = append(f.Args, in)
		}
		fields = append(fields, f)
	}
	return fields
}

func refFromAST(s *ast.Schema, t *ast.Type) TypeRef {
	var ref TypeRef
	if t.Elem != nil {
		elem := refFromAST(s, t.Elem)
		ref = TypeRef{Kind: types.KindList, OfType: &elem}
	} else {
		ref = namedRef(s, t.NamedType)
	}
	if t.NonNull {
		inner := ref
		return TypeRef{Kind: types.KindNonNull, OfType: &inner}
	}
	return ref
}

func namedRef(s *ast.Schema, name string) TypeRef {
	ref := TypeRef{Name: name}
	if def, ok := s.Types[name]; ok {
		ref.Kind = types.Kind(def.Kind)
	}
	return ref
}
