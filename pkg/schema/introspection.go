// Package schema models an introspected GraphQL schema as a read-only type
// graph keyed by type name.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/llehouerou/gqlnodes/types"
)

// IntrospectionQuery is the standard GraphQL introspection query with the
// TypeRef fragment nested deep enough for [[T!]!]! style wrappers.
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    types {
      ...FullType
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
  }
  interfaces {
    ...TypeRef
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
            }
          }
        }
      }
    }
  }
}`

// Schema is the __schema object of an introspection response.
type Schema struct {
	QueryType *TypeRef   `json:"queryType"`
	Types     []FullType `json:"types"`
}

// FullType describes one named type of the schema.
type FullType struct {
	Kind        types.Kind `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	// not empty for OBJECT and INTERFACE only
	Fields []Field `json:"fields"`
	// not empty for OBJECT only
	Interfaces []TypeRef `json:"interfaces,omitempty"`
	// not empty for INTERFACE and UNION only
	PossibleTypes []TypeRef `json:"possibleTypes"`
}

// Field is a field on an OBJECT or INTERFACE type.
type Field struct {
	Name string       `json:"name"`
	Args []InputValue `json:"args"`
	Type TypeRef      `json:"type"`
}

// InputValue is a field argument.
type InputValue struct {
	Name         string  `json:"name"`
	Type         TypeRef `json:"type"`
	DefaultValue *string `json:"defaultValue"`
}

// TypeRef is a type reference that may be wrapped in NON_NULL/LIST.
type TypeRef struct {
	Kind   types.Kind `json:"kind"`
	Name   string     `json:"name"`
	OfType *TypeRef   `json:"ofType"`
}

var errNoSchema = errors.New("response has no __schema object")

// ParseIntrospection decodes an introspection result. Both the bare data
// object ({"__schema": ...}) and a full response ({"data": {"__schema": ...}})
// are accepted.
func ParseIntrospection(data []byte) (Schema, error) {
	var out struct {
		Schema *Schema `json:"__schema"`
		Data   *struct {
			Schema *Schema `json:"__schema"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Schema{}, fmt.Errorf("unmarshal introspection response: %w", err)
	}
	switch {
	case out.Schema != nil:
		return *out.Schema, nil
	case out.Data != nil && out.Data.Schema != nil:
		return *out.Data.Schema, nil
	}
	return Schema{}, errNoSchema
}
