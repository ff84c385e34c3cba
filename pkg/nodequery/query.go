package nodequery

import "strings"

const (
	// ListQueryName is the operation name of paged list queries.
	ListQueryName = "NODE_LIST_QUERY"
	// ItemQueryName is the operation name of single item queries.
	ItemQueryName = "SINGLE_CONTENT_QUERY"

	listVariables = "$first: Int!, $after: String"
	listArguments = "first: $first, after: $after"
	itemVariables = "$id: ID!"
	itemArguments = "id: $id"

	// rootItemsFilter restricts hierarchical post types to their top level
	// items so children are not listed twice.
	rootItemsFilter = "where: { parent: null }"
)

// BuildListQuery renders the cursor-paged query listing the items of the
// plural root field. When rootItemsOnly is set the root field also gets the
// parent filter.
func BuildListQuery(pluralField string, fields []Selection, rootItemsOnly bool) string {
	args := listArguments
	if rootItemsOnly {
		args += ", " + rootItemsFilter
	}
	return buildQuery(ListQueryName, listVariables, Composite{
		Name:      pluralField,
		Arguments: args,
		Fields: []Selection{
			Composite{
				Name:   "pageInfo",
				Fields: []Selection{Leaf{Name: "hasNextPage"}, Leaf{Name: "endCursor"}},
			},
			Composite{
				Name:   "nodes",
				Fields: fields,
			},
		},
	})
}

// BuildItemQuery renders the query fetching one item by identifier through
// the singular root field.
func BuildItemQuery(singularField string, fields []Selection) string {
	return buildQuery(ItemQueryName, itemVariables, Composite{
		Name:      singularField,
		Arguments: itemArguments,
		Fields:    fields,
	})
}

// buildQuery wraps root in an operation. Nothing is validated: a malformed
// tree renders to malformed text.
func buildQuery(name, variables string, root Composite) string {
	var b strings.Builder
	b.WriteString("query ")
	b.WriteString(name)
	if variables != "" {
		b.WriteString("(")
		b.WriteString(variables)
		b.WriteString(")")
	}
	b.WriteString(" { ")
	writeSelection(&b, root)
	b.WriteString(" }")
	return b.String()
}
