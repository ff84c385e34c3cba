package graphql

import (
	"context"
	"fmt"

	"github.com/llehouerou/gqlnodes/pkg/schema"
)

// Introspect runs the introspection query against the server and builds the
// type graph from the answer.
func (c *Client) Introspect(ctx context.Context) (*schema.Graph, error) {
	data, err := c.ExecRaw(ctx, schema.IntrospectionQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("introspection query: %w", err)
	}

	s, err := schema.ParseIntrospection(data)
	if err != nil {
		return nil, err
	}

	g := schema.NewGraph(s)
	c.logger.Info("introspected schema", "url", c.url, "types", g.Len(), "query_type", g.QueryType())
	return g, nil
}
