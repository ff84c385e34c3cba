package graphql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/llehouerou/gqlnodes/pkg/nodequery"
	"github.com/llehouerou/gqlnodes/pkg/schema"
)

// PostTypesField is the root field listing the hierarchical post types.
const PostTypesField = "postTypes"

const postTypesQuery = "query POST_TYPES_QUERY { postTypes { fieldNames { singular plural } } }"

// FetchPostTypes loads the singular and plural root field names of every
// post type. Requests failing at the transport level are retried with
// exponential backoff, up to attempts tries in total; errors reported by the
// server are returned at once.
//
// When graph is not nil and its query type has no postTypes field, no
// request is sent and the list is empty.
func (c *Client) FetchPostTypes(ctx context.Context, graph *schema.Graph, attempts int) ([]nodequery.PostType, error) {
	if graph != nil && !hasPostTypesField(graph) {
		c.logger.Debug("schema has no post types", "field", PostTypesField)
		return nil, nil
	}

	if attempts < 1 {
		attempts = 1
	}

	var out struct {
		PostTypes []struct {
			FieldNames nodequery.PostType `json:"fieldNames"`
		} `json:"postTypes"`
	}

	op := func() error {
		err := c.Exec(ctx, postTypesQuery, &out, nil)
		if err == nil {
			return nil
		}
		var gqlErrs Errors
		if errors.As(err, &gqlErrs) && len(gqlErrs) > 0 && gqlErrs[0].GetCode() != ErrRequestError {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("post types fetch failed, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, newBackOff(ctx, attempts), notify); err != nil {
		return nil, fmt.Errorf("fetch post types: %w", err)
	}

	postTypes := make([]nodequery.PostType, 0, len(out.PostTypes))
	for _, pt := range out.PostTypes {
		postTypes = append(postTypes, pt.FieldNames)
	}
	return postTypes, nil
}

// PostTypeFetcher adapts FetchPostTypes to the generator's Fetcher.
func (c *Client) PostTypeFetcher(graph *schema.Graph, attempts int) nodequery.Fetcher {
	return func(ctx context.Context) ([]nodequery.PostType, error) {
		return c.FetchPostTypes(ctx, graph, attempts)
	}
}

func hasPostTypesField(graph *schema.Graph) bool {
	root, ok := graph.Type(graph.QueryType())
	if !ok {
		return false
	}
	_, ok = root.FieldByName(PostTypesField)
	return ok
}

func newBackOff(ctx context.Context, attempts int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}
