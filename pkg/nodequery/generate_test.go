package nodequery_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/llehouerou/gqlnodes/pkg/nodequery"
	"github.com/llehouerou/gqlnodes/pkg/schema"
)

func TestGenerate_PostsAndAuthors(t *testing.T) {
	g := mustLoadGraph(t, scenarioSDL)

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:   g,
		Options: nodequery.Options{QueryDepth: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]nodequery.QueryBundle{
		"posts": {
			TypeInfo: nodequery.TypeInfo{SingularName: "post", PluralName: "posts", NodesTypeName: "Post"},
			ListQuery: "query NODE_LIST_QUERY($first: Int!, $after: String) { " +
				"posts(first: $first, after: $after) { pageInfo { hasNextPage endCursor } nodes { title author { id } } } }",
			ItemQuery:    "query SINGLE_CONTENT_QUERY($id: ID!) { post(id: $id) { title author { id } } }",
			SelectionSet: "title author { id }",
		},
		"authors": {
			TypeInfo: nodequery.TypeInfo{SingularName: "author", PluralName: "authors", NodesTypeName: "Author"},
			ListQuery: "query NODE_LIST_QUERY($first: Int!, $after: String) { " +
				"authors(first: $first, after: $after) { pageInfo { hasNextPage endCursor } nodes { id } } }",
			ItemQuery:    "query SINGLE_CONTENT_QUERY($id: ID!) { author(id: $id) { id } }",
			SelectionSet: "id",
		},
	}
	if diff := cmp.Diff(want, res.Bundles); diff != "" {
		t.Errorf("bundles mismatch (-want +got):\n%s", diff)
	}

	for _, b := range res.Bundles {
		assertValidQuery(t, scenarioSDL, b.ListQuery)
		assertValidQuery(t, scenarioSDL, b.ItemQuery)
	}
}

func TestGenerate_ZeroDepth(t *testing.T) {
	g := mustLoadGraph(t, scenarioSDL)

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:   g,
		Options: nodequery.Options{QueryDepth: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Bundles) != 0 {
		t.Errorf("expected no bundles, got %v", res.Bundles)
	}
	if len(res.FetchedTypes) != 0 {
		t.Errorf("expected no fetched types, got %v", res.FetchedTypes)
	}
}

func TestGenerate_Blog(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph: g,
		Options: nodequery.Options{
			QueryDepth:   3,
			FieldAliases: map[string]string{"parent": "wpParent"},
		},
		Settings: nodequery.SettingsMap{"SEO": {Exclude: true}}.Resolve,
		Logger:   log.New(testLogWriter{t}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var plurals []string
	for name := range res.Bundles {
		plurals = append(plurals, name)
	}
	slices.Sort(plurals)
	if want := []string{"comments", "mediaItems", "posts", "users"}; !slices.Equal(plurals, want) {
		t.Fatalf("got bundles %v, want %v", plurals, want)
	}

	if got, want := res.Bundles["users"].SelectionSet, "id name posts { id }"; got != want {
		t.Errorf("users: got %q, want %q", got, want)
	}
	if got, want := res.Bundles["mediaItems"].TypeInfo.SingularName, "mediaItem"; got != want {
		t.Errorf("mediaItems: singular %q, want %q", got, want)
	}

	for name, b := range res.Bundles {
		t.Run(name, func(t *testing.T) {
			assertValidQuery(t, blogSDL, b.ListQuery)
			assertValidQuery(t, blogSDL, b.ItemQuery)
		})
	}

	if slices.Contains(res.FetchedTypes, "SEO") {
		t.Errorf("excluded type reported as fetched: %v", res.FetchedTypes)
	}
	for _, name := range []string{"Post", "User", "MediaItem", "Comment", "Category", "Image", "Owner"} {
		if !slices.Contains(res.FetchedTypes, name) {
			t.Errorf("expected %q in fetched types %v", name, res.FetchedTypes)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)
	in := nodequery.Input{
		Graph: g,
		Options: nodequery.Options{
			QueryDepth:   4,
			FieldAliases: map[string]string{"parent": "wpParent"},
		},
	}

	first, err := nodequery.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := nodequery.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ between passes (-first +second):\n%s", diff)
	}
}

func TestGenerate_ExcludedNodeType(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:    g,
		Options:  nodequery.Options{QueryDepth: 3},
		Settings: nodequery.SettingsMap{"Comment": {Exclude: true}}.Resolve,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Bundles["comments"]; ok {
		t.Error("expected the excluded comments root field to be skipped")
	}
	// Fields referencing an excluded node type are dropped as well.
	if got := res.Bundles["posts"].SelectionSet; strings.Contains(got, "comments") {
		t.Errorf("posts still selects comments: %s", got)
	}
}

func TestGenerate_BlacklistedRootField(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:   g,
		Options: nodequery.Options{QueryDepth: 2, FieldBlacklist: []string{"users"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Bundles["users"]; ok {
		t.Error("expected the blacklisted users root field to be skipped")
	}
	if _, ok := res.Bundles["posts"]; !ok {
		t.Error("expected posts to be generated")
	}
}

func TestGenerate_RootFieldErrors(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)
	root, _ := g.Type("RootQuery")
	users, _ := root.FieldByName("users")
	viewer, _ := root.FieldByName("viewer")

	// viewer returns a User directly, so there is no nodes field to follow.
	ing := &nodequery.Ingestibles{
		NodeListRootFields: []schema.Field{*users, *viewer},
		NodeTypeNames:      []string{"User"},
	}

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:       g,
		Options:     nodequery.Options{QueryDepth: 2},
		Ingestibles: ing,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, nodequery.ErrNodesFieldNotFound) {
		t.Errorf("expected ErrNodesFieldNotFound, got %v", err)
	}
	var rfe *nodequery.RootFieldError
	if !errors.As(err, &rfe) {
		t.Fatalf("expected a *RootFieldError, got %T", err)
	}
	if rfe.RootField != "viewer" || rfe.TypeName != "User" {
		t.Errorf("got root field %q type %q", rfe.RootField, rfe.TypeName)
	}
	if res == nil {
		t.Fatal("expected a partial result")
	}
	if _, ok := res.Bundles["users"]; !ok {
		t.Error("expected users to be generated despite the failing viewer field")
	}

	t.Run("missing singular field", func(t *testing.T) {
		res, err := nodequery.Generate(context.Background(), nodequery.Input{
			Graph:    g,
			Options:  nodequery.Options{QueryDepth: 2},
			RootType: "Post",
			Ingestibles: &nodequery.Ingestibles{
				NodeListRootFields: []schema.Field{{Name: "pages", Type: schema.TypeRef{
					Kind: "OBJECT", Name: "RootQueryToCommentConnection",
				}}},
				NodeTypeNames: []string{"Comment"},
			},
		})
		if !errors.Is(err, nodequery.ErrSingleFieldNotFound) {
			t.Errorf("expected ErrSingleFieldNotFound, got %v", err)
		}
		if res == nil || len(res.Bundles) != 0 {
			t.Errorf("expected an empty partial result, got %v", res)
		}
	})
}

func TestGenerate_PostTypeFilter(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)

	var calls int
	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:   g,
		Options: nodequery.Options{QueryDepth: 1},
		FetchPostTypes: func(context.Context) ([]nodequery.PostType, error) {
			calls++
			return []nodequery.PostType{{Singular: "post", Plural: "posts"}}, nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetcher called %d times, want 1", calls)
	}

	const filter = "where: { parent: null }"
	if q := res.Bundles["posts"].ListQuery; !strings.Contains(q, filter) {
		t.Errorf("posts list query lacks the parent filter: %s", q)
	}
	if q := res.Bundles["users"].ListQuery; strings.Contains(q, filter) {
		t.Errorf("users list query has the parent filter: %s", q)
	}
	if q := res.Bundles["posts"].ItemQuery; strings.Contains(q, filter) {
		t.Errorf("item query has the parent filter: %s", q)
	}
}

func TestGenerate_FetcherError(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)
	boom := errors.New("boom")

	res, err := nodequery.Generate(context.Background(), nodequery.Input{
		Graph:   g,
		Options: nodequery.Options{QueryDepth: 1},
		FetchPostTypes: func(context.Context) ([]nodequery.PostType, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected the fetcher error, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %v", res)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	g := mustLoadGraph(t, scenarioSDL)

	tests := []struct {
		name string
		in   nodequery.Input
	}{
		{"nil graph", nodequery.Input{Options: nodequery.Options{QueryDepth: 1}}},
		{"negative depth", nodequery.Input{Graph: g, Options: nodequery.Options{QueryDepth: -1}}},
		{"unknown root type", nodequery.Input{Graph: g, RootType: "Nope", Options: nodequery.Options{QueryDepth: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := nodequery.Generate(context.Background(), tc.in); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	g := mustLoadGraph(t, blogSDL)

	ing, err := nodequery.Discover(g, "RootQuery", nodequery.NodesFieldNamed(nodequery.DefaultNodesField))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var roots []string
	for _, f := range ing.NodeListRootFields {
		roots = append(roots, f.Name)
	}
	if diff := cmp.Diff([]string{"posts", "users", "mediaItems", "comments"}, roots); diff != "" {
		t.Errorf("root fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(blogNodeTypes, ing.NodeTypeNames); diff != "" {
		t.Errorf("node types mismatch (-want +got):\n%s", diff)
	}

	if _, err := nodequery.Discover(g, "Missing", nodequery.NodesFieldNamed("nodes")); !errors.Is(err, nodequery.ErrTypeNotFound) {
		t.Errorf("expected ErrTypeNotFound, got %v", err)
	}
}

// testLogWriter routes log output to the test log (stand-in for
// testing.T.Output, which requires Go 1.25).
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
