package nodequery_test

import (
	"testing"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/llehouerou/gqlnodes/pkg/nodequery"
	"github.com/llehouerou/gqlnodes/pkg/schema"
)

// blogSDL is shaped like a WPGraphQL schema: connection types with a nodes
// list, a media item node, cyclic object types and polymorphic fields.
const blogSDL = `
schema { query: RootQuery }

type RootQuery {
	posts(first: Int, after: String): RootQueryToPostConnection
	post(id: ID!): Post
	users(first: Int, after: String): RootQueryToUserConnection
	user(id: ID!): User
	mediaItems(first: Int, after: String): RootQueryToMediaItemConnection
	mediaItem(id: ID!): MediaItem
	comments(first: Int, after: String): RootQueryToCommentConnection
	comment(id: ID!): Comment
	viewer: User
}

type PageInfo {
	hasNextPage: Boolean!
	endCursor: String
}

type RootQueryToPostConnection {
	pageInfo: PageInfo!
	nodes: [Post!]!
}

type RootQueryToUserConnection {
	pageInfo: PageInfo!
	nodes: [User!]!
}

type RootQueryToMediaItemConnection {
	pageInfo: PageInfo!
	nodes: [MediaItem!]!
}

type RootQueryToCommentConnection {
	pageInfo: PageInfo!
	nodes: [Comment!]!
}

enum PostStatus { DRAFT PUBLISH }

type Post {
	id: ID!
	title: String
	status: PostStatus
	tags: [String!]
	author: User
	featuredImage: MediaItem
	comments: [Comment]
	category: Category
	blocks: [Block]
	media: Media
	owner: Owner
	excerpt(format: String!): String
	content(format: String = "RENDERED"): String
	revision(id: ID!): Post
	parent: Post
	seo: SEO
}

type User {
	id: ID!
	name: String
	posts: [Post]
}

type MediaItem {
	id: ID!
	sourceUrl: String
	altText: String
}

type Comment {
	id: ID!
	content: String
	author: User
}

type Category {
	name: String
	parent: Category
	children: [Category]
}

type Block {
	name: String
	innerBlocks: [Block]
}

type SEO {
	title: String
}

type Image { url: String }
type Video { url: String }
union Media = Image | Video

interface Owner { name: String }
type Person implements Owner { name: String age: Int }
type Team implements Owner { name: String size: Int }
`

// scenarioSDL is the minimal posts/author schema.
const scenarioSDL = `
schema { query: RootQuery }

type RootQuery {
	posts(first: Int, after: String): PostConnection
	post(id: ID!): Post
	authors(first: Int, after: String): AuthorConnection
	author(id: ID!): Author
}

type PageInfo { hasNextPage: Boolean! endCursor: String }
type PostConnection { pageInfo: PageInfo! nodes: [Post] }
type AuthorConnection { pageInfo: PageInfo! nodes: [Author] }

type Post {
	title: String
	author: Author
}

type Author { id: ID }
`

func mustLoadGraph(t *testing.T, sdl string) *schema.Graph {
	t.Helper()
	g, err := schema.LoadSDL("test.graphql", sdl)
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	return g
}

// assertValidQuery checks query against sdl with a full GraphQL validator.
func assertValidQuery(t *testing.T, sdl, query string) {
	t.Helper()
	s := gqlparser.MustLoadSchema(&ast.Source{Name: "test.graphql", Input: sdl})
	if _, errs := gqlparser.LoadQuery(s, query); len(errs) > 0 {
		t.Errorf("invalid query %q: %v", query, errs)
	}
}

// maxNesting returns the longest path of composite selections.
func maxNesting(fields []nodequery.Selection) int {
	longest := 0
	for _, f := range fields {
		c, ok := f.(nodequery.Composite)
		if !ok {
			continue
		}
		d := 1 + maxNesting(c.Fields)
		for _, frag := range c.Fragments {
			if fd := 1 + maxNesting(frag.Fields); fd > d {
				d = fd
			}
		}
		if d > longest {
			longest = d
		}
	}
	return longest
}
