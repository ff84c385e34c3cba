package types

// GraphQL-related constants used throughout the codebase.
// Centralizing these prevents typos and makes refactoring safer.
const (
	// TypenameField is the GraphQL introspection field used for type
	// discrimination in unions and interfaces.
	TypenameField = "__typename"

	// FragmentOnPrefix is the full prefix for typed inline fragments
	// (e.g., "... on Droid").
	FragmentOnPrefix = "... on "

	// IntrospectionPrefix marks built-in introspection types and fields
	// (e.g., "__Schema", "__type").
	IntrospectionPrefix = "__"

	// IDField is the identity field every node type exposes. Nodes are
	// referenced by it instead of being expanded inline.
	IDField = "id"

	// SourceURLField is selected next to IDField on media item references
	// so consumers can download the file without a second query.
	SourceURLField = "sourceUrl"

	// MediaItemType is the node type that gets the id+sourceUrl shortcut.
	MediaItemType = "MediaItem"
)

// Kind is a GraphQL __TypeKind as reported by introspection.
type Kind string

const (
	KindScalar      Kind = "SCALAR"
	KindObject      Kind = "OBJECT"
	KindInterface   Kind = "INTERFACE"
	KindUnion       Kind = "UNION"
	KindEnum        Kind = "ENUM"
	KindInputObject Kind = "INPUT_OBJECT"
	KindList        Kind = "LIST"
	KindNonNull     Kind = "NON_NULL"
)
