package nodequery

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeNotFound is returned when a type a root field depends on is
	// missing from the graph.
	ErrTypeNotFound = errors.New("type not found in schema")
	// ErrNodesFieldNotFound is returned when a list root field's type has no
	// field matching the nodes field predicate.
	ErrNodesFieldNotFound = errors.New("no nodes field matches the predicate")
	// ErrSingleFieldNotFound is returned when no root field fetches a single
	// item of the listed type.
	ErrSingleFieldNotFound = errors.New("no singular root field returns the item type")
)

// RootFieldError reports a configuration inconsistency that stopped query
// generation for one root field.
type RootFieldError struct {
	RootField string
	TypeName  string
	Err       error
}

func (e *RootFieldError) Error() string {
	return fmt.Sprintf("root field %q (type %q): %v", e.RootField, e.TypeName, e.Err)
}

func (e *RootFieldError) Unwrap() error {
	return e.Err
}
