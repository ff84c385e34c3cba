package nodequery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/gqlnodes/pkg/schema"
)

// PostType names the root fields of one hierarchical post type.
type PostType struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
}

// Fetcher loads the post types. Generate calls it once, before traversal
// starts.
type Fetcher func(ctx context.Context) ([]PostType, error)

// Input holds everything one generation pass depends on.
type Input struct {
	Graph    *schema.Graph
	Options  Options
	Settings SettingsResolver

	// RootType defaults to the graph's query type.
	RootType string
	// IsNodesField defaults to NodesFieldNamed(DefaultNodesField).
	IsNodesField FieldPredicate
	// Ingestibles are discovered from the root type when nil.
	Ingestibles *Ingestibles
	// FetchPostTypes is optional. Without it no list query is filtered.
	FetchPostTypes Fetcher

	Logger *log.Logger
}

// TypeInfo names a node type and the root fields serving it.
type TypeInfo struct {
	SingularName  string `json:"singularName" yaml:"singularName"`
	PluralName    string `json:"pluralName" yaml:"pluralName"`
	NodesTypeName string `json:"nodesTypeName" yaml:"nodesTypeName"`
}

// QueryBundle is everything the node store needs to ingest one node type.
type QueryBundle struct {
	TypeInfo     TypeInfo     `json:"typeInfo" yaml:"typeInfo"`
	ListQuery    string       `json:"listQueryString" yaml:"listQueryString"`
	ItemQuery    string       `json:"nodeQueryString" yaml:"nodeQueryString"`
	SelectionSet string       `json:"selectionSet" yaml:"selectionSet"`
	Settings     TypeSettings `json:"settings" yaml:"settings"`
}

// Result is the output of a generation pass.
type Result struct {
	// Bundles is keyed by plural root field name.
	Bundles map[string]QueryBundle `json:"bundles" yaml:"bundles"`
	// FetchedTypes lists every type that made it into a selection, scalars
	// included.
	FetchedTypes []string `json:"fetchedTypes" yaml:"fetchedTypes"`
}

// Generate builds one QueryBundle per node list root field.
//
// A root field whose configuration is inconsistent (no nodes field, no
// singular root field, missing type) is reported as a *RootFieldError; the
// other root fields are still generated and the failures are returned
// joined next to the partial Result.
func Generate(ctx context.Context, in Input) (*Result, error) {
	if in.Graph == nil {
		return nil, errors.New("generate: nil type graph")
	}
	if in.Options.QueryDepth < 0 {
		return nil, fmt.Errorf("generate: negative query depth %d", in.Options.QueryDepth)
	}

	logger := in.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	rootType := in.RootType
	if rootType == "" {
		rootType = in.Graph.QueryType()
	}
	root, ok := in.Graph.Type(rootType)
	if !ok {
		return nil, fmt.Errorf("generate: root type %q: %w", rootType, ErrTypeNotFound)
	}

	isNodesField := in.IsNodesField
	if isNodesField == nil {
		isNodesField = NodesFieldNamed(DefaultNodesField)
	}

	var ing Ingestibles
	if in.Ingestibles != nil {
		ing = *in.Ingestibles
	} else {
		var err error
		ing, err = Discover(in.Graph, rootType, isNodesField)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
	}

	rootItemsOnly := make(map[string]bool)
	if in.FetchPostTypes != nil {
		postTypes, err := in.FetchPostTypes(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate: fetch post types: %w", err)
		}
		for _, pt := range postTypes {
			rootItemsOnly[pt.Plural] = true
		}
	}

	g := &generator{
		graph:        in.Graph,
		root:         root,
		isNodesField: isNodesField,
		classifier:   NewClassifier(ing.NodeTypeNames, in.Settings),
		logger:       logger,
	}
	g.transformer = NewTransformer(in.Graph, g.classifier, in.Options)

	blacklist := make(map[string]struct{}, len(in.Options.FieldBlacklist))
	for _, name := range in.Options.FieldBlacklist {
		blacklist[name] = struct{}{}
	}

	res := &Result{Bundles: make(map[string]QueryBundle)}
	var errs []error
	for _, f := range ing.NodeListRootFields {
		if _, skip := blacklist[f.Name]; skip {
			logger.Debug("skipping blacklisted root field", "field", f.Name)
			continue
		}

		bundle, ok, err := g.bundle(f, rootItemsOnly[f.Name])
		if err != nil {
			logger.Warn("cannot generate queries", "field", f.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		res.Bundles[f.Name] = bundle
	}
	res.FetchedTypes = g.transformer.FetchedTypes()

	return res, errors.Join(errs...)
}

type generator struct {
	graph        *schema.Graph
	root         *schema.FullType
	isNodesField FieldPredicate
	classifier   *Classifier
	transformer  *Transformer
	logger       *log.Logger
}

// bundle builds the queries of one list root field. ok is false when the
// field is skipped on purpose.
func (g *generator) bundle(listField schema.Field, rootItemsOnly bool) (QueryBundle, bool, error) {
	connName := listField.Type.NamedType()
	conn, found := g.graph.Type(connName)
	if !found {
		return QueryBundle{}, false, g.fail(listField, connName, ErrTypeNotFound)
	}

	nodesField, found := nodesFieldOf(conn, g.isNodesField)
	if !found {
		return QueryBundle{}, false, g.fail(listField, connName, ErrNodesFieldNotFound)
	}

	itemName := nodesField.Type.NamedType()
	item, found := g.graph.Type(itemName)
	if !found {
		return QueryBundle{}, false, g.fail(listField, itemName, ErrTypeNotFound)
	}

	settings := g.classifier.Settings(item.Name)
	if settings.Suppressed() {
		g.logger.Debug("skipping excluded type", "field", listField.Name, "type", item.Name)
		return QueryBundle{}, false, nil
	}

	single, found := g.singleField(item.Name)
	if !found {
		return QueryBundle{}, false, g.fail(listField, item.Name, ErrSingleFieldNotFound)
	}

	fields := g.transformer.TransformFields(item.Fields, 0)
	if len(fields) == 0 {
		g.logger.Debug("skipping type with empty selection set", "field", listField.Name, "type", item.Name)
		return QueryBundle{}, false, nil
	}
	g.transformer.markFetched(item.Name)

	return QueryBundle{
		TypeInfo: TypeInfo{
			SingularName:  single.Name,
			PluralName:    listField.Name,
			NodesTypeName: item.Name,
		},
		ListQuery:    BuildListQuery(listField.Name, fields, rootItemsOnly),
		ItemQuery:    BuildItemQuery(single.Name, fields),
		SelectionSet: RenderSelectionSet(fields),
		Settings:     settings,
	}, true, nil
}

// singleField finds the root field returning one item of typeName.
func (g *generator) singleField(typeName string) (*schema.Field, bool) {
	for i := range g.root.Fields {
		shape := g.root.Fields[i].Type.Shape()
		if !shape.List && shape.Name == typeName {
			return &g.root.Fields[i], true
		}
	}
	return nil, false
}

func (g *generator) fail(f schema.Field, typeName string, err error) error {
	return &RootFieldError{RootField: f.Name, TypeName: typeName, Err: err}
}
