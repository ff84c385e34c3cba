package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	graphql "github.com/llehouerou/gqlnodes"
	"github.com/llehouerou/gqlnodes/internal/storage"
	"github.com/llehouerou/gqlnodes/pkg/config"
	"github.com/llehouerou/gqlnodes/pkg/nodequery"
	"github.com/llehouerou/gqlnodes/pkg/schema"
)

var (
	generateEndpoint   string
	generateSchemaFile string
	generateConfigFile string
	generateDepth      int
	generateFormat     string
	generateOutput     string
	generateDB         string
	generateHeaders    []string
	generateValidate   bool
	generateStrict     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the node queries of a GraphQL API",
	Long: `Generate one list query and one item query per node type.

The schema is introspected from --endpoint, or read from --schema: a file
ending in .json is taken as an introspection result, anything else as SDL.

Examples:
  gqlnodes generate --endpoint https://example.com/graphql
  gqlnodes generate --schema schema.graphql --depth 2 --format yaml
  gqlnodes generate --config gqlnodes.yaml --db runs.db -o queries.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(generateFormat); err != nil {
			return err
		}

		cfg, err := config.Load(generateConfigFile)
		if err != nil {
			return err
		}
		if generateEndpoint != "" {
			cfg.Endpoint = generateEndpoint
		}
		if generateDepth >= 0 {
			cfg.Schema.QueryDepth = generateDepth
		}
		headers, err := parseHeaders(generateHeaders)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var (
			graph   *schema.Graph
			sdl     string
			fetcher nodequery.Fetcher
		)
		switch {
		case generateSchemaFile != "":
			graph, sdl, err = loadSchemaFile(generateSchemaFile)
			if err != nil {
				return err
			}
		case cfg.Endpoint != "":
			client := newClient(cfg)
			graph, err = client.Introspect(ctx)
			if err != nil {
				logErrorDetails(err)
				return err
			}
			if cfg.Schema.PostTypeFilter {
				fetcher = client.PostTypeFetcher(graph, cfg.FetchRetries)
			}
		default:
			return errors.New("please provide an endpoint (--endpoint or config) or a schema file (--schema)")
		}

		res, genErr := nodequery.Generate(ctx, nodequery.Input{
			Graph:          graph,
			Options:        cfg.Options(),
			Settings:       cfg.TypeSettings().Resolve,
			RootType:       cfg.Schema.RootType,
			IsNodesField:   nodequery.NodesFieldNamed(cfg.Schema.NodesField),
			FetchPostTypes: fetcher,
			Logger:         logger,
		})
		if res == nil {
			logErrorDetails(genErr)
			return genErr
		}
		if genErr != nil {
			logger.Warn("some root fields were skipped", "error", genErr)
		}
		logger.Info("generated queries",
			"bundles", len(res.Bundles),
			"types", len(res.FetchedTypes),
			"depth", cfg.Schema.QueryDepth,
		)

		if generateValidate {
			if sdl == "" {
				return errors.New("--validate needs an SDL --schema file")
			}
			if err := validateBundles(sdl, res.Bundles); err != nil {
				return err
			}
		}

		if generateDB != "" {
			run := &storage.Run{
				Endpoint:    cfg.Endpoint,
				Fingerprint: graph.Fingerprint(),
				QueryDepth:  cfg.Schema.QueryDepth,
				Result:      *res,
			}
			if run.Endpoint == "" {
				run.Endpoint = "file://" + generateSchemaFile
			}
			if err := saveRun(ctx, generateDB, run); err != nil {
				return err
			}
			logger.Info("run stored", "db", generateDB, "id", run.ID, "fingerprint", run.Fingerprint)
		}

		if err := writeOutput(cmd.OutOrStdout(), generateOutput, generateFormat, res); err != nil {
			return err
		}

		if generateStrict && genErr != nil {
			return genErr
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateEndpoint, "endpoint", "e", "", "GraphQL endpoint to introspect")
	generateCmd.Flags().StringVarP(&generateSchemaFile, "schema", "s", "", "Schema file (SDL, or introspection result ending in .json)")
	generateCmd.Flags().StringVarP(&generateConfigFile, "config", "c", "", "Config file (YAML)")
	generateCmd.Flags().IntVarP(&generateDepth, "depth", "d", -1, "Query depth (overrides the config)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", formatJSON, "Output format (json, yaml)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file path")
	generateCmd.Flags().StringVar(&generateDB, "db", "", "SQLite database to store the run in")
	generateCmd.Flags().StringArrayVarP(&generateHeaders, "header", "H", nil, "Request header as Key=Value (repeatable)")
	generateCmd.Flags().BoolVar(&generateValidate, "validate", false, "Validate the generated queries against the SDL schema file")
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "Fail when a root field could not be generated")

	rootCmd.AddCommand(generateCmd)
}

func newClient(cfg config.Config) *graphql.Client {
	return graphql.NewClient(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout}).
		WithHeaders(cfg.Headers).
		WithRateLimit(cfg.RateLimit, cfg.RateBurst).
		WithLogger(logger).
		WithDebug(logger.GetLevel() <= log.DebugLevel)
}

// logErrorDetails logs the request and response the client attached to a
// failed call. The client only attaches them in debug mode.
func logErrorDetails(err error) {
	var gqlErrs graphql.Errors
	if !errors.As(err, &gqlErrs) {
		return
	}
	for _, e := range gqlErrs {
		ext := e.GetInternalExtensions()
		if ext == nil {
			continue
		}
		if ext.Request != nil {
			logger.Debug("failed request", "code", e.GetCode(), "body", ext.Request.Body)
		}
		if ext.Response != nil {
			logger.Debug("failed response",
				"content_type", ext.Response.Headers.Get("Content-Type"),
				"body", ext.Response.Body,
			)
		}
		if ext.Error != nil {
			logger.Debug("body not captured", "error", ext.Error)
		}
	}
}

// loadSchemaFile builds the type graph from path. The SDL text is returned
// as well when the file is not an introspection result.
func loadSchemaFile(path string) (*schema.Graph, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read schema file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		s, err := schema.ParseIntrospection(data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return schema.NewGraph(s), "", nil
	}

	g, err := schema.LoadSDL(filepath.Base(path), string(data))
	if err != nil {
		return nil, "", err
	}
	return g, string(data), nil
}

// validateBundles checks every generated document against the schema.
func validateBundles(sdl string, bundles map[string]nodequery.QueryBundle) error {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return fmt.Errorf("failed to parse schema: %w", err)
	}

	var errs []error
	for _, name := range storage.PluralNames(bundles) {
		b := bundles[name]
		for _, q := range []string{b.ListQuery, b.ItemQuery} {
			if _, qerrs := gqlparser.LoadQuery(s, q); len(qerrs) > 0 {
				errs = append(errs, fmt.Errorf("%s: %w", name, qerrs))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("generated queries are invalid: %w", err)
	}
	logger.Info("queries validated", "bundles", len(bundles))
	return nil
}

func saveRun(ctx context.Context, path string, run *storage.Run) error {
	db, err := storage.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	return storage.NewRepository(db).SaveRun(ctx, run)
}

func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, want Key=Value", v)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
