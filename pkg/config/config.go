// Package config loads the generator settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/llehouerou/gqlnodes/pkg/nodequery"
)

// Config is the content of a gqlnodes configuration file.
type Config struct {
	// Remote API
	Endpoint     string            `yaml:"endpoint"`
	Headers      map[string]string `yaml:"headers"`
	Timeout      time.Duration     `yaml:"timeout"`
	RateLimit    float64           `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst    int               `yaml:"rate_burst"`
	FetchRetries int               `yaml:"fetch_retries"`

	Schema SchemaConfig `yaml:"schema"`

	FieldBlacklist []string `yaml:"field_blacklist"`
	// FieldAliases is merged over the defaults. Map a name to "" to drop a
	// default alias.
	FieldAliases map[string]string     `yaml:"field_aliases"`
	Types        map[string]TypeConfig `yaml:"types"`
}

// SchemaConfig drives the traversal.
type SchemaConfig struct {
	QueryDepth int `yaml:"query_depth"`
	// RootType defaults to the schema's query type.
	RootType       string `yaml:"root_type"`
	NodesField     string `yaml:"nodes_field"`
	PostTypeFilter bool   `yaml:"post_type_filter"`
}

// TypeConfig holds the per-type switches.
type TypeConfig struct {
	Exclude       bool `yaml:"exclude"`
	NodeInterface bool `yaml:"node_interface"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		RateBurst:    1,
		FetchRetries: 3,
		Schema: SchemaConfig{
			QueryDepth:     3,
			NodesField:     nodequery.DefaultNodesField,
			PostTypeFilter: true,
		},
		// Names a node store claims for its own bookkeeping.
		FieldAliases: map[string]string{
			"parent":   "wpParent",
			"children": "wpChildren",
			"internal": "wpInternal",
			"fields":   "wpFields",
		},
	}
}

// Load reads the YAML file at path over DefaultConfig. Unknown keys are
// rejected. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("YAML syntax error in config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.Schema.QueryDepth < 0:
		return fmt.Errorf("schema.query_depth must not be negative, got %d", c.Schema.QueryDepth)
	case c.Schema.NodesField == "":
		return errors.New("schema.nodes_field must not be empty")
	case c.RateLimit < 0:
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	case c.FetchRetries < 1:
		return fmt.Errorf("fetch_retries must be at least 1, got %d", c.FetchRetries)
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	return nil
}

// Options projects the file onto the traversal options.
func (c Config) Options() nodequery.Options {
	aliases := make(map[string]string, len(c.FieldAliases))
	for name, alias := range c.FieldAliases {
		if alias != "" {
			aliases[name] = alias
		}
	}
	return nodequery.Options{
		QueryDepth:     c.Schema.QueryDepth,
		FieldBlacklist: c.FieldBlacklist,
		FieldAliases:   aliases,
	}
}

// TypeSettings returns the per-type settings keyed by type name.
func (c Config) TypeSettings() nodequery.SettingsMap {
	m := make(nodequery.SettingsMap, len(c.Types))
	for name, t := range c.Types {
		m[name] = nodequery.TypeSettings{
			Exclude:       t.Exclude,
			NodeInterface: t.NodeInterface,
		}
	}
	return m
}
