// Package cli provides the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
)

var (
	logLevel string
	logger   = log.NewWithOptions(os.Stderr, log.Options{Prefix: "gqlnodes"})
)

var rootCmd = &cobra.Command{
	Use:   "gqlnodes",
	Short: "Generate node list and node fetch queries from a GraphQL schema",
	Long: `gqlnodes walks the type graph of a GraphQL API and writes, for every
node type the API lists through a connection, a paged list query and a
single item query selecting every field reachable within the depth budget.

The schema comes either from a live endpoint (introspection) or from a local
SDL or introspection JSON file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logger.SetLevel(level)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "gqlnodes version %s (commit: %s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
