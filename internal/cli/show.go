package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/gqlnodes/internal/storage"
)

var (
	showDB          string
	showRunID       string
	showFingerprint string
	showFormat      string
	showList        int
	showDelete      bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a stored generation run",
	Long: `Print a run stored by "generate --db". Without --run the latest run is
shown, or the latest run against the schema given by --fingerprint; --list
prints the most recent runs instead. --delete removes the selected run.

Examples:
  gqlnodes show --db runs.db
  gqlnodes show --db runs.db --run 0b7e... --format yaml
  gqlnodes show --db runs.db --fingerprint 9f86d081884c7d65
  gqlnodes show --db runs.db --run 0b7e... --delete
  gqlnodes show --db runs.db --list 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showDB == "" {
			return errors.New("--db is required")
		}
		if err := checkFormat(showFormat); err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		db, err := storage.Open(ctx, showDB)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := storage.NewRepository(db)

		if showList > 0 {
			runs, err := repo.ListRuns(ctx, showList)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), showFormat, runs)
		}

		var run *storage.Run
		switch {
		case showRunID != "":
			run, err = repo.GetRun(ctx, showRunID)
		case showFingerprint != "":
			run, err = repo.LatestRunWithFingerprint(ctx, showFingerprint)
		default:
			run, err = repo.LatestRun(ctx)
		}
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("no run found in %s", showDB)
		}

		if showDelete {
			if err := repo.DeleteRun(ctx, run.ID); err != nil {
				return err
			}
			logger.Info("run deleted", "db", showDB, "id", run.ID)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), run.ID)
			return nil
		}
		return encode(cmd.OutOrStdout(), showFormat, run)
	},
}

func init() {
	showCmd.Flags().StringVar(&showDB, "db", "", "SQLite database written by generate")
	showCmd.Flags().StringVar(&showRunID, "run", "", "Run ID (default: latest)")
	showCmd.Flags().StringVarP(&showFormat, "format", "f", formatJSON, "Output format (json, yaml)")
	showCmd.Flags().StringVar(&showFingerprint, "fingerprint", "", "Latest run against the schema with this fingerprint")
	showCmd.Flags().IntVar(&showList, "list", 0, "List the N most recent runs")
	showCmd.Flags().BoolVar(&showDelete, "delete", false, "Delete the selected run instead of printing it")

	rootCmd.AddCommand(showCmd)
}
