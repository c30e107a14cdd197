// Package main imports a reviewed CSV back into the review database.
package main

import (
	"context"
	"fmt"
	"os"

	"sarcasm-review/internal/bootstrap"
	"sarcasm-review/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	reviewer   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "import-verdicts <run-id> <reviewed.csv>",
	Short: "Import reviewer verdicts for a run",
	Long: `Import the is_real_sarcasm, confidence_level and notes columns of a
reviewed CSV. Rows must be in the order the run exported them.

Examples:
  # Import a reviewed dual-layer file
  import-verdicts 4f0c... pi_sarcasm_readable_analysis.csv

  # Record who reviewed it
  import-verdicts --reviewer alice 4f0c... pi_sarcasm_hybrid_review.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	rootCmd.Flags().StringVar(&reviewer, "reviewer", "", "reviewer name stored with each verdict")
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.New(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	runID, path := args[0], args[1]
	n, err := env.Reviewer.ImportVerdicts(context.Background(), runID, reviewer, path)
	if err != nil {
		env.Logger.Error("Import failed", zap.String("run_id", runID), zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d verdicts for run %s\n", n, runID)
	return nil
}
