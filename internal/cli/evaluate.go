package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casechain/internal/pipeline"
)

var (
	evalStrategies []string
	evalJSON       bool
	evalYAML       bool
	evalDB         string
	evalTimeout    time.Duration
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <records>",
	Short: "Compare process-number matching strategies on a record set",
	Long: `Evaluate builds case chains under every matching strategy and ranks them by
high-confidence three-tier chains, coverage and cross-court merges.

Records are read from CSV/TSV, JSON (array, search response or JSON lines)
or a SQLite database written by 'casechain import'.

Example:
  casechain evaluate consolidated.csv
  casechain evaluate decisions.json --strategies fixed_window,fuzzy --json
  casechain evaluate records.db --yaml --db results.db`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringSliceVar(&evalStrategies, "strategies", nil, "strategies to compare (default: matching.strategies)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the evaluation as JSON")
	evaluateCmd.Flags().BoolVar(&evalYAML, "yaml", false, "print the evaluation as YAML")
	evaluateCmd.Flags().StringVar(&evalDB, "db", "", "store the evaluation in this SQLite database (default: store.path)")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "overall timeout")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evalJSON && evalYAML {
		return fmt.Errorf("--json and --yaml are mutually exclusive")
	}
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	records, err := p.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d records from %s\n", len(records), args[0])
	}

	eval, err := p.Evaluate(ctx, records, evalStrategies)
	if err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}

	if db := p.StorePath(evalDB); db != "" {
		runID, err := p.SaveEvaluation(ctx, db, args[0], eval)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Stored run %s in %s\n", runID, db)
	}

	out := cmd.OutOrStdout()
	switch {
	case evalJSON:
		return p.Renderer().WriteJSON(out, eval)
	case evalYAML:
		return p.Renderer().WriteYAML(out, eval)
	default:
		p.Renderer().WriteEvaluationTable(out, eval)
		return nil
	}
}
