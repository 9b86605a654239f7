package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casechain/internal/pipeline"
)

var (
	strategy            string
	outJSON             string
	outMD               string
	analyzeDB           string
	settlementPolicy    string
	missingOriginPolicy string
	embeddedOrigin      bool
	workers             int
	analyzeTimeout      time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <records>",
	Short: "Build case chains and infer verdicts under one strategy",
	Long: `Analyze builds case chains with a single matching strategy, runs outcome
inference over every multi-tier chain and aggregates worker success rates,
appeal success per tier and tribunal, and flow patterns.

Approximate strategies (fuzzy) are allowed but every figure is flagged as an
estimate.

Example:
  casechain analyze consolidated.csv
  casechain analyze consolidated.csv --strategy sequential_year --md report.md
  casechain analyze decisions.json --json - --settlement-policy worker_wins
  casechain analyze records.db --db results.db`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&strategy, "strategy", "s", "", "matching strategy (default: matching.default_strategy)")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (\"-\" for stdout)")
	analyzeCmd.Flags().StringVar(&analyzeDB, "db", "", "store the report in this SQLite database (default: store.path)")
	analyzeCmd.Flags().StringVar(&settlementPolicy, "settlement-policy", "", "undetermined or worker_wins")
	analyzeCmd.Flags().StringVar(&missingOriginPolicy, "missing-origin-policy", "", "undetermined or exclude")
	analyzeCmd.Flags().BoolVar(&embeddedOrigin, "embedded-origin", false, "derive missing origin rulings from appellate movement history")
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "chain-building workers (default: chain.workers)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Minute, "overall timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if settlementPolicy != "" {
		cfg.Inference.SettlementPolicy = settlementPolicy
	}
	if missingOriginPolicy != "" {
		cfg.Inference.MissingOriginPolicy = missingOriginPolicy
	}
	if cmd.Flags().Changed("embedded-origin") {
		cfg.Chain.ExpandEmbeddedOrigin = embeddedOrigin
	}
	if workers > 0 {
		cfg.Chain.Workers = workers
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

	report, err := p.Analyze(ctx, args[0], records, strategy)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if db := p.StorePath(analyzeDB); db != "" {
		runID, err := p.SaveReport(ctx, db, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Stored run %s in %s\n", runID, db)
	}

	if outJSON == "" && outMD == "" && cfg.Output.Dir != "" && !cmd.Flags().Changed("json") {
		base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])) + "-" + report.Strategy
		outJSON = filepath.Join(cfg.Output.Dir, base+".json")
	}
	if outJSON != "" {
		if err := p.Renderer().RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && outJSON != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := p.Renderer().RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose && outMD != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	p.Renderer().WriteSummary(os.Stderr, report)
	return nil
}
